package intent

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxQueryLength is the longest question accepted, in characters.
const MaxQueryLength = 1000

// Validation messages.
const (
	ErrMsgEmpty   = "Query cannot be empty"
	ErrMsgTooLong = "Query is too long (maximum 1000 characters)"
	ErrMsgHarmful = "Query contains potentially harmful SQL-like commands"
)

var harmfulPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)drop\s+table`),
	regexp.MustCompile(`(?i)delete\s+from`),
	regexp.MustCompile(`(?i)insert\s+into`),
	regexp.MustCompile(`(?i)update\s+.+\s+set`),
}

// ValidationResult lists every problem found with a question.
type ValidationResult struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

// Validate checks a question before it enters the pipeline.
// Each matching harmful pattern contributes one error.
func Validate(text string) ValidationResult {
	errs := []string{}

	if strings.TrimSpace(text) == "" {
		errs = append(errs, ErrMsgEmpty)
	}
	if utf8.RuneCountInString(text) > MaxQueryLength {
		errs = append(errs, ErrMsgTooLong)
	}
	for _, p := range harmfulPatterns {
		if p.MatchString(text) {
			errs = append(errs, ErrMsgHarmful)
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}
