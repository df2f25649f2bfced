package chat

import (
	"encoding/json"
	"io"
	"time"
)

// Transcript export document.
type exportDoc struct {
	Timestamp string    `json:"timestamp"`
	Messages  []Message `json:"messages"`
	User      *User     `json:"user"`
}

// Export writes messages as an indented JSON document with the export
// time and the user (null when nil).
func Export(w io.Writer, messages []Message, user *User) error {
	return exportAt(w, messages, user, time.Now())
}

func exportAt(w io.Writer, messages []Message, user *User, at time.Time) error {
	if messages == nil {
		messages = []Message{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(exportDoc{
		Timestamp: at.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Messages:  messages,
		User:      user,
	})
}

// ExportFilename is the suggested file name for an export made at t.
func ExportFilename(t time.Time) string {
	return "netsuite-chat-" + t.UTC().Format("2006-01-02") + ".json"
}
