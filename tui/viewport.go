// viewport.go provides a reusable scrollable viewport with vertical and
// horizontal scrolling and word wrapping.
//
// Horizontal scrolling cuts lines by rune, so views that enable it must
// feed unstyled lines. Wrapped mode is ANSI-aware.
package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Viewport is a scrollable text area.
type Viewport struct {
	width    int
	height   int
	content  []string // lines of content, wrapped when wrapText is set
	raw      []string // lines as given
	scrollY  int
	scrollX  int
	wrapText bool
}

// NewViewport creates a viewport with the given dimensions.
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		width:  width,
		height: height,
	}
}

// SetContent replaces the viewport content.
func (v *Viewport) SetContent(content string) {
	v.SetContentLines(strings.Split(content, "\n"))
}

// SetContentLines replaces the viewport content with pre-split lines.
func (v *Viewport) SetContentLines(lines []string) {
	v.raw = lines
	v.layout()
}

// SetSize updates viewport dimensions.
func (v *Viewport) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.layout()
}

// SetWrap turns word wrapping on or off.
func (v *Viewport) SetWrap(on bool) {
	v.wrapText = on
	v.scrollX = 0
	v.layout()
}

// ScrollUp moves the viewport up by n lines.
func (v *Viewport) ScrollUp(n int) {
	v.scrollY -= n
	v.clampScroll()
}

// ScrollDown moves the viewport down by n lines.
func (v *Viewport) ScrollDown(n int) {
	v.scrollY += n
	v.clampScroll()
}

// ScrollLeft moves the viewport left.
func (v *Viewport) ScrollLeft(n int) {
	if !v.wrapText {
		v.scrollX -= n
		if v.scrollX < 0 {
			v.scrollX = 0
		}
	}
}

// ScrollRight moves the viewport right.
func (v *Viewport) ScrollRight(n int) {
	if !v.wrapText {
		v.scrollX += n
	}
}

// PageUp scrolls up by one page.
func (v *Viewport) PageUp() { v.ScrollUp(v.height) }

// PageDown scrolls down by one page.
func (v *Viewport) PageDown() { v.ScrollDown(v.height) }

// Home scrolls to the top.
func (v *Viewport) Home() {
	v.scrollY = 0
	v.scrollX = 0
}

// End scrolls to the bottom.
func (v *Viewport) End() {
	v.scrollY = v.maxScrollY()
}

// Render returns the visible portion of the content.
func (v *Viewport) Render() string {
	if len(v.content) == 0 {
		return ""
	}

	end := v.scrollY + v.height
	if end > len(v.content) {
		end = len(v.content)
	}

	visible := make([]string, 0, v.height)
	for _, line := range v.content[v.scrollY:end] {
		if !v.wrapText {
			line = cutRunes(line, v.scrollX, v.width)
		}
		visible = append(visible, line)
	}
	for len(visible) < v.height {
		visible = append(visible, "")
	}

	content := strings.Join(visible, "\n")
	if indicator := v.scrollIndicator(); indicator != "" {
		return lipgloss.JoinVertical(lipgloss.Left, content, indicator)
	}
	return content
}

// layout rebuilds the display lines from the raw ones.
func (v *Viewport) layout() {
	if !v.wrapText || v.width <= 0 {
		v.content = v.raw
		v.clampScroll()
		return
	}
	wrapper := lipgloss.NewStyle().Width(v.width)
	v.content = v.content[:0:0]
	for _, line := range v.raw {
		if lipgloss.Width(line) <= v.width {
			v.content = append(v.content, line)
			continue
		}
		v.content = append(v.content, strings.Split(wrapper.Render(line), "\n")...)
	}
	v.clampScroll()
}

func cutRunes(line string, from, width int) string {
	r := []rune(line)
	if from >= len(r) {
		return ""
	}
	r = r[from:]
	if width > 0 && len(r) > width {
		r = r[:width]
	}
	return string(r)
}

func (v *Viewport) clampScroll() {
	maxY := v.maxScrollY()
	if v.scrollY > maxY {
		v.scrollY = maxY
	}
	if v.scrollY < 0 {
		v.scrollY = 0
	}
}

func (v *Viewport) maxScrollY() int {
	max := len(v.content) - v.height
	if max < 0 {
		return 0
	}
	return max
}

func (v *Viewport) scrollIndicator() string {
	total := len(v.content)
	if total <= v.height {
		return ""
	}

	pct := (v.scrollY * 100) / total
	rule := v.width - 20
	if rule < 0 {
		rule = 0
	}
	return StyleDimmed.Render(
		strings.Repeat("─", rule) +
			" " + strconv.Itoa(pct) + "% " +
			"(" + strconv.Itoa(v.scrollY+1) + "/" + strconv.Itoa(total) + ")")
}
