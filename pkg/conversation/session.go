package conversation

import "time"

const (
	DefaultTitle       = "New Chat"
	EmptyPreview       = "Empty conversation"
	LegacyTitle        = "Legacy Session"
	PreviewLength      = 50
	TitleLength        = 30
	MaxMessages        = 100
	truncationEllipsis = "..."
)

// Session is the listing entry for one conversation. Title and Preview are
// display hints derived from the messages.
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Preview   string    `json:"preview" yaml:"preview"`
}

// Truncate cuts s to n code points, appending "..." when something was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + truncationEllipsis
}

func PreviewOf(text string) string {
	return Truncate(text, PreviewLength)
}

func TitleOf(text string) string {
	return Truncate(text, TitleLength)
}
