package thought

import (
	"strings"
	"time"
)

// Destination is one of the fixed categories a thought can be filed under.
type Destination string

const (
	DestinationReadingList Destination = "reading_list"
	DestinationTodos       Destination = "todos"
	DestinationBlog        Destination = "blog"
	DestinationCalendar    Destination = "calendar"
)

// DefaultDestination is used whenever classification fails or produces an
// unknown label.
const DefaultDestination = DestinationReadingList

var displayNames = map[Destination]string{
	DestinationReadingList: "Reading list",
	DestinationTodos:       "Todos",
	DestinationBlog:        "Blog",
	DestinationCalendar:    "Calendar",
}

// Display returns the human-readable name of the destination.
func (d Destination) Display() string {
	return displayNames[d]
}

// Destinations returns all valid destinations in a fixed order.
func Destinations() []Destination {
	return []Destination{
		DestinationReadingList,
		DestinationTodos,
		DestinationBlog,
		DestinationCalendar,
	}
}

// ParseDestination matches s against the known destinations, accepting both
// the canonical value ("reading_list") and the display name ("Reading list"),
// ignoring case and surrounding whitespace. The second return value reports
// whether s named a known destination.
func ParseDestination(s string) (Destination, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, d := range Destinations() {
		if s == string(d) || s == strings.ToLower(d.Display()) {
			return d, true
		}
	}
	return DefaultDestination, false
}

// Thought is a raw piece of captured text. It is immutable once stored.
type Thought struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcessedThought is a thought that has been filed under a destination with
// a position in that destination's manual ordering. Order values are only
// meaningful relative to other thoughts sharing the same destination.
type ProcessedThought struct {
	ID          int64       `json:"id"`
	ThoughtID   int64       `json:"thought_id"`
	Content     string      `json:"content"`
	Destination Destination `json:"destination"`
	CreatedAt   time.Time   `json:"created_at"`
	Order       int         `json:"order"`
}

// Document is a labeled bundle of processed thoughts. It stores no ordering
// of its own; consumers re-derive ordering from the per-destination order.
type Document struct {
	ID        int64              `json:"id"`
	Label     string             `json:"label"`
	CreatedAt time.Time          `json:"created_at"`
	Thoughts  []ProcessedThought `json:"thoughts"`
}
