// Package slots resolves the bookable time slots for a clinic on a date.
package slots

import "fmt"

// Window is a span of the clinic day in minutes after midnight.
type Window struct {
	From int
	To   int
}

// SlotMinutes is the length of a bookable slot.
const SlotMinutes = 30

// DefaultWindows is a standard clinic day with a lunch gap: 08:00–12:00 and
// 13:00–15:30.
var DefaultWindows = []Window{
	{From: 8 * 60, To: 12 * 60},
	{From: 13 * 60, To: 15*60 + 30},
}

// Grid cuts windows into consecutive slots of size minutes, labelled
// "HH:MM - HH:MM". A trailing remainder shorter than size is dropped.
func Grid(windows []Window, size int) []string {
	if size <= 0 {
		return nil
	}
	var out []string
	for _, w := range windows {
		for start := w.From; start+size <= w.To; start += size {
			out = append(out, fmt.Sprintf("%s - %s", m2t(start), m2t(start+size)))
		}
	}
	return out
}

// FallbackGrid is the slot list offered when the API has no authoritative
// answer.
func FallbackGrid() []string {
	return Grid(DefaultWindows, SlotMinutes)
}

func m2t(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
