package slots

import "sync"

// Ticket identifies one slot request. Only the most recently issued ticket is
// current; responses carrying an older ticket must be dropped.
type Ticket struct {
	Generation uint64
	ClinicID   string
	Date       string
}

// Tracker hands out monotonically increasing tickets.
type Tracker struct {
	mu   sync.Mutex
	last Ticket
}

// Begin issues a ticket for (clinicID, date), superseding all earlier ones.
func (t *Tracker) Begin(clinicID, date string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = Ticket{Generation: t.last.Generation + 1, ClinicID: clinicID, Date: date}
	return t.last
}

// Invalidate supersedes every outstanding ticket without issuing a new fetch.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	t.last = Ticket{Generation: t.last.Generation + 1}
	t.mu.Unlock()
}

// Current reports whether tk is the latest ticket.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tk == t.last
}
