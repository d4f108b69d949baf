package monitor

import "time"

// Status is the latest snapshot of every dependency the back-office needs.
type Status struct {
	Checks         map[string]bool `json:"checks"`
	JournalBacklog int             `json:"journal_backlog"`
	LastCheck      time.Time       `json:"last_check"`
}

// Healthy reports whether every check passed.
func (s Status) Healthy() bool {
	if len(s.Checks) == 0 {
		return false
	}
	for _, ok := range s.Checks {
		if !ok {
			return false
		}
	}
	return true
}
