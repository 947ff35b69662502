package domain

// State is a point-in-time copy of everything a view may read from the store.
// Error is empty when no error is active.
type State struct {
	Doctors         []Doctor
	FilteredDoctors []Doctor
	SearchTerm      string
	Loading         bool
	Error           string
	UserEmail       string
}
