package domain

// Identity is the per-request authenticated caller, derived from a
// verified token. It is never persisted.
type Identity struct {
	Subject  int64
	Username string
	Email    string
}
