package registry

import "errors"

// Sentinel errors for malformed requests. Callers match them with errors.Is.
// A well-formed request that the current state does not allow is not an
// error; it comes back as Rejected.
var (
	ErrInvalidSlot  = errors.New("invalid aircraft slot")
	ErrInvalidGate  = errors.New("invalid gate")
	ErrRegistryFull = errors.New("aircraft registry full")
)

// Outcome tells a caller whether a well-formed request changed anything
type Outcome int

const (
	// Rejected means the current state did not satisfy the operation's
	// precondition; nothing changed and no broadcast fired.
	Rejected Outcome = iota
	// Applied means the record changed and subscribers were notified once.
	Applied
)

func (o Outcome) String() string {
	if o == Applied {
		return "applied"
	}
	return "rejected"
}
