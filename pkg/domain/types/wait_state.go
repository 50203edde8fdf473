package types

// WaitState marks which handler consumes a subscriber's next free-form input.
type WaitState string

const (
	// WaitNone means no pending input is expected
	WaitNone WaitState = ""
	// WaitAddress means the next input is consumed by the address search flow
	WaitAddress WaitState = "address"
	// WaitName means the next input is consumed by the name search flow
	WaitName WaitState = "name"
)

// IsValid checks if the wait state is valid
func (w WaitState) IsValid() bool {
	switch w {
	case WaitNone, WaitAddress, WaitName:
		return true
	default:
		return false
	}
}

// String returns the string representation of the wait state
func (w WaitState) String() string {
	if w == WaitNone {
		return "none"
	}
	return string(w)
}
