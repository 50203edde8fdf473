package types

// ActionID is the closed set of interactive actions the bot understands.
// Button payloads carry one of these identifiers plus an optional value; the
// pair is parsed and validated once at the HTTP boundary and dispatched
// through an exhaustive switch.
type ActionID string

const (
	// ActionSearchByAddress starts the address search flow
	ActionSearchByAddress ActionID = "search_by_address"
	// ActionSearchByName starts the name search flow
	ActionSearchByName ActionID = "search_by_name"
	// ActionConfirmTrack subscribes to the record staged by the last name lookup
	ActionConfirmTrack ActionID = "confirm_track"
	// ActionShowTrackers renders the subscriber's tracked list
	ActionShowTrackers ActionID = "show_trackers"
	// ActionUntrackIndex stops tracking by 1-based position in the last rendered list
	ActionUntrackIndex ActionID = "untrack_index"
	// ActionUntrackName stops tracking a name directly (e.g. from a notification)
	ActionUntrackName ActionID = "untrack_name"
	// ActionSearchOwner lists names owned by the most recently resolved owner
	ActionSearchOwner ActionID = "search_owner"
	// ActionRestart resets the session and shows the greeting
	ActionRestart ActionID = "restart"
	// ActionEraseData removes all data stored for the subscriber
	ActionEraseData ActionID = "erase_data"
)

// IsValid checks if the action ID is valid
func (a ActionID) IsValid() bool {
	switch a {
	case ActionSearchByAddress, ActionSearchByName, ActionConfirmTrack,
		ActionShowTrackers, ActionUntrackIndex, ActionUntrackName,
		ActionSearchOwner, ActionRestart, ActionEraseData:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action ID
func (a ActionID) String() string {
	return string(a)
}
