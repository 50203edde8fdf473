package model

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

// BotAction is one interactive action with its parsed argument. Payloads are
// parsed and validated here, once, at the transport boundary; handlers
// dispatch on ID through an exhaustive switch and never re-parse values.
type BotAction struct {
	ID types.ActionID

	// Index is the 1-based list position for ActionUntrackIndex
	Index int

	// Name is the target for ActionUntrackName
	Name types.TrackedName
}

// ParseBotAction validates an action identifier and its payload value
func ParseBotAction(id, value string) (BotAction, error) {
	action := BotAction{ID: types.ActionID(id)}
	if !action.ID.IsValid() {
		return BotAction{}, goerr.Wrap(ErrInvalidInput, "unknown action", goerr.V("action_id", id))
	}

	switch action.ID {
	case types.ActionUntrackIndex:
		index, err := strconv.Atoi(value)
		if err != nil || index < 1 {
			return BotAction{}, goerr.Wrap(ErrInvalidInput, "invalid list position",
				goerr.V("action_id", id), goerr.V("value", value))
		}
		action.Index = index

	case types.ActionUntrackName:
		name := types.TrackedName(value)
		if err := name.Validate(); err != nil {
			return BotAction{}, goerr.Wrap(ErrInvalidInput, "invalid name in action payload",
				goerr.V("action_id", id), goerr.V("value", value))
		}
		action.Name = name
	}

	return action, nil
}
