package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
)

func TestParseBotAction(t *testing.T) {
	t.Run("plain action", func(t *testing.T) {
		action, err := model.ParseBotAction("show_trackers", "")
		gt.NoError(t, err).Required()
		gt.Value(t, action.ID).Equal(types.ActionShowTrackers)
	})

	t.Run("untrack by index parses position", func(t *testing.T) {
		action, err := model.ParseBotAction("untrack_index", "3")
		gt.NoError(t, err).Required()
		gt.Value(t, action.ID).Equal(types.ActionUntrackIndex)
		gt.Number(t, action.Index).Equal(3)
	})

	t.Run("untrack by name parses target", func(t *testing.T) {
		action, err := model.ParseBotAction("untrack_name", "alice.ns")
		gt.NoError(t, err).Required()
		gt.Value(t, action.Name).Equal(types.TrackedName("alice.ns"))
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		_, err := model.ParseBotAction("launch_missiles", "")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidInput)).True()
	})

	t.Run("non-numeric index is rejected", func(t *testing.T) {
		_, err := model.ParseBotAction("untrack_index", "first")
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrInvalidInput)).True()
	})

	t.Run("zero index is rejected", func(t *testing.T) {
		_, err := model.ParseBotAction("untrack_index", "0")
		gt.Error(t, err)
	})

	t.Run("empty untrack name is rejected", func(t *testing.T) {
		_, err := model.ParseBotAction("untrack_name", "")
		gt.Error(t, err)
	})
}
