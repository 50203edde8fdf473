package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/usecase"
	"github.com/secmon-lab/nswatch/pkg/utils/async"
	"github.com/secmon-lab/nswatch/pkg/utils/errutil"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// SlackInteractionHandler handles Slack interactive component requests
// (button clicks on the bot's messages).
type SlackInteractionHandler struct {
	bot *usecase.Bot
}

// NewSlackInteractionHandler creates a new Slack interaction handler
func NewSlackInteractionHandler(bot *usecase.Bot) *SlackInteractionHandler {
	return &SlackInteractionHandler{bot: bot}
}

// ServeHTTP handles Slack interaction webhook requests
func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack sends interactions as form-encoded data with a "payload" field
	if err := r.ParseForm(); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse form data"), http.StatusBadRequest)
		return
	}

	payload := r.FormValue("payload")
	if payload == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing payload in interaction request"), http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal interaction payload"), http.StatusBadRequest)
		return
	}

	if callback.Type != slack.InteractionTypeBlockActions {
		logging.From(ctx).Debug("ignoring interaction type", "type", callback.Type)
		w.WriteHeader(http.StatusOK)
		return
	}
	if callback.User.ID == "" || len(callback.ActionCallback.BlockActions) == 0 {
		w.WriteHeader(http.StatusOK)
		return
	}

	subscriber := types.SubscriberID(callback.User.ID)
	blockAction := callback.ActionCallback.BlockActions[0]

	action, err := model.ParseBotAction(blockAction.ActionID, blockAction.Value)
	if err != nil {
		// Stale buttons from messages sent by older deployments land here;
		// acknowledge them rather than letting Slack retry
		logging.From(ctx).Warn("discarding unparsable action",
			"action_id", blockAction.ActionID, "value", blockAction.Value, "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Acknowledge within Slack's 3-second window, then run the handler
	// detached from the request context
	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := h.bot.HandleAction(ctx, subscriber, action); err != nil {
			return goerr.Wrap(err, "failed to handle action",
				goerr.V("subscriber", subscriber), goerr.V("action_id", action.ID))
		}
		return nil
	})
}
