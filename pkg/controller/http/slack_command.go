package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/model"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/usecase"
	"github.com/secmon-lab/nswatch/pkg/utils/async"
	"github.com/secmon-lab/nswatch/pkg/utils/errutil"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/secmon-lab/nswatch/pkg/utils/safe"
	"github.com/slack-go/slack"
)

const commandHelp = `Available commands:
- ` + "`start`" + `: reset the conversation and show the main menu
- ` + "`list`" + `: show the names you are tracking
- ` + "`erase`" + `: delete everything stored for you
- ` + "`stats`" + `: show service-wide tracking counts
- ` + "`help`" + `: show this message`

// SlackCommandHandler handles slash command requests
type SlackCommandHandler struct {
	bot *usecase.Bot
}

// NewSlackCommandHandler creates a new slash command handler
func NewSlackCommandHandler(bot *usecase.Bot) *SlackCommandHandler {
	return &SlackCommandHandler{bot: bot}
}

// ServeHTTP handles slash command webhook requests
func (h *SlackCommandHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slash command"), http.StatusBadRequest)
		return
	}
	if cmd.UserID == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing user in slash command"), http.StatusBadRequest)
		return
	}

	subscriber := types.SubscriberID(cmd.UserID)
	arg := strings.ToLower(strings.TrimSpace(cmd.Text))

	switch arg {
	case "help":
		respondEphemeral(ctx, w, commandHelp)
		return

	case "stats":
		stats, err := h.bot.Stats(ctx)
		if err != nil {
			logging.From(ctx).Error("failed to collect stats", "error", err)
			respondEphemeral(ctx, w, "Stats are unavailable right now. Please try again later.")
			return
		}
		respondEphemeral(ctx, w, stats)
		return
	}

	// The remaining commands reply via DM; acknowledge first
	w.WriteHeader(http.StatusOK)

	async.Dispatch(ctx, func(ctx context.Context) error {
		var err error
		switch arg {
		case "", "start":
			err = h.bot.HandleStart(ctx, subscriber)
		case "list":
			err = h.bot.HandleAction(ctx, subscriber, model.BotAction{ID: types.ActionShowTrackers})
		case "erase":
			err = h.bot.HandleAction(ctx, subscriber, model.BotAction{ID: types.ActionEraseData})
		default:
			err = h.bot.HandleStart(ctx, subscriber)
		}
		if err != nil {
			return goerr.Wrap(err, "failed to handle command",
				goerr.V("subscriber", subscriber), goerr.V("command", arg))
		}
		return nil
	})
}

func respondEphemeral(ctx context.Context, w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	safe.Write(ctx, w, []byte(text))
}
