package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/nswatch/pkg/domain/types"
	"github.com/secmon-lab/nswatch/pkg/usecase"
	"github.com/secmon-lab/nswatch/pkg/utils/async"
	"github.com/secmon-lab/nswatch/pkg/utils/errutil"
	"github.com/secmon-lab/nswatch/pkg/utils/logging"
	"github.com/secmon-lab/nswatch/pkg/utils/safe"
	"github.com/slack-go/slack/slackevents"
)

// verifySlackSignature verifies the Slack request signature.
// This is a pure function that can be used independently for testing.
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}
	if signature == "" {
		return goerr.New("missing signature")
	}

	// Check timestamp to prevent replay attacks (within 5 minutes)
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	if now-ts > 60*5 {
		return goerr.New("timestamp too old", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request signatures
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			defer func() {
				if err := r.Body.Close(); err != nil {
					logging.From(ctx).Error("failed to close request body", "error", err)
				}
			}()

			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Restore the consumed body for the handler
			r.Body = io.NopCloser(bytes.NewBuffer(body))
			next.ServeHTTP(w, r)
		})
	}
}

// SlackEventHandler handles Slack Events API webhook requests. Direct
// messages to the bot are the free-form input of the conversation flows.
type SlackEventHandler struct {
	bot *usecase.Bot
}

// NewSlackEventHandler creates a new Slack event handler
func NewSlackEventHandler(bot *usecase.Bot) *SlackEventHandler {
	return &SlackEventHandler{bot: bot}
}

// ServeHTTP handles Slack webhook requests
func (h *SlackEventHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse slack event"), http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to unmarshal challenge"), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(challenge.Challenge))
		return

	case slackevents.CallbackEvent:
		// Return 200 immediately to satisfy Slack's 3-second timeout, then
		// process the event detached from the request context
		w.WriteHeader(http.StatusOK)

		async.Dispatch(ctx, func(ctx context.Context) error {
			return h.handleCallback(ctx, &event)
		})

	default:
		logging.From(ctx).Warn("unknown slack event type", "type", event.Type)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *SlackEventHandler) handleCallback(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	msgEvent, ok := event.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		logging.From(ctx).Debug("ignoring non-message event", "inner_type", event.InnerEvent.Type)
		return nil
	}

	// Only direct messages drive the conversation; the bot's own messages
	// and edits are ignored
	if msgEvent.ChannelType != "im" || msgEvent.BotID != "" || msgEvent.SubType != "" {
		return nil
	}
	if msgEvent.User == "" {
		return nil
	}

	subscriber := types.SubscriberID(msgEvent.User)
	if err := h.bot.HandleText(ctx, subscriber, msgEvent.Text); err != nil {
		return goerr.Wrap(err, "failed to handle message", goerr.V("subscriber", subscriber))
	}
	return nil
}
