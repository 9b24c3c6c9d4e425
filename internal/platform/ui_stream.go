package platform

import (
	"context"
	"log/slog"
	"net/http"

	"fauxterm/internal/messages"

	"github.com/nats-io/nats.go/jetstream"
	datastar "github.com/starfederation/datastar/sdk/go"
)

// EventsStream is the SSE handler for /events. It replays the session's
// executed commands from the TERMINAL stream and then follows new ones.
func EventsStream(js jetstream.JetStream) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if js == nil {
			writeError(w, http.StatusNotFound, "event stream disabled")
			return
		}
		sid := SessionID(r)
		subj := messages.TerminalExecutedSubject(sid)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		cons, err := js.CreateConsumer(ctx, TerminalStream, jetstream.ConsumerConfig{
			AckPolicy:     jetstream.AckNonePolicy,
			FilterSubject: subj,
			DeliverPolicy: jetstream.DeliverAllPolicy, // replay the session's history
		})
		if err != nil {
			slog.Warn("events: failed to create consumer", "sid", sid, "err", err)
			writeError(w, http.StatusInternalServerError, "could not subscribe to events")
			return
		}

		sse := datastar.NewSSE(w, r)

		cc, err := cons.Consume(func(msg jetstream.Msg) {
			rd, ok := renderFor(msg.Subject())
			if !ok {
				slog.Debug("events: no renderer", "subj", msg.Subject())
				return
			}
			if err := rd.RenderFunc(ctx, msg, sse); err != nil {
				slog.Warn("render", "subj", msg.Subject(), "err", err)
				cancel()
			}
		})
		if err != nil {
			slog.Warn("consume failed", "sid", sid, "err", err)
			return
		}
		defer cc.Stop()

		<-ctx.Done() // Wait for disconnect
	}
}
