// internal/analytics/analytics.go
//
// Gameplay analytics. Sinks receive events shaped like the site's
// gtag("event", action, {event_category, event_label, value,
// non_interaction}) calls. Outside production events are only logged.

package analytics

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/charades/internal/game"
)

// Event is a single tracked action.
type Event struct {
	Action         string
	Category       string
	Label          string
	Value          int
	NonInteraction bool
	// ClientID identifies the player to the sink.
	ClientID string
}

// Sink accepts events. Track must not block on the network.
type Sink interface {
	Track(ctx context.Context, e Event)
}

// LogSink writes events at debug level instead of sending them.
type LogSink struct{}

func (LogSink) Track(_ context.Context, e Event) {
	log.Debug().
		Str("action", e.Action).
		Str("category", e.Category).
		Str("label", e.Label).
		Int("value", e.Value).
		Bool("non_interactive", e.NonInteraction).
		Msg("[TRACKING_OFF]")
}

// Multi fans out to several sinks.
type Multi []Sink

func (m Multi) Track(ctx context.Context, e Event) {
	for _, s := range m {
		s.Track(ctx, e)
	}
}

// GuessEvents returns the events for guess number n of a round given the
// state after the guess and the recomputed streaks.
func GuessEvents(clientID, guess string, n int, st *game.GameState, streaks game.Streaks) []Event {
	ev := func(action, category, label string) Event {
		return Event{Action: action, Category: category, Label: label, ClientID: clientID}
	}
	out := []Event{ev("guessed_"+guess, "game_state", fmt.Sprintf("guess_%d_%s", n, guess))}
	switch {
	case st.Won:
		out = append(out,
			ev("game_won", "game_state", fmt.Sprintf("game_won_%d", n)),
			ev("win_streak", "streaks", fmt.Sprintf("win_streak_%d", streaks.Win)),
			ev("completion_streak", "streaks", fmt.Sprintf("completion_streak_%d", streaks.Completion)),
		)
	case st.Finished:
		out = append(out,
			ev("game_lost", "game_state", "game_lost"),
			ev("completion_streak", "streaks", fmt.Sprintf("completion_streak_%d", streaks.Completion)),
		)
	default:
		out = append(out, ev("guessed_wrong", "game_state", fmt.Sprintf("guess_%d", n)))
	}
	return out
}

// ShareEvent is sent when a player copies their results.
func ShareEvent(clientID string) Event {
	return Event{Action: "click_share_results", Category: "button_click", Label: "share_results", ClientID: clientID}
}
