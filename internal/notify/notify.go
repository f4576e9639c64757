// Package notify carries user-facing toasts and session state events from
// the core to whatever surface displays them. The core only ever talks to
// the Notifier interface injected at construction.
package notify

import (
	"time"

	"github.com/rs/zerolog"
)

// ToastKind keys the fixed set of user-visible notifications.
type ToastKind string

const (
	ToastDocumentLoaded     ToastKind = "document_loaded"
	ToastEmptySubmission    ToastKind = "empty_submission_rejected"
	ToastGradingComplete    ToastKind = "grading_complete"
	ToastGradingFailed      ToastKind = "grading_failed"
	ToastShareCopied        ToastKind = "share_copied"
	ToastFeatureUnavailable ToastKind = "feature_unavailable"
	ToastSessionReset       ToastKind = "session_reset"
)

// Toast is a fire-and-forget user message. Delivery failures never feed back
// into session state.
type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// Event is what subscribers of a session stream receive.
type Event struct {
	Type      string    `json:"type"` // "toast" or "state"
	SessionID string    `json:"session_id"`
	State     string    `json:"state,omitempty"`
	Toast     *Toast    `json:"toast,omitempty"`
	SentAt    time.Time `json:"sent_at"`
}

// Notifier receives toasts and state transitions for a session.
type Notifier interface {
	Toast(sessionID string, toast Toast)
	StateChanged(sessionID string, state string)
}

// LogNotifier writes notifications to the structured log. Useful as the
// fallback surface and in tests.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier builds a notifier backed by the given logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

// Toast logs the toast.
func (n *LogNotifier) Toast(sessionID string, toast Toast) {
	n.logger.Info().
		Str("session_id", sessionID).
		Str("kind", string(toast.Kind)).
		Str("message", toast.Message).
		Msg("toast")
}

// StateChanged logs the transition.
func (n *LogNotifier) StateChanged(sessionID string, state string) {
	n.logger.Info().
		Str("session_id", sessionID).
		Str("state", state).
		Msg("session state changed")
}

// Fanout forwards every notification to all wrapped notifiers.
type Fanout struct {
	targets []Notifier
}

// NewFanout composes notifiers into one.
func NewFanout(targets ...Notifier) *Fanout {
	return &Fanout{targets: targets}
}

// Toast forwards the toast to every target.
func (f *Fanout) Toast(sessionID string, toast Toast) {
	for _, target := range f.targets {
		target.Toast(sessionID, toast)
	}
}

// StateChanged forwards the transition to every target.
func (f *Fanout) StateChanged(sessionID string, state string) {
	for _, target := range f.targets {
		target.StateChanged(sessionID, state)
	}
}
