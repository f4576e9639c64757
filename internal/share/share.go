// Package share turns a grading result into a share payload and hands it to
// the clipboard collaborator.
package share

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skriba-app/skriba-api/internal/notify"
	"github.com/skriba-app/skriba-api/internal/rubric"
)

// DefaultSuffix is the promotional tail appended to every share text.
const DefaultSuffix = "graded with Skriba (skriba.app)"

// Clipboard performs the platform copy. Implementations report failure so
// the user can be told, but a failed copy never touches session state.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
}

// NopClipboard accepts every payload. Used when the actual copy happens on
// the client after the API hands the text back.
type NopClipboard struct{}

// Copy does nothing and succeeds.
func (NopClipboard) Copy(context.Context, string) error { return nil }

// FormatShareText renders the deterministic share string for a result. Pure;
// the clipboard side effect belongs to the caller.
func FormatShareText(result rubric.Result, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return fmt.Sprintf("%d/%d points, %s", result.TotalScore(), result.MaxTotalScore(), suffix)
}

// Service formats results and drives the clipboard collaborator.
type Service struct {
	clipboard Clipboard
	notifier  notify.Notifier
	suffix    string
	logger    zerolog.Logger
}

// NewService constructs a share service.
func NewService(clipboard Clipboard, notifier notify.Notifier, suffix string, logger zerolog.Logger) *Service {
	if clipboard == nil {
		clipboard = NopClipboard{}
	}
	return &Service{
		clipboard: clipboard,
		notifier:  notifier,
		suffix:    suffix,
		logger:    logger.With().Str("component", "share_service").Logger(),
	}
}

// Share formats the result and attempts the copy. It returns the payload
// and whether the copy succeeded.
func (s *Service) Share(ctx context.Context, sessionID string, result rubric.Result) (string, bool) {
	text := FormatShareText(result, s.suffix)

	if err := s.clipboard.Copy(ctx, text); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("clipboard copy failed")
		s.notifier.Toast(sessionID, notify.Toast{
			Kind:    notify.ToastFeatureUnavailable,
			Message: "Copying to the clipboard is not available.",
		})
		return text, false
	}

	s.notifier.Toast(sessionID, notify.Toast{
		Kind:    notify.ToastShareCopied,
		Message: "Result copied to the clipboard.",
	})
	return text, true
}
