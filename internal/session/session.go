// Package session implements the grading session lifecycle: intake, submit,
// single-flight grading against the scoring service and result handling.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skriba-app/skriba-api/internal/document"
	"github.com/skriba-app/skriba-api/internal/notify"
	"github.com/skriba-app/skriba-api/internal/observability"
	"github.com/skriba-app/skriba-api/internal/rubric"
	"github.com/skriba-app/skriba-api/internal/scorer"
)

// State names the lifecycle phase of a grading session.
type State string

const (
	StateIdle       State = "idle"
	StateEditing    State = "editing"
	StateSubmitting State = "submitting"
	StateResult     State = "result"
	StateFailed     State = "failed"
)

var (
	// ErrEmptyDocument rejects a submit on blank or whitespace-only text.
	ErrEmptyDocument = errors.New("document is empty")
	// ErrAlreadyGrading rejects a second submit while a request is in flight.
	ErrAlreadyGrading = errors.New("grading already in progress")
	// ErrDocumentLocked rejects edits while a grading request is outstanding.
	ErrDocumentLocked = errors.New("document is locked while grading")
	// ErrNoResult rejects result-dependent operations outside the Result state.
	ErrNoResult = errors.New("no grading result available")
)

// writingModePlaceholder seeds an empty document when the full-focus editor
// opens. A single space keeps the editor interactive while staying blank for
// word count and submit checks.
const writingModePlaceholder = " "

// Snapshot is an immutable copy of the observable session state.
type Snapshot struct {
	ID            string
	State         State
	Text          string
	WordCount     int
	WritingMode   bool
	Result        *rubric.Result
	FailureReason string
}

// Session owns one document and at most one in-flight grading request. Every
// public method is a single atomic event: the mutex stands in for the
// one-event-at-a-time loop of the interaction model, so no transition is
// ever observed half done.
type Session struct {
	id       string
	scorer   scorer.Scorer
	notifier notify.Notifier
	logger   zerolog.Logger

	mu          sync.Mutex
	state       State
	doc         *document.Document
	result      *rubric.Result
	failure     error
	writingMode bool
	requestID   uint64
	cancel      context.CancelFunc
	lastActive  time.Time
	now         func() time.Time
}

// New constructs an idle session. The scorer and notifier collaborators are
// fixed for the session's lifetime.
func New(id string, sc scorer.Scorer, notifier notify.Notifier, logger zerolog.Logger) *Session {
	s := &Session{
		id:       id,
		scorer:   sc,
		notifier: notifier,
		logger:   logger.With().Str("component", "session").Str("session_id", id).Logger(),
		state:    StateIdle,
		doc:      document.New(),
		now:      time.Now,
	}
	s.lastActive = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Snapshot returns a copy of the observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		State:       s.state,
		Text:        s.doc.Text(),
		WordCount:   s.doc.WordCount(),
		WritingMode: s.writingMode,
		Result:      s.result,
	}
	if s.failure != nil {
		snap.FailureReason = s.failure.Error()
	}
	return snap
}

// SetText replaces the document content. It is rejected while a grading
// request is outstanding so the graded snapshot and the visible text cannot
// diverge. A changed document always discards a stale result.
func (s *Session) SetText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateSubmitting {
		return ErrDocumentLocked
	}

	s.doc.SetText(text)
	s.result = nil
	s.failure = nil

	previous := s.state
	if s.doc.IsBlank() {
		s.state = StateIdle
	} else {
		s.state = StateEditing
	}
	if s.state != previous {
		s.notifier.StateChanged(s.id, string(s.state))
	}
	return nil
}

// Submit freezes the current text and dispatches one grading request. The
// full-focus overlay is forced off before the transition so it can never
// linger over a result screen.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.state == StateSubmitting {
		return ErrAlreadyGrading
	}

	if s.doc.IsBlank() {
		s.notifier.Toast(s.id, notify.Toast{
			Kind:    notify.ToastEmptySubmission,
			Message: "Write something before submitting.",
		})
		return ErrEmptyDocument
	}

	s.writingMode = false
	s.state = StateSubmitting
	s.result = nil
	s.failure = nil
	s.requestID++

	// The request must survive the triggering HTTP request but die with the
	// session, hence the detached cancelable context.
	gradeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	requestID := s.requestID
	snapshot := s.doc.Text()

	s.notifier.StateChanged(s.id, string(s.state))
	s.logger.Info().Uint64("request_id", requestID).Int("words", s.doc.WordCount()).Msg("grading dispatched")

	go s.dispatch(gradeCtx, requestID, snapshot)
	return nil
}

func (s *Session) dispatch(ctx context.Context, requestID uint64, text string) {
	candidate, err := s.scorer.Grade(ctx, text)
	s.applyResponse(requestID, candidate, err)
}

// applyResponse folds a scorer response back into the session. Responses
// tagged with anything but the current outstanding request id are dropped:
// they belong to a submission that was reset, torn down or superseded.
func (s *Session) applyResponse(requestID uint64, candidate rubric.Candidate, scoreErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requestID != s.requestID || s.state != StateSubmitting {
		observability.StaleResponses().Inc()
		s.logger.Debug().Uint64("request_id", requestID).Msg("dropping stale scorer response")
		return
	}

	s.cancel = nil

	if scoreErr != nil {
		s.failGrading(scoreErr, "scorer")
		return
	}

	result, err := rubric.Validate(candidate)
	if err != nil {
		var verr *rubric.ValidationError
		if errors.As(err, &verr) {
			s.logger.Error().Strs("reasons", verr.Reasons).Msg("scorer returned inconsistent rubric")
		}
		s.failGrading(err, "validation")
		return
	}

	s.result = &result
	s.state = StateResult
	observability.Gradings().WithLabelValues("result").Inc()
	s.notifier.StateChanged(s.id, string(s.state))
	s.notifier.Toast(s.id, notify.Toast{
		Kind:    notify.ToastGradingComplete,
		Message: "Your essay has been graded.",
	})
}

func (s *Session) failGrading(err error, outcome string) {
	s.failure = err
	s.state = StateFailed
	observability.Gradings().WithLabelValues(outcome).Inc()
	s.logger.Warn().Err(err).Msg("grading failed")
	s.notifier.StateChanged(s.id, string(s.state))
	s.notifier.Toast(s.id, notify.Toast{
		Kind:    notify.ToastGradingFailed,
		Message: "Grading failed. You can retry.",
	})
}

// Result returns the validated result when the session holds one.
func (s *Session) Result() (rubric.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateResult || s.result == nil {
		return rubric.Result{}, ErrNoResult
	}
	return *s.result, nil
}

// Reset clears document, result and failure and returns to Idle. Calling it
// again on an idle session is a no-op, and any in-flight response is
// invalidated before it can arrive.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.dropInFlight()

	changed := s.state != StateIdle || !s.doc.IsBlank() || s.result != nil || s.writingMode
	s.doc.Clear()
	s.result = nil
	s.failure = nil
	s.writingMode = false
	s.state = StateIdle

	if changed {
		s.notifier.StateChanged(s.id, string(s.state))
		s.notifier.Toast(s.id, notify.Toast{
			Kind:    notify.ToastSessionReset,
			Message: "Session reset.",
		})
	}
}

// Teardown cancels any outstanding grading request. Late responses for this
// session are discarded.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropInFlight()
}

// dropInFlight must be called with the mutex held.
func (s *Session) dropInFlight() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	// Bumping the id makes any response still in the pipe stale.
	s.requestID++
}

// EnterWritingMode activates the full-focus overlay. An empty document is
// seeded with a whitespace placeholder so the editor is immediately
// interactive; the placeholder stays functionally blank.
func (s *Session) EnterWritingMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if s.doc.Text() == "" {
		s.doc.SetText(writingModePlaceholder)
	}
	s.writingMode = true
}

// ExitWritingMode deactivates the overlay without touching the document.
func (s *Session) ExitWritingMode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.writingMode = false
}

// WritingMode reports whether the full-focus overlay is active.
func (s *Session) WritingMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writingMode
}

// LastActive reports when the session last processed a user event.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// touch must be called with the mutex held.
func (s *Session) touch() {
	s.lastActive = s.now()
}
