package dto

import (
	"github.com/skriba-app/skriba-api/internal/rubric"
	"github.com/skriba-app/skriba-api/internal/session"
)

// TextUpdateRequest replaces the session's document content. Blank text is
// allowed; it simply returns the session to idle.
type TextUpdateRequest struct {
	Text string `json:"text"`
}

// WritingModeRequest toggles the full-focus editor overlay.
type WritingModeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// DisqualifiersResponse serializes the formal requirements flags.
type DisqualifiersResponse struct {
	CardinalError    bool `json:"cardinal_error"`
	MissingReference bool `json:"missing_reference"`
	OffTopic         bool `json:"off_topic"`
	NonArgumentative bool `json:"non_argumentative"`
}

// CriterionResponse serializes one scored criterion.
type CriterionResponse struct {
	Kind          string                 `json:"kind"`
	Points        int                    `json:"points"`
	MaxPoints     int                    `json:"max_points"`
	ErrorCount    *int                   `json:"error_count,omitempty"`
	Disqualifiers *DisqualifiersResponse `json:"disqualifiers,omitempty"`
	Consistent    bool                   `json:"consistent"`
}

// ResultResponse serializes a validated grading result.
type ResultResponse struct {
	Criteria      []CriterionResponse `json:"criteria"`
	TotalScore    int                 `json:"total_score"`
	MaxTotalScore int                 `json:"max_total_score"`
	Percentage    int                 `json:"percentage"`
	Feedback      string              `json:"feedback"`
	Errors        []string            `json:"errors"`
	Suggestions   []string            `json:"suggestions"`
}

// SessionResponse is the observable snapshot returned to API clients.
type SessionResponse struct {
	ID            string          `json:"id"`
	State         string          `json:"state"`
	WordCount     int             `json:"word_count"`
	WritingMode   bool            `json:"writing_mode"`
	Result        *ResultResponse `json:"result,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
}

// ShareResponse carries the formatted share payload.
type ShareResponse struct {
	Text   string `json:"text"`
	Copied bool   `json:"copied"`
}

// NewSessionResponse converts a session snapshot into a DTO.
func NewSessionResponse(snap session.Snapshot) SessionResponse {
	response := SessionResponse{
		ID:            snap.ID,
		State:         string(snap.State),
		WordCount:     snap.WordCount,
		WritingMode:   snap.WritingMode,
		FailureReason: snap.FailureReason,
	}

	if snap.Result != nil {
		result := NewResultResponse(*snap.Result)
		response.Result = &result
	}

	return response
}

// NewResultResponse converts a validated result into a DTO, preserving the
// rubric's display order.
func NewResultResponse(result rubric.Result) ResultResponse {
	criteria := make([]CriterionResponse, 0, len(rubric.Kinds()))
	for _, kind := range rubric.Kinds() {
		criterion, ok := result.Criterion(kind)
		if !ok {
			continue
		}

		entry := CriterionResponse{
			Kind:       string(kind),
			Points:     criterion.Points,
			MaxPoints:  rubric.MaxPoints(kind),
			ErrorCount: criterion.ErrorCount,
			Consistent: criterion.Consistent(kind),
		}
		if criterion.Disqualifiers != nil {
			entry.Disqualifiers = &DisqualifiersResponse{
				CardinalError:    criterion.Disqualifiers.CardinalError,
				MissingReference: criterion.Disqualifiers.MissingReference,
				OffTopic:         criterion.Disqualifiers.OffTopic,
				NonArgumentative: criterion.Disqualifiers.NonArgumentative,
			}
		}
		criteria = append(criteria, entry)
	}

	errs := result.Errors()
	if errs == nil {
		errs = []string{}
	}
	suggestions := result.Suggestions()
	if suggestions == nil {
		suggestions = []string{}
	}

	return ResultResponse{
		Criteria:      criteria,
		TotalScore:    result.TotalScore(),
		MaxTotalScore: result.MaxTotalScore(),
		Percentage:    result.Percentage(),
		Feedback:      result.Feedback(),
		Errors:        errs,
		Suggestions:   suggestions,
	}
}
