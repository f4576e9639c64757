package rubric

import (
	"fmt"
	"strings"
)

// ValidationError reports every contract violation found in a scorer
// response. It is kept distinct from transport failures so callers can log
// the scorer returning garbage differently from the scorer being down.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid rubric result: %s", strings.Join(e.Reasons, "; "))
}

// Validate checks a candidate against the rubric contract and returns the
// immutable result. This is the only way a Result can be constructed:
// criteria must contain exactly the eight kinds, every criterion's points
// must sit inside its per-kind bounds, error counts must be non-negative and
// the reported total must equal the sum of points.
func Validate(candidate Candidate) (Result, error) {
	var reasons []string

	for kind := range candidate.Criteria {
		if _, known := maxPointsByKind[kind]; !known {
			reasons = append(reasons, fmt.Sprintf("unknown criterion %q", kind))
		}
	}

	sum := 0
	for _, kind := range kindOrder {
		criterion, ok := candidate.Criteria[kind]
		if !ok {
			reasons = append(reasons, fmt.Sprintf("missing criterion %q", kind))
			continue
		}

		max := maxPointsByKind[kind]
		if criterion.Points < 0 || criterion.Points > max {
			reasons = append(reasons, fmt.Sprintf("%s points %d outside [0,%d]", kind, criterion.Points, max))
		}
		if criterion.ErrorCount != nil && *criterion.ErrorCount < 0 {
			reasons = append(reasons, fmt.Sprintf("%s error count %d is negative", kind, *criterion.ErrorCount))
		}

		sum += criterion.Points
	}

	if len(reasons) == 0 && candidate.TotalScore != sum {
		reasons = append(reasons, fmt.Sprintf("total score %d does not match criteria sum %d", candidate.TotalScore, sum))
	}

	if len(reasons) > 0 {
		return Result{}, &ValidationError{Reasons: reasons}
	}

	criteria := make(map[Kind]Criterion, len(kindOrder))
	for _, kind := range kindOrder {
		criterion := candidate.Criteria[kind]
		if criterion.ErrorCount != nil {
			count := *criterion.ErrorCount
			criterion.ErrorCount = &count
		}
		if criterion.Disqualifiers != nil {
			flags := *criterion.Disqualifiers
			criterion.Disqualifiers = &flags
		}
		criteria[kind] = criterion
	}

	return Result{
		criteria:    criteria,
		totalScore:  candidate.TotalScore,
		feedback:    candidate.Feedback,
		errors:      append([]string(nil), candidate.Errors...),
		suggestions: append([]string(nil), candidate.Suggestions...),
	}, nil
}
