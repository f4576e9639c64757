// Package rubric defines the fixed eight-criterion scoring scheme and the
// validation gate every scorer response must pass before it reaches a session.
package rubric

// Kind identifies one scored dimension of an essay.
type Kind string

const (
	KindFormalRequirements   Kind = "formal_requirements"
	KindLiteraryCompetencies Kind = "literary_competencies"
	KindStructure            Kind = "structure"
	KindCoherence            Kind = "coherence"
	KindStyle                Kind = "style"
	KindLanguage             Kind = "language"
	KindSpelling             Kind = "spelling"
	KindPunctuation          Kind = "punctuation"
)

// kindOrder fixes the display order of criteria. Ordering is significant for
// presenters; maps alone would shuffle it.
var kindOrder = []Kind{
	KindFormalRequirements,
	KindLiteraryCompetencies,
	KindStructure,
	KindCoherence,
	KindStyle,
	KindLanguage,
	KindSpelling,
	KindPunctuation,
}

var maxPointsByKind = map[Kind]int{
	KindFormalRequirements:   1,
	KindLiteraryCompetencies: 16,
	KindStructure:            3,
	KindCoherence:            3,
	KindStyle:                1,
	KindLanguage:             7,
	KindSpelling:             2,
	KindPunctuation:          2,
}

// Kinds returns the eight criterion kinds in display order.
func Kinds() []Kind {
	out := make([]Kind, len(kindOrder))
	copy(out, kindOrder)
	return out
}

// MaxPoints returns the point ceiling for the given kind, or 0 for unknown kinds.
func MaxPoints(kind Kind) int {
	return maxPointsByKind[kind]
}

// MaxTotal is the sum of all per-kind ceilings. Computed from the table so a
// rubric revision cannot leave the total behind.
func MaxTotal() int {
	total := 0
	for _, max := range maxPointsByKind {
		total += max
	}
	return total
}

// Disqualifiers are the four independent reasons a submission can forfeit the
// formal requirements point.
type Disqualifiers struct {
	CardinalError    bool `json:"cardinal_error"`
	MissingReference bool `json:"missing_reference"`
	OffTopic         bool `json:"off_topic"`
	NonArgumentative bool `json:"non_argumentative"`
}

// Any reports whether at least one disqualifying reason is asserted.
func (d Disqualifiers) Any() bool {
	return d.CardinalError || d.MissingReference || d.OffTopic || d.NonArgumentative
}

// Criterion holds the scorer's verdict for a single dimension. ErrorCount is
// a raw mistake tally reported independently of Points; the scorer may cap
// points regardless of the count, so the two are never cross-checked here.
type Criterion struct {
	Points        int            `json:"points"`
	ErrorCount    *int           `json:"error_count,omitempty"`
	Disqualifiers *Disqualifiers `json:"disqualifiers,omitempty"`
}

// Consistent reports whether a full-points formal requirements criterion
// still carries a disqualifying reason. This is a display expectation only;
// Validate deliberately does not reject such results.
func (c Criterion) Consistent(kind Kind) bool {
	if kind != KindFormalRequirements || c.Disqualifiers == nil {
		return true
	}
	return !(c.Points == MaxPoints(kind) && c.Disqualifiers.Any())
}

// Candidate is a scorer response before validation. It carries the JSON shape
// the scoring service produces and makes no promises about consistency.
type Candidate struct {
	Criteria    map[Kind]Criterion `json:"criteria"`
	TotalScore  int                `json:"total_score"`
	Feedback    string             `json:"feedback"`
	Errors      []string           `json:"errors,omitempty"`
	Suggestions []string           `json:"suggestions,omitempty"`
}

// Result is a validated scoring outcome. Construction only happens through
// Validate, so holders can rely on its invariants.
type Result struct {
	criteria    map[Kind]Criterion
	totalScore  int
	feedback    string
	errors      []string
	suggestions []string
}

// Criterion returns the scored criterion for a kind.
func (r Result) Criterion(kind Kind) (Criterion, bool) {
	c, ok := r.criteria[kind]
	return c, ok
}

// TotalScore returns the summed points across all criteria.
func (r Result) TotalScore() int { return r.totalScore }

// MaxTotalScore returns the rubric-wide point ceiling.
func (r Result) MaxTotalScore() int { return MaxTotal() }

// Feedback returns the free-text commentary.
func (r Result) Feedback() string { return r.feedback }

// Errors returns the itemized remarks in priority order.
func (r Result) Errors() []string {
	return append([]string(nil), r.errors...)
}

// Suggestions returns the improvement remarks in priority order.
func (r Result) Suggestions() []string {
	return append([]string(nil), r.suggestions...)
}

// Percentage returns the score as a rounded percentage, half values rounding up.
func (r Result) Percentage() int {
	max := MaxTotal()
	return (200*r.totalScore + max) / (2 * max)
}
