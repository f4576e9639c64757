package scorer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skriba-app/skriba-api/internal/rubric"
)

var (
	scorerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "skriba",
		Subsystem: "scorer",
		Name:      "grade_duration_seconds",
		Help:      "Duration of scoring service requests",
	}, []string{"model"})

	scorerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "skriba",
		Subsystem: "scorer",
		Name:      "grade_failures_total",
		Help:      "Number of scoring service failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI scorer.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIScorer implements Scorer against the OpenAI chat completion API.
type OpenAIScorer struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIScorer builds a scorer using the provided configuration.
func NewOpenAIScorer(cfg OpenAIConfig) (*OpenAIScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIScorer{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/skriba-app/skriba-api/internal/scorer"),
		logger: logger.With().Str("component", "openai_scorer").Logger(),
	}, nil
}

// Grade sends the essay to OpenAI and parses the rubric candidate.
func (s *OpenAIScorer) Grade(parent context.Context, text string) (rubric.Candidate, error) {
	ctx, span := s.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", s.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: scorerSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildEssayPrompt(text),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	scorerDuration.WithLabelValues(s.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return rubric.Candidate{}, s.fail(span, fmt.Errorf("openai grade: %w", err))
	}

	if len(resp.Choices) == 0 {
		return rubric.Candidate{}, s.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	candidate, err := decodeScoreCard(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return rubric.Candidate{}, s.fail(span, err)
	}

	s.logger.Debug().Int("total_score", candidate.TotalScore).Msg("essay graded")
	return candidate, nil
}

func (s *OpenAIScorer) fail(span trace.Span, err error) error {
	scorerFailures.WithLabelValues(s.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func scorerSystemPrompt() string {
	builder := strings.Builder{}
	builder.WriteString("You are a strict essay examiner. Grade the essay against the fixed rubric below ")
	builder.WriteString("and respond with a single JSON object matching the documented shape.\n\nCriteria and point ceilings:\n")
	for _, kind := range rubric.Kinds() {
		fmt.Fprintf(&builder, "- %s: 0..%d points\n", kind, rubric.MaxPoints(kind))
	}
	fmt.Fprintf(&builder, "\nThe total_score field must equal the sum of all criterion points (maximum %d). ", rubric.MaxTotal())
	builder.WriteString("Report raw mistake tallies as error_count where the criterion tracks them ")
	builder.WriteString("(literary_competencies, coherence, language, spelling, punctuation). ")
	builder.WriteString("For formal_requirements, set the disqualifiers object ")
	builder.WriteString("(cardinal_error, missing_reference, off_topic, non_argumentative). ")
	builder.WriteString("Provide feedback as prose plus errors and suggestions arrays ordered by priority.")
	return builder.String()
}

func buildEssayPrompt(text string) string {
	builder := strings.Builder{}
	builder.WriteString("# Essay\n\n")
	builder.WriteString(text)
	builder.WriteString("\n\nReturn JSON only.")
	return builder.String()
}
