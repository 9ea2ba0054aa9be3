package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"omnicalc/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-3-flash-preview"
	DefaultTemperature = 0.1
)

const promptTemplate = `Calculate this or answer this math question: "%s".
Return ONLY the numerical result or a very brief explanation if it's a word problem.
Keep it professional and precise.`

var tracer = otel.Tracer("solver")

// ErrMissingAPIKey is returned by NewGemini when no key is configured.
var ErrMissingAPIKey = errors.New("gemini api key is not set")

// contentGenerator is the slice of *genai.Models the solver needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOptions configures a Gemini solver.
type GeminiOptions struct {
	APIKey      string
	Model       string
	Temperature float32
	// Timeout bounds each call; zero means no bound.
	Timeout time.Duration
}

// Gemini solves queries with the Gemini API.
type Gemini struct {
	models      contentGenerator
	model       string
	temperature float32
	timeout     time.Duration
}

func NewGemini(ctx context.Context, opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return newGemini(client.Models, opts), nil
}

func newGemini(models contentGenerator, opts GeminiOptions) *Gemini {
	g := &Gemini{
		models:      models,
		model:       opts.Model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
	}
	if g.model == "" {
		g.model = DefaultModel
	}
	return g
}

// Solve asks the model for an answer. Transport, authentication and
// response failures all collapse into FailureMessage.
func (g *Gemini) Solve(ctx context.Context, query string) string {
	ctx, span := tracer.Start(ctx, "solver.gemini.generate",
		trace.WithAttributes(
			attribute.String("solver.model", g.model),
			attribute.Int("solver.query_length", len(query)),
		),
	)
	defer span.End()

	logger := observability.LoggerWithTrace(ctx)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(promptTemplate, query)),
		&genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)},
	)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		logger.Error("ai math request failed",
			zap.String("model", g.model),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return FailureMessage
	}

	var text string
	if resp != nil {
		text = resp.Text()
	}
	if text == "" {
		span.SetAttributes(attribute.Bool("solver.empty_response", true))
		logger.Warn("ai math request returned no text",
			zap.String("model", g.model),
			zap.Duration("duration", elapsed),
		)
		return NoResultMessage
	}

	span.SetStatus(codes.Ok, "")
	logger.Debug("ai math request completed",
		zap.String("model", g.model),
		zap.Duration("duration", elapsed),
	)
	return text
}
