// Package summarize runs the prompt -> model -> validation stage over
// filing chunks.
package summarize

import (
	"context"
	"log/slog"

	"secsum/internal/logging"
	"secsum/internal/prompt"
	"secsum/internal/services"
	"secsum/internal/summary"
)

// Generator is the inference collaborator. The real implementation is
// the chat-completions client; tests use local fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Input carries one chunk through the stage.
type Input struct {
	Symbol     string
	Chunk      string
	SearchTerm string
}

// Stage renders the template for each input, calls the model, and wraps
// the response as a validated output. Transport errors propagate;
// validator outcomes are in-band payloads.
type Stage struct {
	tmpl        *prompt.Template
	model       Generator
	requireJSON bool
	logger      *slog.Logger
}

// New validates the collaborators and probes the template once so an
// unrenderable template fails at construction, not mid-run.
func New(tmpl *prompt.Template, model Generator, requireJSON bool, logger *slog.Logger) (*Stage, error) {
	if tmpl == nil {
		return nil, services.Wrap(services.ErrConfiguration, "summarize", "new", "prompt template is required", nil)
	}
	if model == nil {
		return nil, services.Wrap(services.ErrConfiguration, "summarize", "new", "generator is required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if _, err := tmpl.Render(map[string]string{"symbol": "", "chunk": "", "search_term": ""}); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "summarize", "new",
			"template uses variables beyond symbol, chunk, search_term", err)
	}
	return &Stage{
		tmpl:        tmpl,
		model:       model,
		requireJSON: requireJSON,
		logger:      logging.NewComponentLogger(logger, "summarize"),
	}, nil
}

// Invoke summarizes a single chunk. A malformed model response becomes an
// error payload, never a Go error.
func (s *Stage) Invoke(ctx context.Context, in Input) (summary.Output, error) {
	rendered, err := s.tmpl.Render(map[string]string{
		"symbol":      in.Symbol,
		"chunk":       in.Chunk,
		"search_term": in.SearchTerm,
	})
	if err != nil {
		return summary.Output{}, err
	}

	raw, err := s.model.Generate(ctx, rendered)
	if err != nil {
		return summary.Output{}, err
	}

	var payload summary.Payload
	if s.requireJSON {
		payload = summary.Validate(raw)
		if payload.Failed() {
			s.logger.Debug("model response failed validation",
				logging.String(logging.FieldSymbol, in.Symbol),
				logging.String("reason", *payload.Error))
		}
	} else {
		payload = summary.Payload{Summary: &raw}
	}
	return summary.Wrap(payload), nil
}

// Batch invokes the stage per input in order. The first transport error
// aborts and propagates; validation failures never do.
func (s *Stage) Batch(ctx context.Context, inputs []Input) ([]summary.Output, error) {
	outputs := make([]summary.Output, 0, len(inputs))
	for _, in := range inputs {
		out, err := s.Invoke(ctx, in)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
