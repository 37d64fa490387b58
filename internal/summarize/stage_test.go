package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"secsum/internal/prompt"
	"secsum/internal/services"
	"secsum/internal/summary"
)

type fakeGenerator struct {
	responses []string
	errAt     int // 1-based call index that fails, 0 = never
	calls     int
	prompts   []string
}

func (g *fakeGenerator) Generate(_ context.Context, rendered string) (string, error) {
	g.calls++
	g.prompts = append(g.prompts, rendered)
	if g.errAt != 0 && g.calls == g.errAt {
		return "", services.Wrap(services.ErrExternalService, "llm", "generate", "connection reset", nil)
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	resp := g.responses[0]
	if len(g.responses) > 1 {
		g.responses = g.responses[1:]
	}
	return resp, nil
}

func defaultTemplate(t *testing.T) *prompt.Template {
	t.Helper()
	tmpl, err := prompt.LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault returned error: %v", err)
	}
	return tmpl
}

func TestInvokeRendersPromptAndValidates(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"summary":"Revenue up","points":["X"],"confidence":0.9}`}}
	stage, err := New(defaultTemplate(t), gen, true, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	out, err := stage.Invoke(context.Background(), Input{
		Symbol:     "AAPL",
		Chunk:      "Revenue grew to $94.9B.",
		SearchTerm: "revenue",
	})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out.Status != summary.StatusOK {
		t.Fatalf("status = %q, want ok", out.Status)
	}
	if out.Summary.Summary == nil || *out.Summary.Summary != "Revenue up" {
		t.Fatalf("summary = %v, want Revenue up", out.Summary.Summary)
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	for _, fragment := range []string{"AAPL", "Revenue grew to $94.9B.", `"revenue"`} {
		if !strings.Contains(gen.prompts[0], fragment) {
			t.Fatalf("rendered prompt missing %q:\n%s", fragment, gen.prompts[0])
		}
	}
}

func TestInvokeWrapsInvalidJSONAsErrorPayload(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"the model rambled instead"}}
	stage, err := New(defaultTemplate(t), gen, true, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	out, err := stage.Invoke(context.Background(), Input{Symbol: "AAPL", Chunk: "text", SearchTerm: "revenue"})
	if err != nil {
		t.Fatalf("validation failure must not surface as a Go error, got %v", err)
	}
	if out.Status != summary.StatusError {
		t.Fatalf("status = %q, want error", out.Status)
	}
	if out.Summary.Error == nil || *out.Summary.Error != "JSON parse failed" {
		t.Fatalf("error = %v, want JSON parse failed", out.Summary.Error)
	}
	if out.Summary.RawOutput == nil || *out.Summary.RawOutput != "the model rambled instead" {
		t.Fatalf("raw_output = %v, want original response", out.Summary.RawOutput)
	}
}

func TestInvokeRawModeWrapsVerbatim(t *testing.T) {
	raw := "  Plain prose summary.\n"
	gen := &fakeGenerator{responses: []string{raw}}
	stage, err := New(defaultTemplate(t), gen, false, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	out, err := stage.Invoke(context.Background(), Input{Symbol: "AAPL", Chunk: "text", SearchTerm: "revenue"})
	if err != nil {
		t.Fatalf("Invoke returned error: %v", err)
	}
	if out.Status != summary.StatusOK {
		t.Fatalf("status = %q, want ok", out.Status)
	}
	if out.Summary.Summary == nil || *out.Summary.Summary != raw {
		t.Fatalf("summary = %q, want verbatim %q", *out.Summary.Summary, raw)
	}
}

func TestInvokePropagatesTransportError(t *testing.T) {
	gen := &fakeGenerator{errAt: 1}
	stage, err := New(defaultTemplate(t), gen, true, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = stage.Invoke(context.Background(), Input{Symbol: "AAPL", Chunk: "text", SearchTerm: "revenue"})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("Invoke = %v, want ErrExternalService", err)
	}
}

func TestBatchPreservesOrder(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"summary":"first"}`,
		`{"summary":"second"}`,
		`{"summary":"third"}`,
	}}
	stage, err := New(defaultTemplate(t), gen, true, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	inputs := []Input{
		{Symbol: "AAPL", Chunk: "one", SearchTerm: "revenue"},
		{Symbol: "AAPL", Chunk: "two", SearchTerm: "revenue"},
		{Symbol: "AAPL", Chunk: "three", SearchTerm: "revenue"},
	}
	outputs, err := stage.Batch(context.Background(), inputs)
	if err != nil {
		t.Fatalf("Batch returned error: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(outputs) != len(want) {
		t.Fatalf("Batch returned %d outputs, want %d", len(outputs), len(want))
	}
	for i, w := range want {
		if outputs[i].Summary.Summary == nil || *outputs[i].Summary.Summary != w {
			t.Fatalf("outputs[%d].summary = %v, want %q", i, outputs[i].Summary.Summary, w)
		}
	}
}

func TestBatchAbortsOnFirstTransportError(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`{"summary":"first"}`}, errAt: 2}
	stage, err := New(defaultTemplate(t), gen, true, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	inputs := []Input{
		{Symbol: "AAPL", Chunk: "one", SearchTerm: "revenue"},
		{Symbol: "AAPL", Chunk: "two", SearchTerm: "revenue"},
		{Symbol: "AAPL", Chunk: "three", SearchTerm: "revenue"},
	}
	outputs, err := stage.Batch(context.Background(), inputs)
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("Batch = %v, want ErrExternalService", err)
	}
	if outputs != nil {
		t.Fatalf("Batch returned partial outputs %v alongside an error", outputs)
	}
	if gen.calls != 2 {
		t.Fatalf("generator called %d times, want 2 (abort after failure)", gen.calls)
	}
}

func TestBatchMixesValidationOutcomes(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"summary":"good"}`,
		`broken output`,
		`{"summary":"also good"}`,
	}}
	stage, err := New(defaultTemplate(t), gen, true, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	outputs, err := stage.Batch(context.Background(), []Input{
		{Symbol: "AAPL", Chunk: "one", SearchTerm: "revenue"},
		{Symbol: "AAPL", Chunk: "two", SearchTerm: "revenue"},
		{Symbol: "AAPL", Chunk: "three", SearchTerm: "revenue"},
	})
	if err != nil {
		t.Fatalf("Batch returned error: %v", err)
	}
	if outputs[0].Status != summary.StatusOK || outputs[2].Status != summary.StatusOK {
		t.Fatalf("sibling outputs affected by validation failure: %+v", outputs)
	}
	if outputs[1].Status != summary.StatusError {
		t.Fatalf("outputs[1].Status = %q, want error", outputs[1].Status)
	}
}

func TestNewRejectsTemplateWithUnknownVariables(t *testing.T) {
	tmpl := &prompt.Template{
		Name:           "custom",
		InputVariables: []string{"chunk", "ticker"},
		Text:           "Summarize {chunk} for {ticker}",
	}
	_, err := New(tmpl, &fakeGenerator{}, true, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("New = %v, want ErrConfiguration", err)
	}
}

func TestNewRejectsNilCollaborators(t *testing.T) {
	if _, err := New(nil, &fakeGenerator{}, true, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("New(nil template) = %v, want ErrConfiguration", err)
	}
	if _, err := New(defaultTemplate(t), nil, true, nil); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("New(nil generator) = %v, want ErrConfiguration", err)
	}
}
