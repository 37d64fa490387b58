package notifications

import (
	"fmt"
	"sort"
	"strings"
)

// Event is a notification-worthy pipeline occurrence. The set is closed;
// each event knows how to present itself to ntfy.
type Event interface {
	title() string
	message() string
	tags() []string
	priority() string
}

// RunStarted fires when a symbol's pipeline run begins.
type RunStarted struct {
	Symbol  string
	Keyword string
	Mode    string
}

func (e RunStarted) title() string { return "secsum - Run Started" }

func (e RunStarted) message() string {
	return fmt.Sprintf("Summarizing %s %s filings (keyword %q)", e.Symbol, e.Mode, e.Keyword)
}

func (e RunStarted) tags() []string   { return []string{"secsum", "run", "started"} }
func (e RunStarted) priority() string { return "" }

// RunCompleted fires when a symbol's run finishes without a fatal error.
type RunCompleted struct {
	Symbol    string
	Artifacts int
}

func (e RunCompleted) title() string { return "secsum - Run Complete" }

func (e RunCompleted) message() string {
	if e.Artifacts == 0 {
		return fmt.Sprintf("%s: no artifacts written", e.Symbol)
	}
	return fmt.Sprintf("✅ %s: %d artifacts written", e.Symbol, e.Artifacts)
}

func (e RunCompleted) tags() []string   { return []string{"secsum", "run", "completed"} }
func (e RunCompleted) priority() string { return "" }

// RunFailed fires when a symbol's run aborts with an error.
type RunFailed struct {
	Symbol string
	Err    error
}

func (e RunFailed) title() string { return "secsum - Run Failed" }

func (e RunFailed) message() string {
	detail := "unknown error"
	if e.Err != nil {
		detail = strings.TrimSpace(e.Err.Error())
	}
	return fmt.Sprintf("❌ %s: %s", e.Symbol, detail)
}

func (e RunFailed) tags() []string   { return []string{"secsum", "error", "alert"} }
func (e RunFailed) priority() string { return "high" }

// PipelineCompleted fires once after every requested symbol has run.
type PipelineCompleted struct {
	Artifacts map[string]int
}

func (e PipelineCompleted) title() string { return "secsum - Pipeline Complete" }

func (e PipelineCompleted) message() string {
	if len(e.Artifacts) == 0 {
		return "No symbols processed"
	}
	symbols := make([]string, 0, len(e.Artifacts))
	for symbol := range e.Artifacts {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	total := 0
	parts := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		count := e.Artifacts[symbol]
		total += count
		parts = append(parts, fmt.Sprintf("%s: %d", symbol, count))
	}
	return fmt.Sprintf("%d artifacts across %d symbols (%s)", total, len(symbols), strings.Join(parts, ", "))
}

func (e PipelineCompleted) tags() []string   { return []string{"secsum", "pipeline", "completed"} }
func (e PipelineCompleted) priority() string { return "" }
