// Package pipeline orchestrates the per-symbol flow: retrieve filings,
// chunk and filter documents, provision the vector collection, upsert
// matched chunks, summarize in windows, and persist artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"secsum/internal/filings"
	"secsum/internal/logging"
	"secsum/internal/notifications"
	"secsum/internal/preprocess"
	"secsum/internal/services"
	"secsum/internal/summarize"
	"secsum/internal/summary"
	"secsum/internal/vectorindex"
)

const defaultBatchSize = 5

// Downloader retrieves filings into the local archive. Per-symbol
// failures surface in the result map, never as an error.
type Downloader interface {
	Download(ctx context.Context, symbols []string, mode filings.Mode,
		start, end time.Time) map[string]bool
}

// Preprocessor enumerates downloaded documents and splits them into
// chunks.
type Preprocessor interface {
	ListDocuments(symbol string, mode filings.Mode, limit int) ([]string, error)
	Chunk(path string) ([]preprocess.Chunk, error)
}

// Summarizer turns a window of inputs into validated outputs.
type Summarizer interface {
	Batch(ctx context.Context, inputs []summarize.Input) ([]summary.Output, error)
}

// Indexer provisions vector collections and writes embedded chunks.
type Indexer interface {
	EnsureCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, texts []string,
		metadata map[string]any, ids []string) ([]string, error)
}

// Config captures one pipeline invocation, validated once at New.
type Config struct {
	Keyword          string
	Mode             filings.Mode
	Start            time.Time
	End              time.Time
	Limit            int // max documents per symbol, 0 = unbounded
	BatchSize        int // summarization window size
	RequireJSON      bool
	SkipDownload     bool
	OutputDir        string
	CollectionPrefix string
}

// Deps are the injected collaborators. Downloader may be nil when
// SkipDownload is set; Notifier and Logger are optional.
type Deps struct {
	Downloader Downloader
	Preprocess Preprocessor
	Summarizer Summarizer
	Indexer    Indexer
	Notifier   notifications.Service
	Logger     *slog.Logger
}

// Pipeline runs the summarization flow for one or more symbols.
type Pipeline struct {
	cfg        Config
	downloader Downloader
	pre        Preprocessor
	summarizer Summarizer
	indexer    Indexer
	notifier   notifications.Service
	logger     *slog.Logger
}

// New validates cfg and deps and builds a Pipeline.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	cfg.Keyword = strings.ToLower(strings.TrimSpace(cfg.Keyword))
	if cfg.Keyword == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "keyword is required", nil)
	}
	if cfg.Mode == "" {
		cfg.Mode = filings.ModeAnnual
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "output directory is required", nil)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Limit < 0 {
		cfg.Limit = 0
	}
	if deps.Preprocess == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "preprocessor is required", nil)
	}
	if deps.Summarizer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "summarizer is required", nil)
	}
	if deps.Indexer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "indexer is required", nil)
	}
	if !cfg.SkipDownload && deps.Downloader == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new",
			"downloader is required unless downloads are skipped", nil)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		downloader: deps.Downloader,
		pre:        deps.Preprocess,
		summarizer: deps.Summarizer,
		indexer:    deps.Indexer,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run processes one symbol end to end and returns the artifact paths it
// wrote. Missing filings and per-document failures end quietly; only
// validation and collection provisioning surface as errors.
func (p *Pipeline) Run(ctx context.Context, symbol string) ([]string, error) {
	symbol = filings.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "symbol is required", nil)
	}
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	ctx = services.WithSymbol(ctx, symbol)

	if !p.cfg.SkipDownload {
		retrieveCtx := services.WithStage(ctx, "retrieve")
		results := p.downloader.Download(retrieveCtx, []string{symbol}, p.cfg.Mode, p.cfg.Start, p.cfg.End)
		if !results[symbol] {
			logging.WithContext(retrieveCtx, p.logger).Warn("filing retrieval failed, skipping symbol")
			return nil, nil
		}
	}

	enumerateCtx := services.WithStage(ctx, "enumerate")
	docs, err := p.pre.ListDocuments(symbol, p.cfg.Mode, p.cfg.Limit)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logging.WithContext(enumerateCtx, p.logger).Info("no filings on disk, skipping symbol")
			return nil, nil
		}
		return nil, fmt.Errorf("enumerate documents for %s: %w", symbol, err)
	}
	if len(docs) == 0 {
		logging.WithContext(enumerateCtx, p.logger).Info("no filings on disk, skipping symbol")
		return nil, nil
	}

	provisionCtx := services.WithStage(ctx, "provision")
	collection := vectorindex.CollectionName(p.cfg.CollectionPrefix, symbol, p.cfg.Keyword)
	if err := p.indexer.EnsureCollection(provisionCtx, collection); err != nil {
		return nil, fmt.Errorf("provision collection %q: %w", collection, err)
	}

	processCtx := services.WithStage(ctx, "process")
	logger := logging.WithContext(processCtx, p.logger).With(
		logging.String(logging.FieldCollection, collection))

	var artifacts []string
	for _, path := range docs {
		written, ok := p.processDocument(processCtx, logger, symbol, collection, path)
		if ok {
			artifacts = append(artifacts, written)
		}
	}
	return artifacts, nil
}

// processDocument handles one document in isolation: any failure is
// logged and skips only this document.
func (p *Pipeline) processDocument(ctx context.Context, logger *slog.Logger, symbol, collection, path string) (string, bool) {
	docName := documentName(path)
	docLogger := logger.With(logging.String(logging.FieldDocument, docName))

	chunks, err := p.pre.Chunk(path)
	if err != nil {
		docLogger.Error("chunking failed, skipping document", logging.Error(err))
		return "", false
	}

	matched := matchChunks(chunks, p.cfg.Keyword)
	if len(matched) == 0 {
		docLogger.Warn("no chunks matched keyword, skipping document",
			logging.String(logging.FieldKeyword, p.cfg.Keyword))
		return "", false
	}

	texts := make([]string, len(matched))
	for i, chunk := range matched {
		texts[i] = chunk.Text
	}
	metadata := map[string]any{
		"document": docName,
		"symbol":   symbol,
		"keyword":  p.cfg.Keyword,
	}
	if _, err := p.indexer.Upsert(ctx, collection, texts, metadata, nil); err != nil {
		docLogger.Error("vector upsert failed, skipping document", logging.Error(err))
		return "", false
	}

	docLogger.Info("summarizing matched chunks", logging.Int("chunks", len(texts)))

	inputs := make([]summarize.Input, len(texts))
	for i, text := range texts {
		inputs[i] = summarize.Input{Symbol: symbol, Chunk: text, SearchTerm: p.cfg.Keyword}
	}

	outputs := make([]summary.Output, 0, len(inputs))
	for start := 0; start < len(inputs); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(inputs))
		window := inputs[start:end]
		results, err := p.summarizer.Batch(ctx, window)
		if err != nil {
			docLogger.Error("summarization window failed, substituting error payloads",
				logging.Error(err), logging.Int("window_start", start), logging.Int("window_size", len(window)))
			msg := fmt.Sprintf("Exception: %T: %v", err, err)
			for range window {
				outputs = append(outputs, summary.Wrap(summary.ErrorPayload(msg, "")))
			}
			continue
		}
		outputs = append(outputs, results...)
	}

	artifactPath, err := p.writeArtifact(symbol, collection, docName, outputs)
	if err != nil {
		docLogger.Error("artifact write failed, skipping document", logging.Error(err))
		return "", false
	}
	docLogger.Info("artifact written", logging.String("path", artifactPath))
	return artifactPath, true
}

// RunAll processes symbols in order, isolating failures per symbol and
// publishing lifecycle notifications. Every requested symbol has an
// entry in the result; failed symbols map to an empty slice.
func (p *Pipeline) RunAll(ctx context.Context, symbols []string) map[string][]string {
	results := make(map[string][]string, len(symbols))
	counts := make(map[string]int, len(symbols))

	for _, raw := range symbols {
		symbol := filings.NormalizeSymbol(raw)
		if symbol == "" {
			continue
		}
		runCtx := services.WithRunID(ctx, uuid.NewString())
		logger := logging.WithContext(services.WithSymbol(runCtx, symbol), p.logger)

		p.publish(runCtx, notifications.RunStarted{
			Symbol:  symbol,
			Keyword: p.cfg.Keyword,
			Mode:    p.cfg.Mode.String(),
		})

		artifacts, err := p.Run(runCtx, symbol)
		if err != nil {
			logger.Error("symbol run failed", logging.Error(err))
			p.publish(runCtx, notifications.RunFailed{Symbol: symbol, Err: err})
			results[symbol] = []string{}
			counts[symbol] = 0
			continue
		}
		results[symbol] = artifacts
		counts[symbol] = len(artifacts)
		p.publish(runCtx, notifications.RunCompleted{Symbol: symbol, Artifacts: len(artifacts)})
	}

	p.publish(ctx, notifications.PipelineCompleted{Artifacts: counts})
	return results
}

func (p *Pipeline) publish(ctx context.Context, event notifications.Event) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(ctx, event); err != nil {
		logging.WithContext(ctx, p.logger).Debug("notification failed", logging.Error(err))
	}
}

func matchChunks(chunks []preprocess.Chunk, keyword string) []preprocess.Chunk {
	matched := make([]preprocess.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if strings.Contains(strings.ToLower(chunk.Text), keyword) {
			matched = append(matched, chunk)
		}
	}
	return matched
}
