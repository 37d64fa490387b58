package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"secsum/internal/catalog"
	"secsum/internal/config"
	"secsum/internal/filings"
	"secsum/internal/logging"
	"secsum/internal/notifications"
	"secsum/internal/pipeline"
	"secsum/internal/preprocess"
	"secsum/internal/prompt"
	"secsum/internal/services/edgar"
	"secsum/internal/services/embedding"
	"secsum/internal/services/llm"
	"secsum/internal/services/qdrant"
	"secsum/internal/summarize"
	"secsum/internal/vectorindex"
)

const dateLayout = "2006-01-02"

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		symbolsFlag  string
		keywordFlag  string
		modeFlag     string
		startFlag    string
		endFlag      string
		limitFlag    int
		batchFlag    int
		dryRun       bool
		skipDownload bool
		cleanup      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download, summarize, and index filings for the given symbols",
		Long: `Runs the full pipeline for each symbol: download filings from SEC
EDGAR, split them into chunks, keep the chunks matching the keyword,
embed and upsert them into Qdrant, summarize them with the configured
LLM, and write one JSON artifact per document into the output
directory. Symbols are processed independently; one symbol failing
does not stop the others.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := splitSymbols(symbolsFlag)
			if len(symbols) == 0 {
				return errors.New("at least one symbol is required (--symbols AAPL,MSFT)")
			}
			keyword := strings.TrimSpace(keywordFlag)
			if keyword == "" {
				return errors.New("a keyword is required (--keyword revenue)")
			}
			mode, err := filings.ParseMode(modeFlag)
			if err != nil {
				return err
			}
			start, err := parseDateFlag(startFlag)
			if err != nil {
				return err
			}
			end, err := parseDateFlag(endFlag)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, logCloser, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			if logCloser != nil {
				defer logCloser.Close()
			}

			// One run at a time per output directory: concurrent runs
			// would race on artifacts and the download archive.
			lock := flock.New(filepath.Join(cfg.Paths.OutputDir, ".secsum.lock"))
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire run lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another secsum run holds %s", lock.Path())
			}
			defer func() { _ = lock.Unlock() }()

			store, err := catalog.Open(cmd.Context(), cfg.CatalogPath())
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			var downloader pipeline.Downloader
			if !skipDownload {
				if strings.TrimSpace(cfg.Edgar.UserAgentEmail) == "" {
					return errors.New("edgar.user_agent_email is required to download filings (or pass --skip-download)")
				}
				downloader = edgar.NewClient(edgar.Config{
					UserAgentEmail:      cfg.Edgar.UserAgentEmail,
					RequestsPerSecond:   cfg.Edgar.RequestsPerSecond,
					TimeoutSeconds:      cfg.Edgar.TimeoutSeconds,
					DownloadsDir:        cfg.Paths.DownloadsDir,
					MaxFilingsPerSymbol: limitFlag,
				}, edgar.WithLogger(logger), edgar.WithCatalog(store))
			}

			processor, err := preprocess.NewProcessor(preprocess.Config{
				DownloadsDir: cfg.Paths.DownloadsDir,
				ChunkSize:    cfg.Summary.ChunkSize,
				ChunkOverlap: cfg.Summary.ChunkOverlap,
			}, logger)
			if err != nil {
				return err
			}

			tmpl, err := loadPromptTemplate(cfg)
			if err != nil {
				return err
			}
			var llmOpts []llm.Option
			if cfg.Summary.RequireJSON {
				llmOpts = append(llmOpts, llm.WithJSONResponse())
			}
			generator := llm.NewClient(llm.Config{
				APIKey:         cfg.LLM.APIKey,
				BaseURL:        cfg.LLM.BaseURL,
				Model:          cfg.LLM.Model,
				Referer:        cfg.LLM.Referer,
				Title:          cfg.LLM.Title,
				TimeoutSeconds: cfg.LLM.TimeoutSeconds,
			}, llmOpts...)
			stage, err := summarize.New(tmpl, generator, cfg.Summary.RequireJSON, logger)
			if err != nil {
				return err
			}

			embedder := embedding.NewClient(embedding.Config{
				APIKey:         cfg.Embedding.APIKey,
				BaseURL:        cfg.Embedding.BaseURL,
				Model:          cfg.Embedding.Model,
				BatchSize:      cfg.Embedding.BatchSize,
				TimeoutSeconds: cfg.Embedding.TimeoutSeconds,
			})
			vectorStore := qdrant.NewClient(qdrant.Config{
				URL:            cfg.Qdrant.URL,
				APIKey:         cfg.Qdrant.APIKey,
				TimeoutSeconds: cfg.Qdrant.TimeoutSeconds,
			})
			indexer := vectorindex.NewManager(vectorStore, embedder, vectorindex.Options{
				Distance:   cfg.Qdrant.Distance,
				VectorSize: cfg.Qdrant.VectorSize,
				DryRun:     dryRun,
				Logger:     logger,
			})

			recorder := newRunRecorder(notifications.NewService(cfg.Notifications))

			batchSize := cfg.Summary.BatchSize
			if batchFlag > 0 {
				batchSize = batchFlag
			}
			pipe, err := pipeline.New(pipeline.Config{
				Keyword:          keyword,
				Mode:             mode,
				Start:            start,
				End:              end,
				Limit:            limitFlag,
				BatchSize:        batchSize,
				RequireJSON:      cfg.Summary.RequireJSON,
				SkipDownload:     skipDownload,
				OutputDir:        cfg.Paths.OutputDir,
				CollectionPrefix: cfg.Qdrant.CollectionPrefix,
			}, pipeline.Deps{
				Downloader: downloader,
				Preprocess: processor,
				Summarizer: stage,
				Indexer:    indexer,
				Notifier:   recorder,
				Logger:     logger,
			})
			if err != nil {
				return err
			}

			results := pipe.RunAll(cmd.Context(), symbols)

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(symbols))
			totalArtifacts := 0
			for _, symbol := range symbols {
				artifacts := results[symbol]
				totalArtifacts += len(artifacts)

				docs := 0
				if list, listErr := processor.ListDocuments(symbol, mode, limitFlag); listErr == nil {
					docs = len(list)
				}
				status := "ok"
				if _, failed := recorder.failure(symbol); failed {
					status = "failed"
				} else if len(artifacts) == 0 {
					status = "no output"
				}
				rows = append(rows, []string{symbol, strconv.Itoa(docs), strconv.Itoa(len(artifacts)), status})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"Symbol", "Documents", "Artifacts", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))

			if cleanup {
				cleanupDownloads(cfg, symbols, recorder, logger)
			}

			if totalArtifacts == 0 {
				return errors.New("no artifacts were written for any symbol")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&symbolsFlag, "symbols", "", "Comma-separated ticker symbols (required)")
	cmd.Flags().StringVar(&keywordFlag, "keyword", "", "Keyword that selects filing chunks (required)")
	cmd.Flags().StringVar(&modeFlag, "mode", "annual", "Filing mode: annual or quarterly")
	cmd.Flags().StringVar(&startFlag, "start", "", "Earliest filing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endFlag, "end", "", "Latest filing date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum filings per symbol (0 = all)")
	cmd.Flags().IntVar(&batchFlag, "batch-size", 0, "Chunks per summarization window (default from config)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Skip embedding and vector-store writes")
	cmd.Flags().BoolVar(&skipDownload, "skip-download", false, "Summarize already-downloaded filings only")
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "Remove a symbol's downloaded filings after it runs cleanly")

	return cmd
}

// cleanupDownloads removes the download tree of every symbol whose run
// did not fail. Failed symbols keep their filings for a retry.
func cleanupDownloads(cfg *config.Config, symbols []string, recorder *runRecorder, logger *slog.Logger) {
	for _, symbol := range symbols {
		if _, failed := recorder.failure(symbol); failed {
			continue
		}
		dir := filepath.Join(filings.ArchiveRoot(cfg.Paths.DownloadsDir), symbol)
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("cleanup failed",
				logging.String(logging.FieldSymbol, symbol), logging.Error(err))
			continue
		}
		logger.Info("removed downloaded filings",
			logging.String(logging.FieldSymbol, symbol), logging.String("path", dir))
	}
}

// runRecorder forwards pipeline events to the configured notifier while
// remembering which symbols failed, so the summary table can report
// per-symbol status without re-deriving it.
type runRecorder struct {
	inner notifications.Service

	mu       sync.Mutex
	failures map[string]string
}

func newRunRecorder(inner notifications.Service) *runRecorder {
	return &runRecorder{inner: inner, failures: make(map[string]string)}
}

func (r *runRecorder) Publish(ctx context.Context, event notifications.Event) error {
	if failed, ok := event.(notifications.RunFailed); ok {
		message := "unknown error"
		if failed.Err != nil {
			message = failed.Err.Error()
		}
		r.mu.Lock()
		r.failures[failed.Symbol] = message
		r.mu.Unlock()
	}
	return r.inner.Publish(ctx, event)
}

func (r *runRecorder) failure(symbol string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.failures[symbol]
	return message, ok
}

func splitSymbols(raw string) []string {
	seen := make(map[string]struct{})
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		symbol := filings.NormalizeSymbol(part)
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	return symbols
}

func parseDateFlag(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", value)
	}
	return parsed, nil
}

func loadPromptTemplate(cfg *config.Config) (*prompt.Template, error) {
	if path := strings.TrimSpace(cfg.Summary.PromptPath); path != "" {
		return prompt.Load(path)
	}
	return prompt.LoadDefault()
}
