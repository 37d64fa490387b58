// Package preprocess turns downloaded SEC filing HTML into cleaned,
// fixed-size text chunks ready for summarization and embedding.
package preprocess

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"secsum/internal/filings"
	"secsum/internal/logging"
	"secsum/internal/services"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

// Chunk is one contiguous slice of a filing's extracted text.
type Chunk struct {
	Text   string
	Source string
}

// Config controls document discovery and chunking.
type Config struct {
	DownloadsDir string
	ChunkSize    int
	ChunkOverlap int
}

// Processor discovers downloaded filing documents and converts them to
// text chunks. Methods are pure with respect to the filesystem snapshot.
type Processor struct {
	cfg    Config
	logger *slog.Logger
}

// NewProcessor validates cfg and builds a Processor. Zero chunk settings
// fall back to package defaults.
func NewProcessor(cfg Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(cfg.DownloadsDir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "preprocess", "new", "downloads directory is required", nil)
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.ChunkOverlap == 0 {
		cfg.ChunkOverlap = defaultChunkOverlap
	}
	if cfg.ChunkSize < 0 {
		return nil, services.Wrap(services.ErrConfiguration, "preprocess", "new", "chunk size must be positive", nil)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, services.Wrap(services.ErrConfiguration, "preprocess", "new",
			fmt.Sprintf("chunk overlap %d must be smaller than chunk size %d", cfg.ChunkOverlap, cfg.ChunkSize), nil)
	}
	return &Processor{cfg: cfg, logger: logging.NewComponentLogger(logger, "preprocess")}, nil
}

// ListDocuments returns the HTML documents downloaded for symbol in the
// given mode, newest first by modification time. A limit of 0 means
// unbounded. Returns ErrNotFound when no documents exist.
func (p *Processor) ListDocuments(symbol string, mode filings.Mode, limit int) ([]string, error) {
	base := filings.FormDir(p.cfg.DownloadsDir, symbol, mode)
	if _, err := os.Stat(base); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "preprocess", "list",
			fmt.Sprintf("no filings found for %s in mode %s at %s", filings.NormalizeSymbol(symbol), mode, base), nil)
	}

	type document struct {
		path    string
		modTime time.Time
	}
	var docs []document
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isHTMLDocument(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		docs = append(docs, document{path: path, modTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "preprocess", "list",
			fmt.Sprintf("walking filings for %s", filings.NormalizeSymbol(symbol)), err)
	}
	if len(docs) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "preprocess", "list",
			fmt.Sprintf("no filings found for %s in mode %s at %s", filings.NormalizeSymbol(symbol), mode, base), nil)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].modTime.Equal(docs[j].modTime) {
			return docs[i].path < docs[j].path
		}
		return docs[i].modTime.After(docs[j].modTime)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}

	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		paths = append(paths, doc.path)
	}
	p.logger.Debug("documents listed",
		logging.String(logging.FieldSymbol, filings.NormalizeSymbol(symbol)),
		logging.String("mode", mode.String()),
		logging.Int("count", len(paths)))
	return paths, nil
}

// Chunk reads the document at path, strips markup, and splits the text
// into fixed-size character windows with the configured overlap. Returns
// ErrNotFound when the file is missing.
func (p *Processor) Chunk(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "preprocess", "chunk",
				fmt.Sprintf("file not found: %s", path), nil)
		}
		return nil, services.Wrap(services.ErrValidation, "preprocess", "chunk",
			fmt.Sprintf("reading %s", path), err)
	}

	text, err := extractText(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "preprocess", "chunk",
			fmt.Sprintf("parsing %s", filepath.Base(path)), err)
	}

	source := filepath.Base(path)
	pieces := splitText(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
	chunks := make([]Chunk, 0, len(pieces))
	for _, piece := range pieces {
		chunks = append(chunks, Chunk{Text: piece, Source: source})
	}
	p.logger.Debug("document chunked",
		logging.String(logging.FieldDocument, source),
		logging.Int("chunks", len(chunks)))
	return chunks, nil
}

func isHTMLDocument(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".htm") || strings.HasSuffix(lower, ".html")
}

// extractText parses HTML and returns the visible text with whitespace
// collapsed to single spaces.
func extractText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, head").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// splitText cuts text into windows of at most size characters, each window
// starting overlap characters before the previous one ended. Empty input
// yields no chunks.
func splitText(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}
	var pieces []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		pieces = append(pieces, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return pieces
}
