package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"secsum/internal/catalog"
	"secsum/internal/fileutil"
	"secsum/internal/filings"
	"secsum/internal/logging"
	"secsum/internal/services"
	"secsum/internal/version"
)

const (
	defaultFilesBaseURL = "https://www.sec.gov"
	defaultDataBaseURL  = "https://data.sec.gov"

	defaultRequestsPerSecond = 8
	defaultHTTPTimeout       = 30 * time.Second
	rateLimitCooldown        = 10 * time.Second
)

// Config captures the runtime settings for talking to SEC EDGAR.
type Config struct {
	// UserAgentEmail identifies the operator to the SEC, as their fair
	// access policy requires.
	UserAgentEmail    string
	RequestsPerSecond int
	TimeoutSeconds    int
	DownloadsDir      string
	// MaxFilingsPerSymbol caps how many matching filings are fetched per
	// symbol, newest first. Zero means all matches.
	MaxFilingsPerSymbol int
}

// FilingEntry is one filing from a company's submissions feed.
type FilingEntry struct {
	Accession  string
	Form       string
	FilingDate string
	PrimaryDoc string
}

// Client downloads filings from SEC EDGAR under its fair access limits.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	catalog    *catalog.Store

	filesBaseURL string
	dataBaseURL  string

	mu            sync.Mutex
	tickers       map[string]int
	cooldownUntil time.Time
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger sets the logger used for download progress and failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "edgar")
		}
	}
}

// WithCatalog records every downloaded filing in the archive index.
func WithCatalog(store *catalog.Store) Option {
	return func(c *Client) {
		c.catalog = store
	}
}

// WithBaseURLs overrides the www.sec.gov and data.sec.gov hosts (tests).
func WithBaseURLs(filesBase, dataBase string) Option {
	return func(c *Client) {
		c.filesBaseURL = strings.TrimRight(filesBase, "/")
		c.dataBaseURL = strings.TrimRight(dataBase, "/")
	}
}

// NewClient constructs an EDGAR client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	perSecond := cfg.RequestsPerSecond
	if perSecond <= 0 {
		perSecond = defaultRequestsPerSecond
	}
	client := &Client{
		cfg:          cfg,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:       logging.NewNop(),
		filesBaseURL: defaultFilesBaseURL,
		dataBaseURL:  defaultDataBaseURL,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// ResolveCIK maps a ticker symbol to its SEC central index key. The ticker
// table is fetched once per process and cached.
func (c *Client) ResolveCIK(ctx context.Context, symbol string) (int, error) {
	if err := c.ensureTickers(ctx); err != nil {
		return 0, err
	}
	normalized := filings.NormalizeSymbol(symbol)
	c.mu.Lock()
	cik, ok := c.tickers[normalized]
	c.mu.Unlock()
	if !ok {
		return 0, services.Wrap(
			services.ErrNotFound,
			"edgar",
			"resolve_cik",
			fmt.Sprintf("ticker %q not found in company table", normalized),
			nil,
		)
	}
	return cik, nil
}

// Filings lists the company's filings matching the mode's form type, newest
// first, restricted to the inclusive [start, end] filing-date window when
// the bounds are non-zero.
func (c *Client) Filings(ctx context.Context, symbol string, mode filings.Mode, start, end time.Time) ([]FilingEntry, error) {
	cik, err := c.ResolveCIK(ctx, symbol)
	if err != nil {
		return nil, err
	}
	body, err := c.get(ctx, fmt.Sprintf("%s/submissions/CIK%010d.json", c.dataBaseURL, cik))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "edgar", "filings", "fetch submissions", err)
	}

	var decoded struct {
		Filings struct {
			Recent struct {
				AccessionNumber []string `json:"accessionNumber"`
				FilingDate      []string `json:"filingDate"`
				Form            []string `json:"form"`
				PrimaryDocument []string `json:"primaryDocument"`
			} `json:"recent"`
		} `json:"filings"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "edgar", "filings", "decode submissions", err)
	}

	startISO := isoDate(start)
	endISO := isoDate(end)
	recent := decoded.Filings.Recent
	formType := mode.FormType()
	var matches []FilingEntry
	for i, form := range recent.Form {
		if form != formType {
			continue
		}
		entry := FilingEntry{Form: form}
		if i < len(recent.AccessionNumber) {
			entry.Accession = recent.AccessionNumber[i]
		}
		if i < len(recent.FilingDate) {
			entry.FilingDate = recent.FilingDate[i]
		}
		if i < len(recent.PrimaryDocument) {
			entry.PrimaryDoc = recent.PrimaryDocument[i]
		}
		if entry.Accession == "" || entry.PrimaryDoc == "" {
			continue
		}
		// ISO dates compare correctly as strings.
		if startISO != "" && entry.FilingDate < startISO {
			continue
		}
		if endISO != "" && entry.FilingDate > endISO {
			continue
		}
		matches = append(matches, entry)
	}
	if c.cfg.MaxFilingsPerSymbol > 0 && len(matches) > c.cfg.MaxFilingsPerSymbol {
		matches = matches[:c.cfg.MaxFilingsPerSymbol]
	}
	return matches, nil
}

// DownloadFiling fetches one filing's primary document into the archive
// layout, skipping the transfer when the file already exists. The document
// is recorded in the catalog either way.
func (c *Client) DownloadFiling(ctx context.Context, symbol string, mode filings.Mode, entry FilingEntry) (string, error) {
	cik, err := c.ResolveCIK(ctx, symbol)
	if err != nil {
		return "", err
	}
	target := filepath.Join(
		filings.AccessionDir(c.cfg.DownloadsDir, symbol, mode, entry.Accession),
		entry.PrimaryDoc,
	)

	if info, statErr := os.Stat(target); statErr == nil {
		c.logger.Debug("filing already downloaded",
			logging.String(logging.FieldSymbol, filings.NormalizeSymbol(symbol)),
			logging.String(logging.FieldDocument, entry.PrimaryDoc))
		c.recordFiling(ctx, symbol, mode, entry, target, info.Size())
		return target, nil
	}

	accession := strings.ReplaceAll(entry.Accession, "-", "")
	body, err := c.get(ctx, fmt.Sprintf("%s/Archives/edgar/data/%d/%s/%s", c.filesBaseURL, cik, accession, entry.PrimaryDoc))
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "edgar", "download", "fetch document", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create filing directory: %w", err)
	}
	if err := fileutil.WriteAtomic(target, body, 0o644); err != nil {
		return "", fmt.Errorf("write filing: %w", err)
	}
	c.logger.Info("filing downloaded",
		logging.String(logging.FieldSymbol, filings.NormalizeSymbol(symbol)),
		logging.String(logging.FieldDocument, entry.PrimaryDoc),
		logging.String("accession", entry.Accession),
		logging.Int("bytes", len(body)))
	c.recordFiling(ctx, symbol, mode, entry, target, int64(len(body)))
	return target, nil
}

// Download fetches filings for every symbol and reports per-symbol success.
// A failing symbol is logged and marked false; it never aborts the others.
func (c *Client) Download(ctx context.Context, symbols []string, mode filings.Mode, start, end time.Time) map[string]bool {
	results := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		normalized := filings.NormalizeSymbol(symbol)
		results[normalized] = c.downloadSymbol(ctx, normalized, mode, start, end)
	}
	return results
}

func (c *Client) downloadSymbol(ctx context.Context, symbol string, mode filings.Mode, start, end time.Time) bool {
	entries, err := c.Filings(ctx, symbol, mode, start, end)
	if err != nil {
		c.logger.Error("filing listing failed",
			logging.String(logging.FieldSymbol, symbol),
			logging.Error(err))
		return false
	}
	if len(entries) == 0 {
		c.logger.Info("no filings matched",
			logging.String(logging.FieldSymbol, symbol),
			logging.String("form", mode.FormType()))
		return true
	}
	for _, entry := range entries {
		if _, err := c.DownloadFiling(ctx, symbol, mode, entry); err != nil {
			c.logger.Error("filing download failed",
				logging.String(logging.FieldSymbol, symbol),
				logging.String("accession", entry.Accession),
				logging.Error(err))
			return false
		}
	}
	return true
}

func (c *Client) recordFiling(ctx context.Context, symbol string, mode filings.Mode, entry FilingEntry, path string, size int64) {
	if c.catalog == nil {
		return
	}
	err := c.catalog.Record(ctx, catalog.Filing{
		Symbol:     filings.NormalizeSymbol(symbol),
		Form:       mode.FormType(),
		Accession:  entry.Accession,
		FilingDate: entry.FilingDate,
		PrimaryDoc: entry.PrimaryDoc,
		Path:       path,
		SizeBytes:  size,
	})
	if err != nil {
		c.logger.Warn("catalog record failed",
			logging.String(logging.FieldSymbol, symbol),
			logging.String("accession", entry.Accession),
			logging.Error(err))
	}
}

func (c *Client) ensureTickers(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.tickers != nil
	c.mu.Unlock()
	if loaded {
		return nil
	}

	body, err := c.get(ctx, c.filesBaseURL+"/files/company_tickers.json")
	if err != nil {
		return services.Wrap(services.ErrExternalService, "edgar", "tickers", "fetch company table", err)
	}
	var decoded map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return services.Wrap(services.ErrExternalService, "edgar", "tickers", "decode company table", err)
	}
	table := make(map[string]int, len(decoded))
	for _, row := range decoded {
		table[filings.NormalizeSymbol(row.Ticker)] = row.CIK
	}

	c.mu.Lock()
	if c.tickers == nil {
		c.tickers = table
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.waitTurn(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("edgar request: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edgar request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("edgar request: read body: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		cooldown := rateLimitCooldown
		if retryAfter, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
			cooldown = retryAfter
		}
		c.recordRateLimit(cooldown)
		return nil, fmt.Errorf("edgar request: http %d, backing off %s", resp.StatusCode, cooldown)
	default:
		return nil, fmt.Errorf("edgar request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

func (c *Client) waitTurn(ctx context.Context) error {
	c.mu.Lock()
	cooldown := time.Until(c.cooldownUntil)
	c.mu.Unlock()
	if cooldown > 0 {
		timer := time.NewTimer(cooldown)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) recordRateLimit(cooldown time.Duration) {
	if cooldown <= 0 {
		cooldown = rateLimitCooldown
	}
	until := time.Now().Add(cooldown)
	c.mu.Lock()
	if until.After(c.cooldownUntil) {
		c.cooldownUntil = until
	}
	c.mu.Unlock()
}

func (c *Client) userAgent() string {
	email := strings.TrimSpace(c.cfg.UserAgentEmail)
	if email == "" {
		return "secsum/" + version.Version
	}
	return fmt.Sprintf("secsum/%s (%s)", version.Version, email)
}

func isoDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
