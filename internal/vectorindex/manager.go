package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"secsum/internal/logging"
	"secsum/internal/services"
	"secsum/internal/textutil"
)

// Store is the vector-store surface the manager drives.
type Store interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	CreateCollection(ctx context.Context, name string, dim int, distance string) error
	Upsert(ctx context.Context, name string, points []Point) error
}

// Embedder turns chunk texts into vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ProbeDimension(ctx context.Context) (int, error)
}

// Point is a single vector-store record.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Options tune manager behavior.
type Options struct {
	// Distance is the config-form metric name (cosine, euclid, dot).
	Distance string
	// VectorSize pins the collection width; zero means probe the embedder.
	VectorSize int
	// DryRun suppresses every remote call.
	DryRun bool
	Logger *slog.Logger
}

// Manager provisions collections idempotently and upserts embedded texts.
type Manager struct {
	store    Store
	embedder Embedder
	opts     Options
	logger   *slog.Logger

	mu          sync.Mutex
	dimension   int
	provisioned map[string]struct{}
}

// NewManager constructs a manager over the supplied store and embedder.
func NewManager(store Store, embedder Embedder, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if strings.TrimSpace(opts.Distance) == "" {
		opts.Distance = "cosine"
	}
	return &Manager{
		store:       store,
		embedder:    embedder,
		opts:        opts,
		logger:      logging.NewComponentLogger(logger, "vectorindex"),
		provisioned: make(map[string]struct{}),
	}
}

// CollectionName derives the deterministic collection for a symbol and
// keyword: an optional prefix joined with an underscore, then the slug of
// "<symbol>-<keyword>". Case-insensitive in both inputs.
func CollectionName(prefix, symbol, keyword string) string {
	slug := textutil.Slugify(symbol + "-" + keyword)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return slug
	}
	return prefix + "_" + slug
}

// EnsureCollection makes sure the named collection exists, creating it with
// the resolved dimension and configured distance when missing. Each name is
// provisioned at most once per manager instance; concurrent callers for the
// same name serialize here.
func (m *Manager) EnsureCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, done := m.provisioned[name]; done {
		return nil
	}
	if m.opts.DryRun {
		m.logger.Debug("dry-run: skipping collection provisioning",
			logging.String(logging.FieldCollection, name))
		m.provisioned[name] = struct{}{}
		return nil
	}

	exists, err := m.store.CollectionExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		m.logger.Debug("collection exists, reusing",
			logging.String(logging.FieldCollection, name))
		m.provisioned[name] = struct{}{}
		return nil
	}

	dim, err := m.resolveDimensionLocked(ctx)
	if err != nil {
		return err
	}
	if err := m.store.CreateCollection(ctx, name, dim, m.opts.Distance); err != nil {
		return err
	}
	m.logger.Info("collection created",
		logging.String(logging.FieldCollection, name),
		logging.Int("dimension", dim),
		logging.String("distance", m.opts.Distance))
	m.provisioned[name] = struct{}{}
	return nil
}

// Dimension returns the resolved vector width, or zero when no collection
// has been provisioned yet and no size is configured.
func (m *Manager) Dimension() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dimension > 0 {
		return m.dimension
	}
	return m.opts.VectorSize
}

func (m *Manager) resolveDimensionLocked(ctx context.Context) (int, error) {
	if m.dimension > 0 {
		return m.dimension, nil
	}
	if m.opts.VectorSize > 0 {
		m.dimension = m.opts.VectorSize
		return m.dimension, nil
	}
	dim, err := m.embedder.ProbeDimension(ctx)
	if err != nil {
		return 0, err
	}
	if dim <= 0 {
		return 0, services.Wrap(
			services.ErrConfiguration,
			"vectorindex",
			"ensure_collection",
			"cannot determine vector dimension: probe returned zero width and no vector_size configured",
			nil,
		)
	}
	m.dimension = dim
	return dim, nil
}

// Upsert embeds texts and writes them into the collection as one batch.
// The returned ids align with texts; supplied ids are used as-is, otherwise
// a fresh UUID is minted per text. Empty input returns an empty id list
// without touching the embedder or the store.
func (m *Manager) Upsert(ctx context.Context, collection string, texts []string, metadata map[string]any, ids []string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	if len(ids) > 0 && len(ids) != len(texts) {
		return nil, services.Wrap(
			services.ErrValidation,
			"vectorindex",
			"upsert",
			fmt.Sprintf("id count %d does not match text count %d", len(ids), len(texts)),
			nil,
		)
	}
	if len(ids) == 0 {
		ids = make([]string, len(texts))
		for i := range ids {
			ids[i] = uuid.NewString()
		}
	}
	if m.opts.DryRun {
		m.logger.Info("dry-run: skipping vector upsert",
			logging.String(logging.FieldCollection, collection),
			logging.Int("points", len(texts)))
		return ids, nil
	}

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, services.Wrap(
			services.ErrExternalService,
			"vectorindex",
			"upsert",
			fmt.Sprintf("embedder returned %d vectors for %d texts", len(vectors), len(texts)),
			nil,
		)
	}

	points := make([]Point, len(texts))
	for i, text := range texts {
		payload := make(map[string]any, len(metadata)+1)
		for k, v := range metadata {
			payload[k] = v
		}
		payload["text"] = text
		points[i] = Point{ID: ids[i], Vector: vectors[i], Payload: payload}
	}
	if err := m.store.Upsert(ctx, collection, points); err != nil {
		return nil, err
	}
	m.logger.Debug("vectors upserted",
		logging.String(logging.FieldCollection, collection),
		logging.Int("points", len(points)))
	return ids, nil
}
