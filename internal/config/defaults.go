package config

const (
	defaultDownloadsDir = "~/.local/share/secsum/filings"
	defaultOutputDir    = "~/.local/share/secsum/summaries"
	defaultLogDir       = "~/.local/share/secsum/logs"

	defaultEdgarRequestsPerSecond = 8
	defaultEdgarTimeoutSeconds    = 30

	defaultLLMBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel          = "deepseek/deepseek-chat"
	defaultLLMReferer        = "https://github.com/secsum/secsum"
	defaultLLMTitle          = "secsum"
	defaultLLMTimeoutSeconds = 120

	defaultEmbeddingBaseURL        = "https://api.openai.com/v1"
	defaultEmbeddingModel          = "text-embedding-3-small"
	defaultEmbeddingBatchSize      = 32
	defaultEmbeddingTimeoutSeconds = 60

	defaultQdrantURL            = "http://127.0.0.1:6333"
	defaultQdrantPrefix         = "sec_nlp"
	defaultQdrantDistance       = "cosine"
	defaultQdrantTimeoutSeconds = 30

	defaultSummaryBatchSize    = 5
	defaultSummaryChunkSize    = 1000
	defaultSummaryChunkOverlap = 200

	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DownloadsDir: defaultDownloadsDir,
			OutputDir:    defaultOutputDir,
			LogDir:       defaultLogDir,
		},
		Edgar: Edgar{
			RequestsPerSecond: defaultEdgarRequestsPerSecond,
			TimeoutSeconds:    defaultEdgarTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Embedding: Embedding{
			BaseURL:        defaultEmbeddingBaseURL,
			Model:          defaultEmbeddingModel,
			BatchSize:      defaultEmbeddingBatchSize,
			TimeoutSeconds: defaultEmbeddingTimeoutSeconds,
		},
		Qdrant: Qdrant{
			URL:              defaultQdrantURL,
			CollectionPrefix: defaultQdrantPrefix,
			Distance:         defaultQdrantDistance,
			TimeoutSeconds:   defaultQdrantTimeoutSeconds,
		},
		Summary: Summary{
			RequireJSON:  true,
			BatchSize:    defaultSummaryBatchSize,
			ChunkSize:    defaultSummaryChunkSize,
			ChunkOverlap: defaultSummaryChunkOverlap,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
	}
}
