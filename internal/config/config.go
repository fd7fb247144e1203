package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	NoAuthBypass = true //flip for local testing without a token
	AuthToken    = ""

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5
	RateLimiterSweepInterval    = 10 * time.Minute

	//embeddings
	EmbeddingOutputDimensionality int32 = 1536
	GoogleEmbeddingModel                = "gemini-embedding-001"
	OpenAIEmbeddingModel                = "text-embedding-3-small"
	EmbeddingBatchSize                  = 100
	EmbeddingMaxAttempts                = 3
	EmbeddingRetryBackoff               = 5 * time.Second

	//classification cascade
	GeminiClassifierModel      = "gemini-2.5-flash-lite-preview-09-2025"
	ClassifierBatchSize        = 32
	ConfidenceThreshold        = 0.5 //inclusive: score >= threshold accepts the model label
	StrongRuleThreshold        = 0.8
	ClassifierHypothesisPrefix = "This flashcard is"

	//vector store
	CardCollectionName = "flashcards"

	QdrantConnectionTimeout = 30 * time.Second
	QdrantHost              = ""
	QdrantPort              = 6333 //http
	QdrantGrpcPort          = 6334
	QdrantUseTLS            = false
	QdrantPoolSize          = 1
	QdrantKeepAliveTimeout  = 30 * time.Second

	//loader
	DelimiterSniffLines  = 20
	DelimiterMinPerLine  = 1 //a delimiter must appear on at least this many fields-1 per line to count
	DelimiterMinFraction = 0.5

	//chunking
	MaxChunkSize = 500
	ChunkOverlap = 50

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	JobExecutionTimeout             = 10 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 10 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost     = "127.0.0.1"
	redisPort     = "6379"
	RedisAddr     = redisHost + ":" + redisPort
	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore        = 0
	RedisCheckpointStore = 1

	//redis timeouts
	RedisJobStoreTTL        = 24 * time.Hour
	RedisCheckpointStoreTTL = 7 * 24 * time.Hour
)
