package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	//auth
	NoAuthBypass = true //flip off once a real token is provisioned
	AuthToken    = ""

	//embeddings
	//384 matches all-MiniLM class sentence models; the hash fallback emits the same width
	EmbeddingDimension = 384
	EmbeddingModelName = "text-embedding-3-small"
	EmbeddingBatchSize = 100

	//chunking (characters; roughly 4 chars per token)
	ChunkSize    = 1600
	ChunkOverlap = 200

	//retrieval
	SearchTopK         = 5
	RelevanceThreshold = float32(0.3)
	ContextWindowMin   = 1000
	ContextWindowMax   = 8000
	ContextWindow      = 4000 //tokens

	//uploads
	MaxUploadSize = 10 << 20 //10mb

	//llm - any OpenAI-compatible completion endpoint works here
	CompletionBaseURL     = "https://api.groq.com/openai/v1"
	CompletionModelName   = "llama-3.3-70b-versatile"
	CompletionTemperature = 0.1
	CompletionMaxTokens   = 1024
	CompletionTimeout     = 30 * time.Second
	CompletionMaxRetries  = 3

	//pipeline
	MaxConcurrentProcessing = 3
	JobExecutionTimeout     = 5 * time.Minute

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	ServerListenAddr = ":3000"

	//job requests buffer limit
	BufferLimit = 100

	//redis - 16 logical DBs available
	RedisDocumentStore    = 0
	RedisInteractionStore = 1
	RedisJobStore         = 2

	//finished jobs expire; document status is the durable record
	JobRecordTTL = 24 * time.Hour

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisPassword = ""
)

// VectorStorePath is where per-document index blobs live. Overridable so
// tests and deployments can point at their own directory.
func VectorStorePath() string {
	if p := os.Getenv("VECTOR_STORE_PATH"); p != "" {
		return p
	}
	return "vector_store"
}

// UploadDir is the staging directory for uploaded files awaiting extraction.
func UploadDir() string {
	if p := os.Getenv("UPLOAD_DIR"); p != "" {
		return p
	}
	return "temporary_data"
}
