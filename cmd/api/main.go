// @title           Document QA API
// @version         1.0
// @description     This API handles document upload, processing and retrieval augmented question answering
// @termsOfService  http://swagger.io/terms/

// @contact.name    me lol
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	jobmodel "github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/handlers"
	"github.com/akolanti/DocQA/internal/job"
	"github.com/akolanti/DocQA/internal/pipeline"
	"github.com/akolanti/DocQA/internal/rag/embedding"
	"github.com/akolanti/DocQA/internal/rag/embedding/hashEmbedding"
	"github.com/akolanti/DocQA/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/DocQA/internal/rag/llm/openaiLLM"
	"github.com/akolanti/DocQA/internal/rag/qa"
	"github.com/akolanti/DocQA/internal/rag/vectorindex"
	"github.com/akolanti/DocQA/internal/server"
	"github.com/akolanti/DocQA/internal/worker"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using process environment")
	}

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	documentStore, interactionStore, jobStore := initStores(serviceContext, logger)

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          jobStore,
	}
	logger.Info("Starting job service")
	service := job.InitJobService(serviceConfig)

	index, err := vectorindex.NewStore(config.VectorStorePath(), config.EmbeddingDimension)
	if err != nil {
		logger.Error("Couldn't open the vector store. Shutting down.", "error", err)
		return
	}

	embedder := initEmbedder(logger)
	llmProvider := initLLM(logger)
	if llmProvider == nil {
		logger.Error("No completion provider available. Shutting down.")
		return
	}

	qaService := qa.NewService(embedder, index, llmProvider, documentStore, interactionStore)
	pipelineService := pipeline.NewService(documentStore, embedder, index)

	handlers.InitHandlers(handlers.HandlerConfig{
		JobService:   service,
		Documents:    documentStore,
		QAService:    qaService,
		Pipeline:     pipelineService,
		Index:        index,
		EmbedderName: embedder.Name(),
	})

	//init worker pool
	worker.InitServices(service, pipelineService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

// initStores prefers Redis and falls back to the in-memory stores so the
// service still runs on a laptop with no Redis around.
func initStores(ctx context.Context, logger *logger_i.Logger) (docModel.DocumentStore, docModel.InteractionStore, jobmodel.JobStore) {
	var documents docModel.DocumentStore
	var interactions docModel.InteractionStore
	var jobs jobmodel.JobStore

	if s := store.GetRedisDocumentStore(ctx); s != nil {
		documents = s
	}
	if s := store.GetRedisInteractionStore(ctx); s != nil {
		interactions = s
	}
	if s := store.GetRedisJobStore(ctx); s != nil {
		jobs = s
	}

	if documents == nil || interactions == nil || jobs == nil {
		logger.Error("Redis stores are offline, state will not survive a restart")
		documents = store.InitInMemoryDocumentStore()
		interactions = store.InitInMemoryInteractionStore()
		jobs = store.InitInMemoryJobStore()
	}
	return documents, interactions, jobs
}

// initEmbedder picks the model backend when a key is configured, otherwise
// the hash fallback keeps ingestion and search working offline.
func initEmbedder(logger *logger_i.Logger) embedding.Embedder {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		em, err := openaiEmbedding.NewEmbedder(key)
		if err == nil {
			logger.Info("Using model embeddings", "model", em.Name())
			return em
		}
		logger.Error("Couldn't build the model embedder, falling back to hashing", "error", err)
	} else {
		logger.Warn("OPENAI_API_KEY is not set, embeddings fall back to lexical hashing")
	}
	return hashEmbedding.NewEmbedder()
}

// initLLM reads GROQ_API_KEYS (comma separated, rotated on rate limits) and
// GROQ_BASE_URL for the OpenAI-compatible completion endpoint.
func initLLM(logger *logger_i.Logger) *openaiLLM.Client {
	var keys []string
	for _, key := range strings.Split(os.Getenv("GROQ_API_KEYS"), ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}

	baseURL := os.Getenv("GROQ_BASE_URL")
	if baseURL == "" {
		baseURL = config.CompletionBaseURL
	}

	client, err := openaiLLM.NewClient(baseURL, keys)
	if err != nil {
		logger.Error("Couldn't build the completion client", "error", err)
		return nil
	}
	logger.Info("Using completion model", "model", client.ModelName())
	return client
}
