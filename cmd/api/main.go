package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/FlashRAG/internal/classify"
	"github.com/akolanti/FlashRAG/internal/classify/gemini"
	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/data/store"
	jobmodel "github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/handlers"
	"github.com/akolanti/FlashRAG/internal/job"
	"github.com/akolanti/FlashRAG/internal/loader"
	"github.com/akolanti/FlashRAG/internal/rag"
	"github.com/akolanti/FlashRAG/internal/rag/embedding"
	"github.com/akolanti/FlashRAG/internal/rag/embedding/googleEmbedding"
	"github.com/akolanti/FlashRAG/internal/rag/embedding/openaiEmbedding"
	"github.com/akolanti/FlashRAG/internal/rag/ingest"
	"github.com/akolanti/FlashRAG/internal/rag/vectorDB"
	"github.com/akolanti/FlashRAG/internal/rag/vectorDB/memoryDB"
	"github.com/akolanti/FlashRAG/internal/rag/vectorDB/qdrantDB"
	"github.com/akolanti/FlashRAG/internal/server"
	"github.com/akolanti/FlashRAG/internal/worker"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

var (
	listenAddr        string
	pipelinePath      string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.StringVar(&pipelinePath, "pipeline-config", "pipeline.yaml", "pipeline config file")
	flag.Parse()

	pipeline, err := config.LoadPipeline(pipelinePath)
	if err != nil {
		logger.Error("Could not load pipeline config", "error", err)
		return
	}

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.GetRedisJobStore(serviceContext),
		CheckpointStore:   store.GetRedisCheckpointStore(serviceContext),
	}
	logger.Info("Starting job service")

	if isNilJobStore(serviceConfig.JobStore) || isNilCheckpointStore(serviceConfig.CheckpointStore) {
		logger.Error("Redis stores are offline, falling back to in-memory stores")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
		serviceConfig.CheckpointStore = store.InitInMemoryCheckpointStore()
	}
	service := job.InitJobService(serviceConfig)

	dataStore := buildVectorStore(serviceContext, pipeline, logger)
	embedder := buildEmbedder(serviceContext, pipeline, logger)
	if dataStore == nil || embedder == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services", "VectorDB", dataStore != nil, "Embedder", embedder != nil)
		return
	}

	cascade := buildCascade(serviceContext, pipeline, logger)

	ragService := rag.NewService(ingest.Dependencies{
		Cascade:     cascade,
		Embedder:    embedder,
		VectorDB:    dataStore,
		Checkpoints: serviceConfig.CheckpointStore,
		Cleaner:     loader.NewCleaner(loader.DedupeScope(pipeline.DedupeScope)),
		Pipeline:    pipeline,
	})

	handlers.InitJobHandler(service)

	//init worker pool
	worker.InitServices(service, ragService)
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

func buildVectorStore(ctx context.Context, pipeline *config.PipelineConfig, logger *logger_i.Logger) vectorDB.DataStore {
	if pipeline.StoreProvider == "memory" {
		logger.Info("Using in-memory vector store")
		return memoryDB.NewStore()
	}
	client := qdrantDB.GetQuadrantClient(ctx)
	if client == nil {
		return nil
	}
	return client
}

func buildEmbedder(ctx context.Context, pipeline *config.PipelineConfig, logger *logger_i.Logger) embedding.Embedder {
	if pipeline.EmbedProvider == "openai" {
		return openaiEmbedding.GetOpenAIEmbeddingClient(ctx, config.OpenAIEmbeddingModel, config.OpenAIAPIKey())
	}
	return googleEmbedding.GetGoogleEmbeddingClient(ctx, config.GoogleEmbeddingModel, config.GoogleAPIKey())
}

// buildCascade wires the two-tier classifier. Without a model capability
// the cascade still runs rule-only, which keeps ingestion usable offline.
func buildCascade(ctx context.Context, pipeline *config.PipelineConfig, logger *logger_i.Logger) *classify.Cascade {
	var capability classify.Capability
	if pipeline.Classifier.Enabled {
		capability = gemini.GetGeminiClassifier(ctx, config.GeminiClassifierModel, config.GoogleAPIKey())
		if capability == nil {
			logger.Warn("Model classifier unavailable, running rule-only")
		}
	}
	return classify.NewCascade(capability, classify.CascadeOptions{
		ConfidenceThreshold: pipeline.Classifier.ConfidenceThreshold,
		BatchSize:           pipeline.Classifier.BatchSize,
		UseCues:             classify.CueMode(pipeline.Classifier.UseCues),
	})
}

func isNilJobStore(s jobmodel.JobStore) bool {
	rs, ok := s.(*store.RedisJobStore)
	return s == nil || (ok && rs == nil)
}

func isNilCheckpointStore(s jobmodel.CheckpointStore) bool {
	rs, ok := s.(*store.RedisCheckpointStore)
	return s == nil || (ok && rs == nil)
}
