package bootstrap

import (
	"context"
	"log"

	"asksite-be/internal/config"
	"asksite-be/internal/controller"
	"asksite-be/internal/pkg/logger"
	"asksite-be/internal/repository/contract"
	"asksite-be/internal/repository/implementation"
	"asksite-be/internal/service"
	"asksite-be/pkg/ask/analysis"
	"asksite-be/pkg/ask/executor"
	"asksite-be/pkg/ask/ranking"
	"asksite-be/pkg/ask/retrieval"
	"asksite-be/pkg/ask/tools"
	"asksite-be/pkg/catalog"
	"asksite-be/pkg/embedding"
	"asksite-be/pkg/llm"
	"asksite-be/pkg/llm/factory"

	pktNats "asksite-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AskController    controller.IAskController
	IngestController controller.IIngestController

	// Background Services (Exposed for main.go to run)
	IngestService  service.IIngestService
	ArchiveService service.IArchiveService

	// Repositories exposed for auxiliary commands
	TenantRepository contract.TenantRepository
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embedding.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OllamaEmbedModel,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize embedding provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s", cfg.Ai.EmbeddingProvider)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GeminiAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	gateway := llm.NewGateway(llmProvider, cfg.Ai.MaxInflightCalls, cfg.Ai.CallTimeout)

	// 4. Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 5. Repositories
	tenantRepo := implementation.NewTenantRepository(db)
	documentRepo := implementation.NewDocumentRepository(db)
	catalogRepo := implementation.NewCatalogRepository(db)
	askLogRepo := implementation.NewAskLogRepository(db)

	// 6. Pipeline Components
	toolCatalog := catalog.NewCatalog(catalogRepo, sysLogger)

	analyzer := analysis.NewAnalyzer(gateway, toolCatalog, sysLogger, cfg.Pipeline.AnalysisTimeout, cfg.Pipeline.QueryFanout)
	selector := tools.NewSelector(gateway, toolCatalog, sysLogger, cfg.Pipeline.SelectionThreshold)

	retrievalCache := retrieval.NewCache(rdb, cfg.Retrieval.CacheTTL)
	coordinator := retrieval.NewCoordinator(
		[]retrieval.Backend{
			retrieval.NewVectorBackend(documentRepo, embeddingProvider, cfg.Retrieval.SimilarityThreshold),
			retrieval.NewLexicalBackend(documentRepo),
		},
		retrievalCache,
		sysLogger,
		cfg.Retrieval.BackendTimeout,
		cfg.Retrieval.PerBackendK,
		cfg.Retrieval.MaxInflight,
	)

	ranker := ranking.NewRanker(gateway, toolCatalog, sysLogger, 8, cfg.Pipeline.TopN, cfg.Pipeline.ScoreFloor)

	strategies := executor.NewStrategySet(coordinator, ranker, gateway, toolCatalog, sysLogger)
	pipeline := executor.NewPipeline(
		analyzer,
		selector,
		strategies,
		sysLogger,
		cfg.Pipeline.RequestDeadline,
		cfg.Pipeline.EarlySendScore,
		cfg.Pipeline.TopN,
	)

	// 7. Services
	publisherService := service.NewPublisherService(pubSub)
	askService := service.NewAskService(pipeline, publisherService, natsPub, sysLogger)
	ingestService := service.NewIngestService(pubSub, publisherService, documentRepo, embeddingProvider, sysLogger)
	archiveService := service.NewArchiveService(pubSub, askLogRepo, sysLogger)

	// 8. Controllers
	return &Container{
		AskController:    controller.NewAskController(askService, tenantRepo, sysLogger),
		IngestController: controller.NewIngestController(ingestService, tenantRepo),

		IngestService:  ingestService,
		ArchiveService: archiveService,

		TenantRepository: tenantRepo,
	}
}
