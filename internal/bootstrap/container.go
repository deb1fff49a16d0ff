package bootstrap

import (
	"log"

	"ai-research-be/internal/config"
	"ai-research-be/internal/controller"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/implementation"
	"ai-research-be/internal/repository/unitofwork"
	"ai-research-be/internal/service"
	"ai-research-be/pkg/embedding"
	"ai-research-be/pkg/embedding/jina"
	"ai-research-be/pkg/llm"
	"ai-research-be/pkg/llm/factory"
	"ai-research-be/pkg/rag"
	"ai-research-be/pkg/research/aggregate"
	"ai-research-be/pkg/research/answer"
	"ai-research-be/pkg/research/complexity"
	"ai-research-be/pkg/research/decompose"
	"ai-research-be/pkg/research/tree"
	"ai-research-be/pkg/websearch/brave"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ResearchController controller.IResearchController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Providers
	// Initialize Embedding Provider based on Config
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else if cfg.Ai.EmbeddingProvider == "jina" {
		embeddingProvider = jina.NewJinaProvider(cfg.Keys.Jina)
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	// Initialize LLM Provider based on Config
	baseProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.Anthropic,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// All completion calls share one retry policy.
	llmProvider := llm.NewRetryProvider(baseProvider, 3)

	searchProvider := brave.NewBraveProvider(cfg.Keys.BraveSearch)

	// 4. Retrieval & Ingestion
	// The store and ingestion run outside any request transaction, so they
	// get repositories bound to the root connection.
	retrievalStore := rag.NewRetrievalStore(
		implementation.NewDocumentChunkRepository(db),
		embeddingProvider,
		sysLogger,
		cfg.Research.ChunkSize,
		cfg.Research.ChunkOverlap,
		cfg.Research.SimilarityThreshold,
	)
	ingestion := rag.NewKnowledgeIngestion(
		retrievalStore,
		searchProvider,
		implementation.NewKnowledgeSourceRepository(db),
		sysLogger,
		cfg.Research.SearchResultCount,
	)

	// 5. Research Core
	assessor := complexity.NewAssessor(llmProvider, sysLogger, cfg.Research.EvaluationMaxTokens)
	engine := decompose.NewEngine(
		llmProvider,
		sysLogger,
		cfg.Research.MaxSubQuestions,
		cfg.Research.EvaluationMaxTokens,
		cfg.Research.SingleSubQuestionKeywords,
	)
	generator := answer.NewGenerator(
		llmProvider,
		retrievalStore,
		ingestion,
		sysLogger,
		cfg.Research.AnswerMaxTokens,
		cfg.Research.TopKResults,
	)
	aggregator := aggregate.NewAggregator(llmProvider, sysLogger, cfg.Research.SynthesisMaxTokens)
	builder := tree.NewBuilder(
		assessor,
		engine,
		generator,
		aggregator,
		sysLogger,
		cfg.Research.ChildConcurrency,
	)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.Keys.ReportTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.ReportTopic,
		uowFactory,
		sysLogger,
	)

	researchService := service.NewResearchService(
		builder,
		retrievalStore,
		uowFactory,
		publisherService,
		sysLogger,
		cfg.Research,
	)

	// 7. Controllers
	return &Container{
		ResearchController: controller.NewResearchController(researchService),
		ConsumerService:    consumerService,
	}
}
