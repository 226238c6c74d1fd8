package di

import (
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"

	"lex-retriever/internal/adapter/annclient"
	"lex-retriever/internal/adapter/convstore"
	"lex-retriever/internal/adapter/embedclient"
	"lex-retriever/internal/adapter/meili"
	"lex-retriever/internal/adapter/repository"
	"lex-retriever/internal/domain"
	"lex-retriever/internal/infra/config"
	"lex-retriever/internal/infra/httpclient"
	"lex-retriever/internal/usecase"
	"lex-retriever/internal/usecase/retrieval"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	Pipelines []usecase.CorpusPipeline

	RetrieveUsecase usecase.RetrievePassagesUsecase
	Embedder        domain.EmbeddingClient
	ConvStore       domain.ConversationStore
}

// NewApplicationComponents wires all dependencies from config and database pool.
// Every corpus gets its own lexical, vector and fusion pipeline over the
// shared pool; the embedding client and conversation store are shared.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) *ApplicationComponents {
	annHTTP := httpclient.NewPooledClient(time.Duration(cfg.AnnTimeoutMS) * time.Millisecond)
	embedHTTP := httpclient.NewPooledClient(time.Duration(cfg.EmbedTimeoutMS) * time.Millisecond)

	annCfg := annclient.DefaultConfig()
	annCfg.BaseURL = cfg.AnnURL
	annCfg.Timeout = time.Duration(cfg.AnnTimeoutMS) * time.Millisecond

	embedCfg := embedclient.DefaultConfig()
	embedCfg.BaseURL = cfg.EmbedURL
	embedCfg.Model = cfg.EmbedModel
	embedCfg.Timeout = time.Duration(cfg.EmbedTimeoutMS) * time.Millisecond
	embedder := embedclient.New(embedHTTP, embedCfg, log)

	var meiliClient meilisearch.ServiceManager
	if cfg.MeiliEnabled {
		meiliClient = meilisearch.New(cfg.MeiliHost, meilisearch.WithAPIKey(cfg.MeiliAPIKey))
		log.Info("meilisearch_enabled", slog.String("host", cfg.MeiliHost))
	}

	convStore := convstore.New(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}))

	lexicalCfg := retrieval.DefaultLexicalConfig()
	vectorCfg := retrieval.DefaultVectorConfig()
	vectorCfg.Limit = cfg.PerCorpusLimit
	boostCfg := retrieval.DefaultBoostConfig()

	pipelines := make([]usecase.CorpusPipeline, 0, len(domain.AllCorpora))
	for _, corpus := range domain.AllCorpora {
		repo := repository.NewPassageRepository(pool, corpus)

		var fulltext domain.FullTextIndex
		if meiliClient != nil {
			fulltext = meili.New(meiliClient, cfg.MeiliIndex, corpus, log)
		} else {
			fulltext = repository.NewFullTextRepository(pool, corpus)
		}

		ann := annclient.New(annHTTP, annCfg, corpus, log)

		pipelines = append(pipelines, usecase.CorpusPipeline{
			Corpus:  corpus,
			Lexical: retrieval.NewLexicalSelector(repo, repo, fulltext, lexicalCfg, log),
			Vector:  retrieval.NewVectorSearcher(ann, repo, repo, vectorCfg, log),
			Fusion:  retrieval.NewFusionEngine(repo, boostCfg, log),
			Reader:  repo,
		})
	}

	orchCfg := usecase.DefaultOrchestratorConfig()
	orchCfg.WorkerTimeout = time.Duration(cfg.WorkerTimeoutMS) * time.Millisecond
	orchCfg.DefaultPerCorpusLimit = cfg.PerCorpusLimit

	retrieveUsecase := usecase.NewRetrievePassagesUsecase(
		pipelines, embedder, convStore,
		retrieval.DefaultFollowupConfig(), orchCfg, log,
	)

	return &ApplicationComponents{
		Pipelines:       pipelines,
		RetrieveUsecase: retrieveUsecase,
		Embedder:        embedder,
		ConvStore:       convStore,
	}
}
