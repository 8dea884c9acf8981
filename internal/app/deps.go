package app

import (
	"context"
	"fmt"
	"time"

	config "github.com/DRSN-tech/artwork-recommender/internal/cfg"
	"github.com/DRSN-tech/artwork-recommender/internal/infrastructure/kafka"
	minioInfra "github.com/DRSN-tech/artwork-recommender/internal/infrastructure/minio"
	"github.com/DRSN-tech/artwork-recommender/internal/infrastructure/vertex"
	s3Repo "github.com/DRSN-tech/artwork-recommender/internal/repository/minio"
	"github.com/DRSN-tech/artwork-recommender/internal/repository/mongodb"
	"github.com/DRSN-tech/artwork-recommender/internal/repository/pgdb"
	pgdbConv "github.com/DRSN-tech/artwork-recommender/internal/repository/pgdb/converter"
	qdrantRepo "github.com/DRSN-tech/artwork-recommender/internal/repository/qdrant"
	"github.com/DRSN-tech/artwork-recommender/internal/repository/redis"
	redisConv "github.com/DRSN-tech/artwork-recommender/internal/repository/redis/converter"
	"github.com/DRSN-tech/artwork-recommender/internal/usecase"
	"github.com/DRSN-tech/artwork-recommender/pkg/closer"
	"github.com/DRSN-tech/artwork-recommender/pkg/clients"
	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/DRSN-tech/artwork-recommender/pkg/postgres"
	"github.com/jimlawless/whereami"
)

const initTimeout = 10 * time.Second

// Deps — собранные хранилища и инфраструктура, общие для сервера и embedder.
type Deps struct {
	ArtworkRepo   usecase.ArtworkRepository
	EmbeddingRepo usecase.EmbeddingRepository
	CacheRepo     usecase.ArtworkCacheRepository
	Embeddings    usecase.EmbeddingInfra
	Images        usecase.ImagesInfra
	Publisher     usecase.EventPublisher
	Provider      usecase.ProviderSettings
	Closer        *closer.Closer
}

// NewDeps подключает хранилища согласно STORE_BACKEND и опциональную инфраструктуру.
// Каждый открытый ресурс регистрируется в Closer. При ошибке уже открытые ресурсы закрываются.
func NewDeps(ctx context.Context, cfg *config.Config, logger logger.Logger) (_ *Deps, err error) {
	deps := &Deps{
		Closer: closer.NewCloser(0),
		Provider: usecase.ProviderSettings{
			ProjectID: cfg.Embedding.ProjectID,
			Location:  cfg.Embedding.Location,
			Model:     cfg.Embedding.Model,
		},
	}
	defer func() {
		if err != nil {
			_ = deps.Closer.Close(context.WithoutCancel(ctx))
		}
	}()

	switch cfg.Store.Backend {
	case config.BackendMongo:
		err = deps.initMongo(ctx, cfg, logger)
	default:
		err = deps.initPostgresQdrant(ctx, cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	deps.initRedis(ctx, cfg, logger)

	if err = deps.initMinio(ctx, cfg, logger); err != nil {
		return nil, err
	}

	deps.initKafka(cfg, logger)

	deps.Embeddings = vertex.NewClient(cfg.Embedding, vertex.NewMemoryCache(), logger)

	return deps, nil
}

func (d *Deps) initPostgresQdrant(ctx context.Context, cfg *config.Config, logger logger.Logger) error {
	db, err := initPGDB(ctx, logger, cfg)
	if err != nil {
		return err
	}
	d.Closer.Add("postgres", func(context.Context) error {
		db.Close()
		return nil
	})

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	d.Closer.Add("qdrant", func(context.Context) error {
		return qdrantClient.Close()
	})

	qdrantCtx, qdrantCancel := context.WithTimeout(ctx, initTimeout)
	defer qdrantCancel()
	if err := clients.EnsureCollection(qdrantCtx, qdrantClient); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	d.ArtworkRepo = pgdb.NewArtworkRepo(db.Pool, pgdbConv.NewArtworkConverterImpl())
	d.EmbeddingRepo = qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)
	logger.Infof("store backend: postgres + qdrant (collection %s)", cfg.Qdrant.QdrantCollectionName)

	return nil
}

func (d *Deps) initMongo(ctx context.Context, cfg *config.Config, logger logger.Logger) error {
	mongoClient, err := clients.NewMongoClient(ctx, cfg.Mongo)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	d.Closer.Add("mongo", mongoClient.Close)

	d.ArtworkRepo = mongodb.NewArtworkRepo(mongoClient.Database.Collection(cfg.Mongo.ArtworksCollection))
	d.EmbeddingRepo = mongodb.NewEmbeddingRepo(mongoClient.Database.Collection(cfg.Mongo.EmbeddingsCollection))
	logger.Infof("store backend: mongo (database %s)", cfg.Mongo.Database)

	return nil
}

// initRedis подключает кэш работ. Недоступный Redis не мешает старту: ошибки кэша считаются промахами.
func (d *Deps) initRedis(ctx context.Context, cfg *config.Config, logger logger.Logger) {
	redisClient := clients.NewRedisClient(cfg.Redis)
	d.Closer.Add("redis", func(context.Context) error {
		return redisClient.Close()
	})

	redisCtx, redisCancel := context.WithTimeout(ctx, initTimeout)
	defer redisCancel()
	if err := redisClient.Ping(redisCtx); err != nil {
		logger.Warnf("redis unavailable, artwork cache degraded: %v", err)
	}

	d.CacheRepo = redis.NewCacheRepo(redisClient, redisConv.NewArtworkConverterImpl(), cfg.Redis, logger)
}

func (d *Deps) initMinio(ctx context.Context, cfg *config.Config, logger logger.Logger) error {
	if !cfg.Minio.Enabled() {
		logger.Infof("minio is not configured, image references are returned as stored")
		return nil
	}

	minioClient, err := clients.NewMinIOClient(cfg.Minio)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	minioCtx, minioCancel := context.WithTimeout(ctx, initTimeout)
	defer minioCancel()
	if err := clients.EnsureBucket(minioCtx, minioClient, cfg.Minio.BucketName); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	d.Images = minioInfra.NewMinioInfrastructure(s3Repo.NewImageRepo(minioClient), cfg.Minio, logger)
	return nil
}

func (d *Deps) initKafka(cfg *config.Config, logger logger.Logger) {
	if !cfg.Kafka.Enabled() {
		logger.Infof("kafka is not configured, embedding events are not published")
		return
	}

	producer := kafka.NewProducer(logger, cfg.Kafka)
	if err := producer.EnsureTopic(initTimeout); err != nil {
		logger.Warnf("kafka topic %s is not ready: %v", cfg.Kafka.Topic, err)
	}
	d.Closer.Add("kafka", func(context.Context) error {
		return producer.Close()
	})

	d.Publisher = producer
}

func initPGDB(ctx context.Context, logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	if cfg.Db == nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("postgres config is missing: %w", e.ErrIncorrectEnvVariable))
	}

	db, err := postgres.Connect(ctx, cfg.Db)
	if err != nil {
		logger.Errorf(err, "failed to connect to database")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		db.Close()
		logger.Errorf(err, "failed to run migrations")
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
