package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/artwork-recommender/pkg/e"
	"github.com/DRSN-tech/artwork-recommender/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

// Хранилища каталога
const (
	BackendPostgres = "postgres" // работы в PostgreSQL, векторы в Qdrant
	BackendMongo    = "mongo"    // обе коллекции в MongoDB
)

type Config struct {
	Http      *HTTPConfig
	Store     *StoreCfg
	Db        *PGDBCfg
	Qdrant    *QdrantCfg
	Mongo     *MongoCfg
	Redis     *RedisCfg
	Minio     *MinIOCfg
	Kafka     *KafkaCfg
	Embedding *EmbeddingCfg
	Recommend *RecommendCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	RateLimit    int // запросов в минуту с одного IP
}

type StoreCfg struct {
	Backend string
}

type PGDBCfg struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string // имя коллекции в Qdrant
	UseTLS               bool
	VectorSize           uint64
	ScrollPageSize       uint32
}

type MongoCfg struct {
	URI                  string
	Database             string
	ArtworksCollection   string
	EmbeddingsCollection string
	ConnectTimeout       time.Duration
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ArtworkTTL  time.Duration
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio; пустой — подпись ссылок выключена
	BucketName        string // Бакет с изображениями работ
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	PresignTTL        time.Duration
}

// Enabled сообщает, настроен ли MinIO.
func (m *MinIOCfg) Enabled() bool {
	return m.MinioEndpoint != "" && m.BucketName != ""
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Enabled сообщает, заданы ли брокеры Kafka.
func (k *KafkaCfg) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// EmbeddingCfg — настройки провайдера эмбеддингов (Vertex AI).
type EmbeddingCfg struct {
	ProjectID       string
	Location        string
	Model           string
	BaseURL         string // пустой — https://{location}-aiplatform.googleapis.com
	CredentialsFile string
	Timeout         time.Duration
	MaxRetries      int
	MaxConcurrent   int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Validate проверяет, что обязательные настройки провайдера заданы.
func (c *EmbeddingCfg) Validate() error {
	var missing []string
	if c.ProjectID == "" {
		missing = append(missing, "EMBEDDING_PROJECT_ID")
	}
	if c.Location == "" {
		missing = append(missing, "EMBEDDING_LOCATION")
	}
	if c.Model == "" {
		missing = append(missing, "EMBEDDING_MODEL")
	}
	if len(missing) > 0 {
		return e.Wrap(strings.Join(missing, ", "), e.ErrConfiguration)
	}

	return nil
}

// MaxResultLimit — верхняя граница числа рекомендаций в ответе.
const MaxResultLimit = 4

type RecommendCfg struct {
	CandidateLimit int // размер шорт-листа до гидрации
	ResultLimit    int // максимум рекомендаций в ответе
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Infof("loaded .env file")
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	store, err := loadStoreCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var db *PGDBCfg
	if store.Backend == BackendPostgres {
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	mongo, err := loadMongoCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedding, err := loadEmbeddingCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	recommend, err := loadRecommendCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Http:      http,
		Store:     store,
		Db:        db,
		Qdrant:    qdrant,
		Mongo:     mongo,
		Redis:     redis,
		Minio:     minio,
		Kafka:     loadKafkaCfg(),
		Embedding: embedding,
		Recommend: recommend,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 30 * time.Second
		defaultIdleTimeout  = 60 * time.Second
		defaultRateLimit    = 120
	)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	rateLimit, err := parseIntEnv("HTTP_RATE_LIMIT", defaultRateLimit)
	if err != nil {
		log.Errorf(err, "invalid HTTP_RATE_LIMIT")
		return nil, e.Wrap("HTTP_RATE_LIMIT", err)
	}

	return &HTTPConfig{
		Port:         getEnvOrDefault("HTTP_PORT", defaultPort),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		RateLimit:    rateLimit,
	}, nil
}

func loadStoreCfg() (*StoreCfg, error) {
	backend := strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendPostgres))
	switch backend {
	case BackendPostgres, BackendMongo:
		return &StoreCfg{Backend: backend}, nil
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q: %w", backend, e.ErrIncorrectEnvVariable)
	}
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = "5432"
		defaultSSLMode        = "disable"
		defaultMigrationsPath = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:           user,
		Password:       password,
		DBName:         dbName,
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadQdrantCfg(logger logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantHost     = "localhost"
		defaultQdrantGRPCPort = "6334"
		defaultUseTLS         = false
		defaultVectorSize     = "768"
		defaultCollection     = "artwork_embeddings"
		defaultScrollPageSize = 256
	)

	port, err := strconv.Atoi(getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_GRPC_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	vectorSize, err := strconv.ParseUint(getEnvOrDefault("VECTOR_SIZE", defaultVectorSize), 10, 64)
	if err != nil {
		logger.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	pageSize, err := parseIntEnv("QDRANT_SCROLL_PAGE_SIZE", defaultScrollPageSize)
	if err != nil || pageSize <= 0 {
		logger.Errorf(e.ErrIncorrectEnvVariable, "invalid QDRANT_SCROLL_PAGE_SIZE")
		return nil, e.Wrap("QDRANT_SCROLL_PAGE_SIZE", e.ErrIncorrectEnvVariable)
	}

	return &QdrantCfg{
		Host:                 getEnvOrDefault("QDRANT_HOST", defaultQdrantHost),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           vectorSize,
		ScrollPageSize:       uint32(pageSize),
	}, nil
}

func loadMongoCfg(log logger.Logger) (*MongoCfg, error) {
	const (
		defaultURI            = "mongodb://localhost:27017"
		defaultDatabase       = "marketplace"
		defaultConnectTimeout = 10 * time.Second
	)

	connectTimeout, err := parseDurationEnv("MONGO_CONNECT_TIMEOUT", defaultConnectTimeout)
	if err != nil {
		log.Errorf(err, "invalid MONGO_CONNECT_TIMEOUT")
		return nil, err
	}

	return &MongoCfg{
		URI:                  getEnvOrDefault("MONGO_URI", defaultURI),
		Database:             getEnvOrDefault("MONGO_DATABASE", defaultDatabase),
		ArtworksCollection:   getEnvOrDefault("MONGO_ARTWORKS_COLLECTION", "artworks"),
		EmbeddingsCollection: getEnvOrDefault("MONGO_EMBEDDINGS_COLLECTION", "embeddings"),
		ConnectTimeout:       connectTimeout,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultArtworkTTL   = 5 * time.Minute
	)

	db, err := strconv.Atoi(getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB)))
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := strconv.Atoi(getEnvOrDefault("MAX_RETRIES", strconv.Itoa(defaultMaxRetries)))
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	artworkTTL, err := parseDurationEnv("ARTWORK_TTL", defaultArtworkTTL)
	if err != nil {
		log.Errorf(err, "invalid ARTWORK_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ArtworkTTL:  artworkTTL,
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL     = false
		defaultPresignTTL = time.Hour
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	presignTTL, err := parseDurationEnv("MINIO_PRESIGN_TTL", defaultPresignTTL)
	if err != nil {
		log.Errorf(err, "invalid MINIO_PRESIGN_TTL")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnv("MINIO_ENDPOINT"),
		BucketName:        getEnv("BUCKET_NAME"),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PresignTTL:        presignTTL,
	}, nil
}

func loadKafkaCfg() *KafkaCfg {
	const (
		defaultNetworkMode       = "tcp"
		defaultTopic             = "artwork-embeddings"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
	)

	var brokers []string
	for _, b := range strings.Split(getEnv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
		Partitions:        defaultPartitions,
		ReplicationFactor: defaultReplicationFactor,
	}
}

func loadEmbeddingCfg(log logger.Logger) (*EmbeddingCfg, error) {
	const (
		defaultModel           = "text-embedding-004"
		defaultTimeout         = 15 * time.Second
		defaultMaxRetries      = 2
		defaultMaxConcurrent   = 4
		defaultBreakerFailures = 5
		defaultBreakerTimeout  = 30 * time.Second
	)

	timeout, err := parseDurationEnv("EMBEDDING_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDING_TIMEOUT")
		return nil, err
	}

	maxRetries, err := parseIntEnv("EMBEDDING_MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		return nil, e.Wrap("EMBEDDING_MAX_RETRIES", err)
	}

	maxConcurrent, err := parseIntEnv("EMBEDDING_MAX_CONCURRENT", defaultMaxConcurrent)
	if err != nil {
		return nil, e.Wrap("EMBEDDING_MAX_CONCURRENT", err)
	}

	breakerFailures, err := parseIntEnv("EMBEDDING_BREAKER_FAILURES", defaultBreakerFailures)
	if err != nil {
		return nil, e.Wrap("EMBEDDING_BREAKER_FAILURES", err)
	}

	breakerTimeout, err := parseDurationEnv("EMBEDDING_BREAKER_TIMEOUT", defaultBreakerTimeout)
	if err != nil {
		log.Errorf(err, "invalid EMBEDDING_BREAKER_TIMEOUT")
		return nil, err
	}

	cfg := &EmbeddingCfg{
		ProjectID:       getEnv("EMBEDDING_PROJECT_ID"),
		Location:        getEnv("EMBEDDING_LOCATION"),
		Model:           getEnvOrDefault("EMBEDDING_MODEL", defaultModel),
		BaseURL:         getEnv("EMBEDDING_BASE_URL"),
		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS"),
		Timeout:         timeout,
		MaxRetries:      max(maxRetries, 0),
		MaxConcurrent:   max(maxConcurrent, 1),
		BreakerFailures: uint32(max(breakerFailures, 1)),
		BreakerTimeout:  breakerTimeout,
	}

	if err := cfg.Validate(); err != nil {
		// Сервер продолжает работать на запасном ранжировании.
		log.Warnf("embedding provider disabled: %v", err)
	}

	return cfg, nil
}

func loadRecommendCfg() (*RecommendCfg, error) {
	const (
		defaultCandidateLimit = 8
		defaultResultLimit    = 4
	)

	candidates, err := parseIntEnv("RECOMMEND_CANDIDATE_LIMIT", defaultCandidateLimit)
	if err != nil {
		return nil, e.Wrap("RECOMMEND_CANDIDATE_LIMIT", err)
	}

	results, err := parseIntEnv("RECOMMEND_RESULT_LIMIT", defaultResultLimit)
	if err != nil {
		return nil, e.Wrap("RECOMMEND_RESULT_LIMIT", err)
	}

	if results <= 0 || results > MaxResultLimit {
		return nil, e.Wrap(fmt.Sprintf("RECOMMEND_RESULT_LIMIT must be in [1, %d]", MaxResultLimit), e.ErrIncorrectEnvVariable)
	}

	if candidates < results {
		return nil, e.Wrap("RECOMMEND_CANDIDATE_LIMIT must be >= RECOMMEND_RESULT_LIMIT", e.ErrIncorrectEnvVariable)
	}

	return &RecommendCfg{
		CandidateLimit: candidates,
		ResultLimit:    results,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
