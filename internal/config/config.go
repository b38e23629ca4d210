package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	arkembed "github.com/cloudwego/eino-ext/components/embedding/ark"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every tunable of the service.
type Config struct {
	Server      ServerConfig
	AI          AIConfig
	Retrieval   RetrievalConfig
	History     HistoryConfig
	VectorStore VectorStoreConfig
	Ingest      IngestConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	retrieval, err := loadRetrievalConfig()
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	vs, err := loadVectorStoreConfig()
	if err != nil {
		return nil, err
	}

	ingest, err := loadIngestConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:      server,
		AI:          ai,
		Retrieval:   retrieval,
		History:     history,
		VectorStore: vs,
		Ingest:      ingest,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig holds the Ark model credentials and generation parameters.
// The same credentials serve the chat model and the embedder.
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	EmbeddingModel string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the tool-calling chat model from this config.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ToolCallingChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("missing Ark credentials: set ARK_API_KEY (or ARK_ACCESS_KEY/ARK_SECRET_KEY) and ARK_MODEL")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

// NewEmbedder builds the embedding client used for indexing and query
// vectorization.
func (c AIConfig) NewEmbedder(ctx context.Context) (embedding.Embedder, error) {
	if c.EmbeddingModel == "" {
		return nil, fmt.Errorf("missing embedding model: set ARK_EMBEDDING_MODEL")
	}
	if c.APIKey == "" && (c.AccessKey == "" || c.SecretKey == "") {
		return nil, fmt.Errorf("missing Ark credentials for embeddings")
	}

	return arkembed.NewEmbedder(ctx, &arkembed.EmbeddingConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.EmbeddingModel,
	})
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("ARK_MODEL")),
		EmbeddingModel: strings.TrimSpace(os.Getenv("ARK_EMBEDDING_MODEL")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
	}, nil
}

// RetrievalConfig tunes the per-turn retrieval workflow.
type RetrievalConfig struct {
	Mode        string
	MaxHops     int
	TopK        int
	Language    string
	CallTimeout time.Duration
}

func loadRetrievalConfig() (RetrievalConfig, error) {
	mode := getEnvOrDefault("RAG_MODE", "chain")
	switch mode {
	case "chain", "agent":
	default:
		return RetrievalConfig{}, fmt.Errorf("invalid RAG_MODE value %q: want chain or agent", mode)
	}

	maxHops, err := parseIntEnv("RAG_MAX_HOPS", 4)
	if err != nil {
		return RetrievalConfig{}, err
	}
	if maxHops < 1 {
		return RetrievalConfig{}, fmt.Errorf("invalid RAG_MAX_HOPS value %d: must be >= 1", maxHops)
	}

	topK, err := parseIntEnv("RETRIEVAL_TOP_K", 3)
	if err != nil {
		return RetrievalConfig{}, err
	}
	if topK < 1 {
		return RetrievalConfig{}, fmt.Errorf("invalid RETRIEVAL_TOP_K value %d: must be >= 1", topK)
	}

	language := getEnvOrDefault("RAG_LANGUAGE", "id")
	switch language {
	case "id", "en":
	default:
		return RetrievalConfig{}, fmt.Errorf("invalid RAG_LANGUAGE value %q: want id or en", language)
	}

	timeout, err := parseDurationSecondsEnv("LLM_TIMEOUT_SECONDS", 60*time.Second)
	if err != nil {
		return RetrievalConfig{}, err
	}

	return RetrievalConfig{
		Mode:        mode,
		MaxHops:     maxHops,
		TopK:        topK,
		Language:    language,
		CallTimeout: timeout,
	}, nil
}

// HistoryConfig selects the session transcript backend.
type HistoryConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration // 0 keeps transcripts forever
}

func loadHistoryConfig() (HistoryConfig, error) {
	backend := getEnvOrDefault("HISTORY_BACKEND", "memory")
	switch backend {
	case "memory", "redis":
	default:
		return HistoryConfig{}, fmt.Errorf("invalid HISTORY_BACKEND value %q: want memory or redis", backend)
	}

	db, err := parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return HistoryConfig{}, err
	}

	ttl, err := parseDurationSecondsEnv("HISTORY_TTL_SECONDS", 0)
	if err != nil {
		return HistoryConfig{}, err
	}

	cfg := HistoryConfig{
		Backend:       backend,
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
		TTL:           ttl,
	}
	return cfg, nil
}

// VectorStoreConfig selects where chunk vectors live.
type VectorStoreConfig struct {
	Backend          string // "memory" or "qdrant"
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	QdrantTimeout    time.Duration
}

func loadVectorStoreConfig() (VectorStoreConfig, error) {
	backend := getEnvOrDefault("VECTOR_STORE", "memory")
	switch backend {
	case "memory", "qdrant":
	default:
		return VectorStoreConfig{}, fmt.Errorf("invalid VECTOR_STORE value %q: want memory or qdrant", backend)
	}

	timeout, err := parseDurationSecondsEnv("QDRANT_TIMEOUT_SECONDS", 15*time.Second)
	if err != nil {
		return VectorStoreConfig{}, err
	}

	return VectorStoreConfig{
		Backend:          backend,
		QdrantURL:        getEnvOrDefault("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     os.Getenv("QDRANT_API_KEY"),
		QdrantCollection: getEnvOrDefault("QDRANT_COLLECTION", "legal_documents"),
		QdrantTimeout:    timeout,
	}, nil
}

// IngestConfig controls corpus loading and chunking. BuildOnStart can
// be disabled to serve an already-populated Qdrant collection.
type IngestConfig struct {
	DocsDir      string
	ChunkSize    int
	ChunkOverlap int
	BatchSize    int
	BuildOnStart bool
}

func loadIngestConfig() (IngestConfig, error) {
	chunkSize, err := parseIntEnv("CHUNK_SIZE", 0)
	if err != nil {
		return IngestConfig{}, err
	}

	overlap, err := parseIntEnv("CHUNK_OVERLAP", 0)
	if err != nil {
		return IngestConfig{}, err
	}

	batch, err := parseIntEnv("EMBED_BATCH_SIZE", 16)
	if err != nil {
		return IngestConfig{}, err
	}
	if batch < 1 {
		return IngestConfig{}, fmt.Errorf("invalid EMBED_BATCH_SIZE value %d: must be >= 1", batch)
	}

	buildOnStart, err := parseBoolEnv("INGEST_ON_START", true)
	if err != nil {
		return IngestConfig{}, err
	}

	return IngestConfig{
		DocsDir:      getEnvOrDefault("DOCS_DIR", "./documents"),
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
		BatchSize:    batch,
		BuildOnStart: buildOnStart,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseDurationSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	if *val < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must be >= 0", key, *val)
	}
	return time.Duration(*val) * time.Second, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
