package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting of the API service.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Storage StorageConfig
	Events  EventsConfig
	Chat    ChatConfig
	Log     LogConfig
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

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Storage: storage,
		Events: EventsConfig{
			NATSURL: strings.TrimSpace(os.Getenv("NATS_URL")),
			Subject: getEnvOrDefault("CONVERSATION_SUBJECT", "concierge.conversation.persisted"),
		},
		Chat: chat,
		Log:  LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr            string
	AdminToken      string
	ShutdownTimeout time.Duration
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	shutdown, err := parseDurationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return ServerConfig{}, err
	}

	cfg := ServerConfig{
		AdminToken:      strings.TrimSpace(os.Getenv("ADMIN_TOKEN")),
		ShutdownTimeout: shutdown,
	}

	if strings.Contains(port, ":") {
		// Allows ":8080" or "127.0.0.1:8080".
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig describes the Ark chat model.
type AIConfig struct {
	APIKey         string
	AccessKey      string
	SecretKey      string
	Model          string
	BaseURL        string
	Region         string
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	Timeout        *time.Duration
	StreamResponse bool
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates the Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model or an AK/SK pair")
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
		Timeout:     c.Timeout,
	}

	return ark.NewChatModel(ctx, cfg)
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

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	var timeout *time.Duration
	if d, err := parseDurationEnv("ARK_TIMEOUT", 0); err != nil {
		return AIConfig{}, err
	} else if d > 0 {
		timeout = &d
	}

	return AIConfig{
		APIKey:         strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:      strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:      strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:          strings.TrimSpace(os.Getenv("Model")),
		BaseURL:        getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:         getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature:    temperature,
		TopP:           topP,
		MaxTokens:      maxTokens,
		Timeout:        timeout,
		StreamResponse: stream,
	}, nil
}

// StorageConfig selects the durable transcript backend and its cache.
type StorageConfig struct {
	// DatabaseURL is postgres://, sqlite://path, memory:// or empty.
	DatabaseURL    string
	RedisURL       string
	RedisRecordTTL time.Duration
}

func loadStorageConfig() (StorageConfig, error) {
	ttl, err := parseDurationEnv("REDIS_RECORD_TTL", 10*time.Minute)
	if err != nil {
		return StorageConfig{}, err
	}
	return StorageConfig{
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		RedisRecordTTL: ttl,
	}, nil
}

// EventsConfig describes the optional NATS publisher.
type EventsConfig struct {
	NATSURL string
	Subject string
}

// Enabled reports whether a NATS server is configured.
func (c EventsConfig) Enabled() bool {
	return c.NATSURL != ""
}

// ChatConfig tunes the conversation flow.
type ChatConfig struct {
	HistoryMaxTurns int
	HistoryMaxChars int
	PersistTimeout  time.Duration
	PersonaFile     string
}

func loadChatConfig() (ChatConfig, error) {
	turns, err := parseNonNegativeIntEnv("CHAT_HISTORY_MAX_TURNS")
	if err != nil {
		return ChatConfig{}, err
	}

	chars, err := parseNonNegativeIntEnv("CHAT_HISTORY_MAX_CHARS")
	if err != nil {
		return ChatConfig{}, err
	}

	persist, err := parseDurationEnv("CHAT_PERSIST_TIMEOUT", 5*time.Second)
	if err != nil {
		return ChatConfig{}, err
	}

	return ChatConfig{
		HistoryMaxTurns: turns,
		HistoryMaxChars: chars,
		PersistTimeout:  persist,
		PersonaFile:     strings.TrimSpace(os.Getenv("PERSONA_FILE")),
	}, nil
}

// LogConfig selects the log level.
type LogConfig struct {
	Level string
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

func parseNonNegativeIntEnv(key string) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil || val == nil {
		return 0, err
	}
	if *val < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *val)
	}
	return *val, nil
}

// parseDurationEnv accepts Go durations ("30s") or bare seconds ("30").
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return d, nil
}
