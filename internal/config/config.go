package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	History HistoryConfig
	Archive ArchiveConfig
	Policy  PolicyConfig
	Relay   RelayConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	archive, err := loadArchiveConfig()
	if err != nil {
		return nil, err
	}

	relay, err := loadRelayConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		History: history,
		Archive: archive,
		Policy:  loadPolicyConfig(),
		Relay:   relay,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr    string
	LogMode string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	logMode := getEnvOrDefault("LOG_MODE", "dev")

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":5000" 或 "127.0.0.1:5000"。
		return ServerConfig{Addr: port, LogMode: logMode}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, LogMode: logMode}, nil
}

// 支持的模型提供方。
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider string

	// Ark
	APIKey    string
	AccessKey string
	SecretKey string
	Model     string
	BaseURL   string
	Region    string

	// OpenAI 兼容接口
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// 生成参数，默认值与旧版服务保持一致
	Temperature      float32
	TopP             float32
	MaxTokens        int
	FrequencyPenalty float32
	PresencePenalty  float32

	Timeout time.Duration
}

// Enabled 表示是否提供了必需的 Ark 密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewArkChatModel 使用配置创建一个 Ark 模型实例。
func (c AIConfig) NewArkChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	temperature := c.Temperature
	topP := c.TopP
	maxTokens := c.MaxTokens
	frequencyPenalty := c.FrequencyPenalty
	presencePenalty := c.PresencePenalty

	cfg := &ark.ChatModelConfig{
		BaseURL:          c.BaseURL,
		Region:           c.Region,
		APIKey:           c.APIKey,
		AccessKey:        c.AccessKey,
		SecretKey:        c.SecretKey,
		Model:            c.Model,
		MaxTokens:        &maxTokens,
		Temperature:      &temperature,
		TopP:             &topP,
		FrequencyPenalty: &frequencyPenalty,
		PresencePenalty:  &presencePenalty,
	}

	return ark.NewChatModel(ctx, cfg)
}

// NewOpenAIChatModel 使用配置创建一个 OpenAI 兼容接口的模型实例。
func (c AIConfig) NewOpenAIChatModel(ctx context.Context) (model.ChatModel, error) {
	if c.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY 缺失，openai 提供方需要该密钥")
	}
	if c.OpenAIModel == "" {
		return nil, fmt.Errorf("OPENAI_MODEL 不能为空")
	}

	temperature := c.Temperature
	topP := c.TopP
	maxTokens := c.MaxTokens
	frequencyPenalty := c.FrequencyPenalty
	presencePenalty := c.PresencePenalty

	cfg := &openai.ChatModelConfig{
		APIKey:           c.OpenAIAPIKey,
		BaseURL:          c.OpenAIBaseURL,
		Model:            c.OpenAIModel,
		MaxTokens:        &maxTokens,
		Temperature:      &temperature,
		TopP:             &topP,
		FrequencyPenalty: &frequencyPenalty,
		PresencePenalty:  &presencePenalty,
		Timeout:          c.Timeout,
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderOpenAI))
	switch provider {
	case ProviderArk, ProviderOpenAI, ProviderMock:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	temperature, err := float32EnvOrDefault("AI_TEMPERATURE", 0.2)
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := float32EnvOrDefault("AI_TOP_P", 1)
	if err != nil {
		return AIConfig{}, err
	}

	frequencyPenalty, err := float32EnvOrDefault("AI_FREQUENCY_PENALTY", 0.5)
	if err != nil {
		return AIConfig{}, err
	}

	presencePenalty, err := float32EnvOrDefault("AI_PRESENCE_PENALTY", 0)
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens := 3000
	if override, err := parseOptionalIntEnv("AI_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return AIConfig{}, fmt.Errorf("AI_MAX_TOKENS must be positive, got %d", *override)
		}
		maxTokens = *override
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 60*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:         provider,
		APIKey:           strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:        strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:        strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:            strings.TrimSpace(os.Getenv("Model")),
		BaseURL:          getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:           getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:     strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:    getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:      getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		Temperature:      temperature,
		TopP:             topP,
		MaxTokens:        maxTokens,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
		Timeout:          timeout,
	}, nil
}

// 会话历史后端。
const (
	HistoryMemory = "memory"
	HistoryRedis  = "redis"
)

// HistoryConfig 描述会话历史存储。
type HistoryConfig struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

func loadHistoryConfig() (HistoryConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("HISTORY_BACKEND", HistoryMemory))
	if backend != HistoryMemory && backend != HistoryRedis {
		return HistoryConfig{}, fmt.Errorf("invalid HISTORY_BACKEND value %q", backend)
	}

	db := 0
	if override, err := parseOptionalIntEnv("REDIS_DB"); err != nil {
		return HistoryConfig{}, err
	} else if override != nil {
		db = *override
	}

	ttl, err := parseDurationEnv("HISTORY_TTL", 0)
	if err != nil {
		return HistoryConfig{}, err
	}

	return HistoryConfig{
		Backend:       backend,
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
		TTL:           ttl,
	}, nil
}

// 归档驱动。
const (
	ArchiveNone     = "none"
	ArchiveSQLite   = "sqlite"
	ArchivePostgres = "postgres"
)

// ArchiveConfig 描述对话归档（持久化）配置。
type ArchiveConfig struct {
	Driver      string
	DSN         string
	Timezone    string
	AutoMigrate bool
}

func loadArchiveConfig() (ArchiveConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("ARCHIVE_DRIVER", ArchiveNone))
	dsn := strings.TrimSpace(os.Getenv("ARCHIVE_DSN"))

	switch driver {
	case ArchiveNone:
	case ArchiveSQLite:
		if dsn == "" {
			dsn = "chat_history.db"
		}
	case ArchivePostgres:
		if dsn == "" {
			return ArchiveConfig{}, fmt.Errorf("ARCHIVE_DSN is required when ARCHIVE_DRIVER=postgres")
		}
	default:
		return ArchiveConfig{}, fmt.Errorf("invalid ARCHIVE_DRIVER value %q", driver)
	}

	autoMigrate, err := parseBoolEnv("ARCHIVE_AUTO_MIGRATE", true)
	if err != nil {
		return ArchiveConfig{}, err
	}

	return ArchiveConfig{
		Driver:      driver,
		DSN:         dsn,
		Timezone:    getEnvOrDefault("ARCHIVE_TIMEZONE", "Asia/Kolkata"),
		AutoMigrate: autoMigrate,
	}, nil
}

// PolicyConfig 选择提示词策略。
type PolicyConfig struct {
	Name string
	File string
}

func loadPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Name: getEnvOrDefault("POLICY_NAME", "dyslexia-friendly"),
		File: strings.TrimSpace(os.Getenv("POLICY_FILE")),
	}
}

// RelayConfig 描述中继接口的准入与跨域设置。
type RelayConfig struct {
	MinInterval    time.Duration
	AllowedOrigins []string
}

func loadRelayConfig() (RelayConfig, error) {
	interval, err := parseDurationEnv("RELAY_MIN_INTERVAL", 0)
	if err != nil {
		return RelayConfig{}, err
	}
	if interval < 0 {
		return RelayConfig{}, fmt.Errorf("RELAY_MIN_INTERVAL must not be negative")
	}

	var origins []string
	for _, origin := range strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return RelayConfig{MinInterval: interval, AllowedOrigins: origins}, nil
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

func parseOptionalFloat32Env(key string) (*float32, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	result := float32(val)
	return &result, nil
}

func float32EnvOrDefault(key string, defaultValue float32) (float32, error) {
	val, err := parseOptionalFloat32Env(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

// parseDurationEnv 接受 Go 时长格式（"2s"）或纯毫秒数（"2000"）。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
