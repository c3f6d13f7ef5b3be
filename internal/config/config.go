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

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Story  StoryConfig
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

	storyCfg, err := loadStoryConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Story: storyCfg}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoryConfig 描述章节存储与会话清理策略。
type StoryConfig struct {
	SessionTimeout time.Duration
	SweepInterval  time.Duration
	MaxImageBytes  int64
}

func loadStoryConfig() (StoryConfig, error) {
	timeoutHours := 24
	if override, err := parseOptionalIntEnv("SESSION_TIMEOUT_HOURS"); err != nil {
		return StoryConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return StoryConfig{}, fmt.Errorf("SESSION_TIMEOUT_HOURS must be at least 1, got %d", *override)
		}
		timeoutHours = *override
	}

	sweepMinutes := 60
	if override, err := parseOptionalIntEnv("SWEEP_INTERVAL_MINUTES"); err != nil {
		return StoryConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return StoryConfig{}, fmt.Errorf("SWEEP_INTERVAL_MINUTES must be at least 1, got %d", *override)
		}
		sweepMinutes = *override
	}

	maxImage := int64(10 << 20)
	if override, err := parseOptionalIntEnv("MAX_IMAGE_BYTES"); err != nil {
		return StoryConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return StoryConfig{}, fmt.Errorf("MAX_IMAGE_BYTES must be positive, got %d", *override)
		}
		maxImage = int64(*override)
	}

	return StoryConfig{
		SessionTimeout: time.Duration(timeoutHours) * time.Hour,
		SweepInterval:  time.Duration(sweepMinutes) * time.Minute,
		MaxImageBytes:  maxImage,
	}, nil
}

// Provider 标识接入的大模型供应商。
type Provider string

const (
	ProviderArk    Provider = "ark"
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider Provider

	// Ark
	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// arkEnabled 表示是否提供了 Ark 必需的密钥。
func (c AIConfig) arkEnabled() bool {
	return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
}

// ResolveProvider 返回实际接入的供应商。显式指定时校验凭证；未指定时按
// ark、gemini、openai 的顺序探测可用凭证，全部缺失则返回空值（禁用生成功能）。
func (c AIConfig) ResolveProvider() (Provider, error) {
	switch c.Provider {
	case ProviderArk:
		if !c.arkEnabled() {
			return "", fmt.Errorf("STORY_PROVIDER=ark but Ark credentials are incomplete")
		}
		return ProviderArk, nil
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return "", fmt.Errorf("STORY_PROVIDER=gemini but GEMINI_API_KEY is missing")
		}
		return ProviderGemini, nil
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return "", fmt.Errorf("STORY_PROVIDER=openai but OPENAI_API_KEY is missing")
		}
		return ProviderOpenAI, nil
	case "":
		switch {
		case c.arkEnabled():
			return ProviderArk, nil
		case c.GeminiAPIKey != "":
			return ProviderGemini, nil
		case c.OpenAIAPIKey != "":
			return ProviderOpenAI, nil
		default:
			return "", nil
		}
	default:
		return "", fmt.Errorf("unknown STORY_PROVIDER value %q", string(c.Provider))
	}
}

// NewChatModel 使用 Ark 配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.arkEnabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + ARK_MODEL 或 AK/SK 组合")
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
		BaseURL:     c.ArkBaseURL,
		Region:      c.ArkRegion,
		APIKey:      c.ArkAPIKey,
		AccessKey:   c.ArkAccessKey,
		SecretKey:   c.ArkSecretKey,
		Model:       c.ArkModel,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:     Provider(strings.ToLower(strings.TrimSpace(os.Getenv("STORY_PROVIDER")))),
		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:     strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:   getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:    getEnvOrDefault("ARK_REGION", "cn-beijing"),
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-pro"),
		OpenAIAPIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:  getEnvOrDefault("OPENAI_MODEL", "gpt-4o"),
		Temperature:  temperature,
		TopP:         topP,
		MaxTokens:    maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
