// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() or Load() which handle:
// - Optional TOML file values
// - Environment variable parsing with validation (environment wins over file)
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/richinex/staxchange/model"
)

// Settings holds all application configuration.
type Settings struct {
	LLM      LLMConfig
	Pipeline PipelineConfig
	GitHub   GitHubConfig
	Server   ServerConfig
	Storage  StorageConfig
	Log      LogConfig
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	MaxTokens   uint32
	Temperature float64
	// JSONMode asks providers that support it for a json_object response.
	JSONMode bool
}

// PipelineConfig holds conversion pipeline limits.
type PipelineConfig struct {
	MaxFiles       int // files kept after the extension filter
	BatchSizeLimit int // accumulated content length per batch
	Parallel       int // concurrent batch conversions; 1 is sequential
}

// GitHubConfig holds origin host and OAuth app configuration.
type GitHubConfig struct {
	APIURL       string // empty means api.github.com
	ClientID     string
	ClientSecret string
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host string
	Port int
	// PublicURL is the externally visible origin used for OAuth redirects.
	// Empty means derive it from each request.
	PublicURL string
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig holds run ledger configuration.
type StorageConfig struct {
	DBPath string // empty disables the ledger
}

// LogConfig holds diagnostic logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Defaults for the conversion pipeline.
const (
	DefaultMaxFiles       = 50
	DefaultBatchSizeLimit = 80_000
	DefaultProvider       = "openrouter"
)

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openrouter": {"OPENROUTER_MODEL", "gpt-4o-mini", "OPENROUTER_API_KEY"},
	"openai":     {"OPENAI_MODEL", "gpt-4o-mini", "OPENAI_API_KEY"},
	"anthropic":  {"ANTHROPIC_MODEL", "claude-sonnet-4-20250514", "ANTHROPIC_API_KEY"},
	"deepseek":   {"DEEPSEEK_MODEL", "deepseek-chat", "DEEPSEEK_API_KEY"},
	"gemini":     {"GEMINI_MODEL", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
	"or":     "openrouter",
}

// fileSettings mirrors the optional TOML configuration file.
type fileSettings struct {
	Provider string `toml:"provider"`
	LLM      struct {
		Model       string   `toml:"model"`
		MaxTokens   uint32   `toml:"max_tokens"`
		Temperature *float64 `toml:"temperature"`
		JSONMode    *bool    `toml:"json_mode"`
	} `toml:"llm"`
	Pipeline struct {
		MaxFiles       int `toml:"max_files"`
		BatchSizeLimit int `toml:"batch_size_limit"`
		Parallel       int `toml:"parallel"`
	} `toml:"pipeline"`
	GitHub struct {
		APIURL   string `toml:"api_url"`
		ClientID string `toml:"client_id"`
	} `toml:"github"`
	Server struct {
		Host      string `toml:"host"`
		Port      int    `toml:"port"`
		PublicURL string `toml:"public_url"`
	} `toml:"server"`
	Storage struct {
		DBPath string `toml:"db_path"`
	} `toml:"storage"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// New creates settings for the specified provider, loading values from environment variables.
// An empty provider falls back to STAXCHANGE_PROVIDER and then to openrouter.
// Returns an error if the provider is unknown or environment variables contain invalid values.
func New(provider string) (Settings, error) {
	return build(provider, fileSettings{})
}

// Load reads a TOML file and then applies environment overrides.
// An empty path behaves like New.
func Load(path, provider string) (Settings, error) {
	var fs fileSettings
	if path != "" {
		if _, err := toml.DecodeFile(path, &fs); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return build(provider, fs)
}

func build(provider string, fs fileSettings) (Settings, error) {
	if provider == "" {
		provider = os.Getenv("STAXCHANGE_PROVIDER")
	}
	if provider == "" {
		provider = fs.Provider
	}
	if provider == "" {
		provider = DefaultProvider
	}
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return Settings{}, err
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", orUint32(fs.LLM.MaxTokens, 8192))
	if err != nil {
		return Settings{}, err
	}

	defaultTemp := 0.2
	if fs.LLM.Temperature != nil {
		defaultTemp = *fs.LLM.Temperature
	}
	temperature, err := getEnvFloat64("LLM_TEMPERATURE", defaultTemp)
	if err != nil {
		return Settings{}, err
	}

	defaultJSON := false
	if fs.LLM.JSONMode != nil {
		defaultJSON = *fs.LLM.JSONMode
	}
	jsonMode, err := getEnvBool("LLM_JSON_MODE", defaultJSON)
	if err != nil {
		return Settings{}, err
	}

	maxFiles, err := getEnvInt("PIPELINE_MAX_FILES", orInt(fs.Pipeline.MaxFiles, DefaultMaxFiles))
	if err != nil {
		return Settings{}, err
	}

	batchSize, err := getEnvInt("PIPELINE_BATCH_SIZE", orInt(fs.Pipeline.BatchSizeLimit, DefaultBatchSizeLimit))
	if err != nil {
		return Settings{}, err
	}

	parallel, err := getEnvInt("PIPELINE_PARALLEL", orInt(fs.Pipeline.Parallel, 1))
	if err != nil {
		return Settings{}, err
	}

	port, err := getEnvInt("PORT", orInt(fs.Server.Port, 9000))
	if err != nil {
		return Settings{}, err
	}

	if maxFiles <= 0 {
		return Settings{}, fmt.Errorf("invalid value for PIPELINE_MAX_FILES: %d: must be positive", maxFiles)
	}
	if batchSize <= 0 {
		return Settings{}, fmt.Errorf("invalid value for PIPELINE_BATCH_SIZE: %d: must be positive", batchSize)
	}
	if parallel <= 0 {
		parallel = 1
	}

	// Get model from environment, then file, then default
	modelName := os.Getenv(info.modelEnv)
	if modelName == "" {
		modelName = orString(fs.LLM.Model, info.defaultModel)
	}

	return Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       modelName,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			JSONMode:    jsonMode,
		},
		Pipeline: PipelineConfig{
			MaxFiles:       maxFiles,
			BatchSizeLimit: batchSize,
			Parallel:       parallel,
		},
		GitHub: GitHubConfig{
			APIURL:       getEnvString("GITHUB_API_URL", fs.GitHub.APIURL),
			ClientID:     getEnvString("GITHUB_CLIENT_ID", fs.GitHub.ClientID),
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		},
		Server: ServerConfig{
			Host:      getEnvString("HOST", orString(fs.Server.Host, "0.0.0.0")),
			Port:      port,
			PublicURL: strings.TrimRight(getEnvString("PUBLIC_URL", fs.Server.PublicURL), "/"),
		},
		Storage: StorageConfig{
			DBPath: getEnvString("STAXCHANGE_DB", fs.Storage.DBPath),
		},
		Log: LogConfig{
			Level:  getEnvString("LOG_LEVEL", orString(fs.Log.Level, "info")),
			Format: getEnvString("LOG_FORMAT", orString(fs.Log.Format, "text")),
		},
	}, nil
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// getProviderInfo returns configuration for a provider.
func getProviderInfo(provider string) (providerInfo, error) {
	info, ok := providers[provider]
	if !ok {
		return providerInfo{}, fmt.Errorf("unknown provider: %q", provider)
	}
	return info, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// A missing key is a *model.ConfigurationError.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", &model.ConfigurationError{Key: info.apiKeyEnv}
	}
	return key, nil
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return b, nil
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}

func orUint32(v, def uint32) uint32 {
	if v != 0 {
		return v
	}
	return def
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
