package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicVersion   = "2023-06-01"
	defaultMaxTokens          = 4096
	defaultRequestTimeout     = "2m"
	defaultRetryMaxRetries    = 3
	defaultRetryBaseDelay     = "300ms"
	defaultRetryMaxDelay      = "5s"
	defaultMaxRounds          = 3
	defaultToolTimeout        = "30s"
	defaultSearchEndpoint     = "https://api.tavily.com/search"
	defaultSearchKeyFile      = ".config/termagent/search_key"
	defaultLogLevel           = "warn"
	defaultLogFormat          = "text"
	defaultUITheme            = "dark"
	defaultToggleKey          = "ctrl+t"
	defaultConfigRelativePath = ".config/termagent/config.toml"

	// MaxRounds is the hard ceiling on tool rounds per turn.
	MaxRounds = 3

	envAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	envModel             = "TERMAGENT_MODEL"
	envBaseURL           = "TERMAGENT_BASE_URL"
	envRequestTimeout    = "TERMAGENT_REQUEST_TIMEOUT"
	envSearchAPIKey      = "TAVILY_API_KEY"
	envSearchKeyFile     = "TERMAGENT_SEARCH_KEY_FILE"
	envLogLevel          = "TERMAGENT_LOG_LEVEL"
	envLogFile           = "TERMAGENT_LOG_FILE"
	envLogFormat         = "TERMAGENT_LOG_FORMAT"
	envRetryMaxRetries   = "TERMAGENT_RETRY_MAX_RETRIES"
	envAnthropicVersion  = "TERMAGENT_ANTHROPIC_VERSION"
	envTranscriptDir     = "TERMAGENT_TRANSCRIPT_DIR"
	envToggleKey         = "TERMAGENT_TOGGLE_KEY"
	envShowInternal      = "TERMAGENT_SHOW_INTERNAL"
	envWorkspace         = "TERMAGENT_WORKSPACE"
	envToolTimeout       = "TERMAGENT_TOOL_TIMEOUT"
	envProfile           = "TERMAGENT_PROFILE"
	envUITheme           = "TERMAGENT_THEME"
	envSearchEndpoint    = "TERMAGENT_SEARCH_ENDPOINT"
	envAnthropicMaxToken = "TERMAGENT_MAX_TOKENS"
)

var (
	// ErrInvalidConfig indicates malformed configuration input.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the application configuration root.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Agent    AgentConfig    `toml:"agent"`
	Tools    ToolsConfig    `toml:"tools"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
	Session  SessionConfig  `toml:"session"`
}

// ProviderConfig configures the completion service.
type ProviderConfig struct {
	Anthropic AnthropicProviderConfig `toml:"anthropic"`
}

// AnthropicProviderConfig configures Anthropic-specific runtime values.
type AnthropicProviderConfig struct {
	APIKey         string      `toml:"api_key"`
	Model          string      `toml:"model"`
	BaseURL        string      `toml:"base_url"`
	Version        string      `toml:"version"`
	MaxTokens      int         `toml:"max_tokens"`
	RequestTimeout string      `toml:"request_timeout"`
	Retry          RetryConfig `toml:"retry"`
}

// RetryConfig stores retry policy as config-friendly values.
type RetryConfig struct {
	MaxRetries int    `toml:"max_retries"`
	BaseDelay  string `toml:"base_delay"`
	MaxDelay   string `toml:"max_delay"`
}

// AgentConfig configures the orchestration loop.
type AgentConfig struct {
	MaxRounds int    `toml:"max_rounds"`
	Profile   string `toml:"profile"`
}

// ToolsConfig configures the built-in tools.
type ToolsConfig struct {
	Workspace string       `toml:"workspace"`
	Timeout   string       `toml:"timeout"`
	Search    SearchConfig `toml:"search"`
}

// SearchConfig configures the web search backend.
type SearchConfig struct {
	APIKey   string `toml:"api_key"`
	KeyFile  string `toml:"key_file"`
	Endpoint string `toml:"endpoint"`
}

// LogConfig configures the global slog logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

// UIConfig configures the interactive terminal.
type UIConfig struct {
	Theme        string `toml:"theme"`
	ShowInternal bool   `toml:"show_internal"`
	ToggleKey    string `toml:"toggle_key"`
}

// SessionConfig configures session persistence.
type SessionConfig struct {
	TranscriptDir string `toml:"transcript_dir"`
}

// LoadOptions controls config loading behavior.
type LoadOptions struct {
	Path string
}

// AnthropicSettings is a validated Anthropic runtime settings snapshot.
type AnthropicSettings struct {
	APIKey         string
	Model          string
	BaseURL        string
	Version        string
	MaxTokens      int
	RequestTimeout time.Duration
	Retry          AnthropicRetrySettings
}

// AnthropicRetrySettings is the parsed retry policy.
type AnthropicRetrySettings struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// ToolSettings is a validated tool runtime settings snapshot.
type ToolSettings struct {
	Workspace      string
	Timeout        time.Duration
	SearchAPIKey   string
	SearchKeyFile  string
	SearchEndpoint string
}

// Default returns application defaults.
func Default() Config {
	return Config{
		Provider: ProviderConfig{
			Anthropic: AnthropicProviderConfig{
				Model:          defaultAnthropicModel,
				Version:        defaultAnthropicVersion,
				MaxTokens:      defaultMaxTokens,
				RequestTimeout: defaultRequestTimeout,
				Retry: RetryConfig{
					MaxRetries: defaultRetryMaxRetries,
					BaseDelay:  defaultRetryBaseDelay,
					MaxDelay:   defaultRetryMaxDelay,
				},
			},
		},
		Agent: AgentConfig{
			MaxRounds: defaultMaxRounds,
		},
		Tools: ToolsConfig{
			Timeout: defaultToolTimeout,
			Search: SearchConfig{
				KeyFile:  defaultSearchKeyFilePath(),
				Endpoint: defaultSearchEndpoint,
			},
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		UI: UIConfig{
			Theme:     defaultUITheme,
			ToggleKey: defaultToggleKey,
		},
	}
}

// Load reads config file then applies environment variable overrides.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = DefaultPath()
	}

	if err := mergeConfigFile(&cfg, path); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns the per-user config file location, or "" when the
// home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultConfigRelativePath)
}

// AnthropicSettings returns validated settings suitable for runtime wiring.
func (c Config) AnthropicSettings() (AnthropicSettings, error) {
	anth := c.Provider.Anthropic
	baseDelay, err := parseDuration("provider.anthropic.retry.base_delay", anth.Retry.BaseDelay)
	if err != nil {
		return AnthropicSettings{}, err
	}
	maxDelay, err := parseDuration("provider.anthropic.retry.max_delay", anth.Retry.MaxDelay)
	if err != nil {
		return AnthropicSettings{}, err
	}
	timeout, err := parseDuration("provider.anthropic.request_timeout", anth.RequestTimeout)
	if err != nil {
		return AnthropicSettings{}, err
	}
	if anth.Retry.MaxRetries < 0 {
		return AnthropicSettings{}, fmt.Errorf("%w: anthropic retry max_retries must be >= 0", ErrInvalidConfig)
	}
	if anth.MaxTokens < 0 {
		return AnthropicSettings{}, fmt.Errorf("%w: anthropic max_tokens must be >= 0", ErrInvalidConfig)
	}

	return AnthropicSettings{
		APIKey:         strings.TrimSpace(anth.APIKey),
		Model:          strings.TrimSpace(anth.Model),
		BaseURL:        strings.TrimSpace(anth.BaseURL),
		Version:        strings.TrimSpace(anth.Version),
		MaxTokens:      anth.MaxTokens,
		RequestTimeout: timeout,
		Retry: AnthropicRetrySettings{
			MaxRetries: anth.Retry.MaxRetries,
			BaseDelay:  baseDelay,
			MaxDelay:   maxDelay,
		},
	}, nil
}

// ToolSettings returns validated tool settings. An empty workspace stays
// empty; the caller substitutes the working directory.
func (c Config) ToolSettings() (ToolSettings, error) {
	timeout, err := parseDuration("tools.timeout", c.Tools.Timeout)
	if err != nil {
		return ToolSettings{}, err
	}
	return ToolSettings{
		Workspace:      expandHome(strings.TrimSpace(c.Tools.Workspace)),
		Timeout:        timeout,
		SearchAPIKey:   strings.TrimSpace(c.Tools.Search.APIKey),
		SearchKeyFile:  expandHome(strings.TrimSpace(c.Tools.Search.KeyFile)),
		SearchEndpoint: strings.TrimSpace(c.Tools.Search.Endpoint),
	}, nil
}

// Rounds returns the configured tool round limit clamped to 1..MaxRounds.
func (c Config) Rounds() int {
	switch {
	case c.Agent.MaxRounds <= 0:
		return MaxRounds
	case c.Agent.MaxRounds > MaxRounds:
		return MaxRounds
	default:
		return c.Agent.MaxRounds
	}
}

func mergeConfigFile(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if value, ok := os.LookupEnv(envAnthropicAPIKey); ok {
		cfg.Provider.Anthropic.APIKey = value
	}
	if value, ok := os.LookupEnv(envSearchAPIKey); ok {
		cfg.Tools.Search.APIKey = value
	}

	strs := []struct {
		env    string
		target *string
	}{
		{envModel, &cfg.Provider.Anthropic.Model},
		{envBaseURL, &cfg.Provider.Anthropic.BaseURL},
		{envAnthropicVersion, &cfg.Provider.Anthropic.Version},
		{envRequestTimeout, &cfg.Provider.Anthropic.RequestTimeout},
		{envSearchKeyFile, &cfg.Tools.Search.KeyFile},
		{envSearchEndpoint, &cfg.Tools.Search.Endpoint},
		{envWorkspace, &cfg.Tools.Workspace},
		{envToolTimeout, &cfg.Tools.Timeout},
		{envProfile, &cfg.Agent.Profile},
		{envLogLevel, &cfg.Log.Level},
		{envLogFile, &cfg.Log.File},
		{envLogFormat, &cfg.Log.Format},
		{envUITheme, &cfg.UI.Theme},
		{envToggleKey, &cfg.UI.ToggleKey},
		{envTranscriptDir, &cfg.Session.TranscriptDir},
	}
	for _, s := range strs {
		if value, ok := os.LookupEnv(s.env); ok && strings.TrimSpace(value) != "" {
			*s.target = strings.TrimSpace(value)
		}
	}

	ints := []struct {
		env    string
		target *int
	}{
		{envRetryMaxRetries, &cfg.Provider.Anthropic.Retry.MaxRetries},
		{envAnthropicMaxToken, &cfg.Provider.Anthropic.MaxTokens},
	}
	for _, i := range ints {
		value, ok := os.LookupEnv(i.env)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, i.env, err)
		}
		*i.target = parsed
	}

	if value, ok := os.LookupEnv(envShowInternal); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, envShowInternal, err)
		}
		cfg.UI.ShowInternal = parsed
	}
	return nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.Provider.Anthropic.Model) == "" {
		return fmt.Errorf("%w: provider.anthropic.model is required", ErrInvalidConfig)
	}
	if cfg.Agent.MaxRounds < 0 {
		return fmt.Errorf("%w: agent.max_rounds must be >= 0", ErrInvalidConfig)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, cfg.Log.Level)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalidConfig, cfg.Log.Format)
	}
	if _, err := cfg.AnthropicSettings(); err != nil {
		return err
	}
	if _, err := cfg.ToolSettings(); err != nil {
		return err
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, field, err)
	}
	return d, nil
}

func defaultSearchKeyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultSearchKeyFile)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
