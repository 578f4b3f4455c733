package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/evidence-collector/internal/model"
)

// Supported Jira document formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// DefaultDateRangeDays is the look-back used when date_range_days is unset.
const DefaultDateRangeDays = 90

// Config represents the application configuration.
// Secrets are never read from or written to config files; they only come
// from the environment (or a .env file in the working directory).
type Config struct {
	LocalOutputPath string `yaml:"local_output_path,omitempty" json:"local_output_path,omitempty" env:"EVIDENCE_LOCAL_OUTPUT_PATH"`
	DateRangeDays   int    `yaml:"date_range_days,omitempty" json:"date_range_days,omitempty" env:"EVIDENCE_DATE_RANGE_DAYS"`

	GitHub    GitHubConfig    `yaml:"github" json:"github"`
	Jira      JiraConfig      `yaml:"jira" json:"jira"`
	Collector CollectorConfig `yaml:"collector" json:"collector"`
}

// GitHubConfig configures the GitHub Enterprise Server pull request flow.
type GitHubConfig struct {
	RestEndpoint string `yaml:"rest_endpoint,omitempty" json:"rest_endpoint,omitempty" env:"GITHUB_SERVER_REST_ENDPOINT"`
	Query        string `yaml:"query,omitempty" json:"query,omitempty" env:"GITHUB_SERVER_QUERY"`

	Token string `yaml:"-" json:"-" env:"GITHUB_TOKEN"`
}

// JiraConfig configures the Jira Server JQL flow.
type JiraConfig struct {
	RestEndpoint string `yaml:"rest_endpoint,omitempty" json:"rest_endpoint,omitempty" env:"JIRA_SERVER_REST_ENDPOINT"`
	Username     string `yaml:"username,omitempty" json:"username,omitempty" env:"JIRA_SERVER_USERNAME"`
	JQLQuery     string `yaml:"jql_query,omitempty" json:"jql_query,omitempty" env:"JIRA_SERVER_JQL_QUERY"`
	Format       string `yaml:"format,omitempty" json:"format,omitempty" env:"JIRA_EVIDENCE_FORMAT"`

	Password string `yaml:"-" json:"-" env:"JIRA_SERVER_PASSWORD"`
}

// CollectorConfig configures the evidence collection endpoint.
type CollectorConfig struct {
	URL      string `yaml:"url,omitempty" json:"url,omitempty" env:"TUGBOAT_COLLECTOR_URL"`
	Username string `yaml:"username,omitempty" json:"username,omitempty" env:"TUGBOAT_USERNAME"`

	Password string `yaml:"-" json:"-" env:"TUGBOAT_PASSWORD"`
	APIKey   string `yaml:"-" json:"-" env:"TUGBOAT_API_KEY"`
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".evidence-collector"
	}
	return filepath.Join(configDir, "evidence-collector")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".evidence-collector.yaml"
}

// DotEnvPath returns the path of the optional .env file read for secrets.
func DotEnvPath() string {
	return ".env"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration.
// It loads the global config from the XDG config directory, merges any local
// .evidence-collector.yaml on top, then applies environment variables (a .env
// file in the working directory is read first; real environment wins).
func Load() (*Config, error) {
	return LoadFrom(ConfigPath(), LocalConfigPath(), DotEnvPath(), os.Environ())
}

// LoadFrom is Load with explicit paths and environment, empty paths are skipped.
func LoadFrom(globalPath, localPath, dotEnvPath string, environ []string) (*Config, error) {
	cfg := &Config{}

	if globalPath != "" {
		global, err := readFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load global config file: %w", err)
		}
		if global != nil {
			cfg = global
		}
	}

	if localPath != "" {
		local, err := readFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load local config file: %w", err)
		}
		if local != nil {
			cfg = mergeConfig(cfg, local)
		}
	}

	vars, err := environment(dotEnvPath, environ)
	if err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("%w: failed to parse environment: %w", model.ErrConfiguration, err)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadGlobal reads only the global config file, without defaults or
// environment. `config set` edits this view so nothing from the local file
// or the environment is persisted.
func LoadGlobal() (*Config, error) {
	cfg, err := readFile(ConfigPath())
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg, nil
}

// readFile reads one YAML config file. A missing file yields nil, nil.
func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", model.ErrConfiguration, path, err)
	}
	return &cfg, nil
}

// environment merges the optional .env file under the process environment.
func environment(dotEnvPath string, environ []string) (map[string]string, error) {
	vars := make(map[string]string)

	if dotEnvPath != "" {
		f, err := os.Open(dotEnvPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to open %s: %w", dotEnvPath, err)
		default:
			parsed, err := godotenv.Parse(f)
			_ = f.Close()
			if err != nil {
				return nil, fmt.Errorf("%w: failed to parse %s: %w", model.ErrConfiguration, dotEnvPath, err)
			}
			for k, v := range parsed {
				vars[k] = v
			}
		}
	}

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[k] = v
	}
	return vars, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DateRangeDays <= 0 {
		cfg.DateRangeDays = DefaultDateRangeDays
	}
	if cfg.Jira.Format == "" {
		cfg.Jira.Format = FormatXLSX
	}
}

// mergeConfig merges local config on top of global config.
// Local values take precedence when set.
func mergeConfig(global, local *Config) *Config {
	result := *global

	if local.LocalOutputPath != "" {
		result.LocalOutputPath = local.LocalOutputPath
	}
	if local.DateRangeDays > 0 {
		result.DateRangeDays = local.DateRangeDays
	}

	if local.GitHub.RestEndpoint != "" {
		result.GitHub.RestEndpoint = local.GitHub.RestEndpoint
	}
	if local.GitHub.Query != "" {
		result.GitHub.Query = local.GitHub.Query
	}

	if local.Jira.RestEndpoint != "" {
		result.Jira.RestEndpoint = local.Jira.RestEndpoint
	}
	if local.Jira.Username != "" {
		result.Jira.Username = local.Jira.Username
	}
	if local.Jira.JQLQuery != "" {
		result.Jira.JQLQuery = local.Jira.JQLQuery
	}
	if local.Jira.Format != "" {
		result.Jira.Format = local.Jira.Format
	}

	if local.Collector.URL != "" {
		result.Collector.URL = local.Collector.URL
	}
	if local.Collector.Username != "" {
		result.Collector.Username = local.Collector.Username
	}

	return &result
}

// setting names one required value for error messages.
type setting struct {
	key   string
	env   string
	value string
}

func (c *Config) collectorSettings() []setting {
	return []setting{
		{"collector.url", "TUGBOAT_COLLECTOR_URL", c.Collector.URL},
		{"collector.username", "TUGBOAT_USERNAME", c.Collector.Username},
		{"collector password", "TUGBOAT_PASSWORD", c.Collector.Password},
		{"collector api key", "TUGBOAT_API_KEY", c.Collector.APIKey},
	}
}

// ValidateGitHub checks that every setting needed by the GitHub flow is present.
// Upload settings are skipped when upload is false (dry runs).
func (c *Config) ValidateGitHub(upload bool) error {
	required := []setting{
		{"github.rest_endpoint", "GITHUB_SERVER_REST_ENDPOINT", c.GitHub.RestEndpoint},
		{"github.query", "GITHUB_SERVER_QUERY", c.GitHub.Query},
		{"github token", "GITHUB_TOKEN", c.GitHub.Token},
	}
	if upload {
		required = append(required, c.collectorSettings()...)
	}
	return checkRequired(required)
}

// ValidateJira checks that every setting needed by the Jira flow is present.
// Upload settings are skipped when upload is false (dry runs).
func (c *Config) ValidateJira(upload bool) error {
	required := []setting{
		{"jira.rest_endpoint", "JIRA_SERVER_REST_ENDPOINT", c.Jira.RestEndpoint},
		{"jira.username", "JIRA_SERVER_USERNAME", c.Jira.Username},
		{"jira password", "JIRA_SERVER_PASSWORD", c.Jira.Password},
		{"jira.jql_query", "JIRA_SERVER_JQL_QUERY", c.Jira.JQLQuery},
	}
	if upload {
		required = append(required, c.collectorSettings()...)
	}
	if err := checkRequired(required); err != nil {
		return err
	}
	if c.Jira.Format != FormatXLSX && c.Jira.Format != FormatCSV {
		return fmt.Errorf("%w: invalid jira.format %q (must be %s or %s)", model.ErrConfiguration, c.Jira.Format, FormatXLSX, FormatCSV)
	}
	return nil
}

func checkRequired(settings []setting) error {
	var missing []string
	for _, s := range settings {
		if strings.TrimSpace(s.value) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", s.key, s.env))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required settings: %s", model.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}

// Save writes the config to the global config file
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := ConfigPath()
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// secretKeys lists keys that `config set` refuses to store.
var secretKeys = map[string]string{
	"github.token":       "GITHUB_TOKEN",
	"jira.password":      "JIRA_SERVER_PASSWORD",
	"collector.password": "TUGBOAT_PASSWORD",
	"collector.api_key":  "TUGBOAT_API_KEY",
}

// SecretEnvVars returns the environment variables that carry secrets,
// sorted.
func SecretEnvVars() []string {
	vars := make([]string, 0, len(secretKeys))
	for _, v := range secretKeys {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// DotEnvTemplate returns a .env skeleton with one empty line per secret.
func DotEnvTemplate() string {
	var b strings.Builder
	b.WriteString("# evidence-collector secrets, read before the process environment\n")
	for _, v := range SecretEnvVars() {
		b.WriteString(v + "=\n")
	}
	return b.String()
}

// SettableKeys returns the keys accepted by Set, in display order.
func SettableKeys() []string {
	return []string{
		"local_output_path",
		"date_range_days",
		"github.rest_endpoint",
		"github.query",
		"jira.rest_endpoint",
		"jira.username",
		"jira.jql_query",
		"jira.format",
		"collector.url",
		"collector.username",
	}
}

// Set assigns a single key in memory. Call Save to persist it.
func (c *Config) Set(key, value string) error {
	if envVar, ok := secretKeys[strings.ToLower(key)]; ok {
		return fmt.Errorf("secrets cannot be stored in config files. Set the %s environment variable instead", envVar)
	}

	switch key {
	case "local_output_path":
		c.LocalOutputPath = value
	case "date_range_days":
		days, err := strconv.Atoi(value)
		if err != nil || days <= 0 {
			return fmt.Errorf("invalid date_range_days: %s (must be a positive integer)", value)
		}
		c.DateRangeDays = days
	case "github.rest_endpoint":
		c.GitHub.RestEndpoint = value
	case "github.query":
		c.GitHub.Query = value
	case "jira.rest_endpoint":
		c.Jira.RestEndpoint = value
	case "jira.username":
		c.Jira.Username = value
	case "jira.jql_query":
		c.Jira.JQLQuery = value
	case "jira.format":
		if value != FormatXLSX && value != FormatCSV {
			return fmt.Errorf("invalid format: %s (must be %s or %s)", value, FormatXLSX, FormatCSV)
		}
		c.Jira.Format = value
	case "collector.url":
		c.Collector.URL = value
	case "collector.username":
		c.Collector.Username = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// DefaultConfig returns a fully populated config with example values.
// This is useful for generating a complete config file template.
func DefaultConfig() *Config {
	return &Config{
		LocalOutputPath: "./evidence/",
		DateRangeDays:   DefaultDateRangeDays,
		GitHub: GitHubConfig{
			RestEndpoint: "https://github.example.com/",
			Query:        "is:pr is:merged merged:%s..%s",
		},
		Jira: JiraConfig{
			RestEndpoint: "https://jira.example.com",
			Username:     "jira-user",
			JQLQuery:     "resolved >= -90d ORDER BY resolved DESC",
			Format:       FormatXLSX,
		},
		Collector: CollectorConfig{
			URL:      "https://openapi.tugboatlogic.com/api/v0/evidence/collector/0/",
			Username: "collector-user",
		},
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
	DotEnvPath   string
	DotEnvExists bool
}

// GetConfigPaths returns path info for the global, local and .env files
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()
	dotEnvPath := DotEnvPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}
	absDotEnvPath, err := filepath.Abs(dotEnvPath)
	if err != nil {
		absDotEnvPath = dotEnvPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)
	_, dotEnvErr := os.Stat(dotEnvPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
		DotEnvPath:   absDotEnvPath,
		DotEnvExists: dotEnvErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# evidence-collector configuration file
# See: evidence-collector config defaults  (for all available options)
#
# Secrets are read from the environment (or ./.env) only:
#   GITHUB_TOKEN, JIRA_SERVER_PASSWORD, TUGBOAT_PASSWORD, TUGBOAT_API_KEY

# Where generated documents are saved for local review (optional)
# local_output_path: ./evidence/

# Number of days covered by the query window
date_range_days: 90

github:
  rest_endpoint: https://github.example.com/
  # Two %s placeholders receive the window start and end dates
  query: "is:pr is:merged merged:%s..%s"

# jira:
#   rest_endpoint: https://jira.example.com
#   username: jira-user
#   jql_query: "resolved >= -90d ORDER BY resolved DESC"
#   format: xlsx

collector:
  url: https://openapi.tugboatlogic.com/api/v0/evidence/collector/0/
  username: collector-user
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
