package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/evidence-collector/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestLoadFromMergesLocalOverGlobal(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", `
date_range_days: 30
github:
  rest_endpoint: https://global.example.com/
  query: "is:pr merged:%s..%s"
collector:
  url: https://collector.example.com/
  username: global-user
`)
	local := writeFile(t, dir, "local.yaml", `
github:
  rest_endpoint: https://local.example.com/
collector:
  username: local-user
`)

	cfg, err := LoadFrom(global, local, "", nil)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	want := &Config{
		DateRangeDays: 30,
		GitHub: GitHubConfig{
			RestEndpoint: "https://local.example.com/",
			Query:        "is:pr merged:%s..%s",
		},
		Jira: JiraConfig{Format: FormatXLSX},
		Collector: CollectorConfig{
			URL:      "https://collector.example.com/",
			Username: "local-user",
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadFrom() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromMissingFilesUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, "nope.yaml"), filepath.Join(dir, "nope-local.yaml"), filepath.Join(dir, ".env"), nil)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.DateRangeDays != DefaultDateRangeDays {
		t.Errorf("DateRangeDays = %d, want %d", cfg.DateRangeDays, DefaultDateRangeDays)
	}
	if cfg.Jira.Format != FormatXLSX {
		t.Errorf("Jira.Format = %q, want %q", cfg.Jira.Format, FormatXLSX)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", `
github:
  rest_endpoint: https://file.example.com/
  query: file-query
`)
	dotEnv := writeFile(t, dir, ".env", `
GITHUB_TOKEN=from-dotenv
TUGBOAT_API_KEY=key-from-dotenv
TUGBOAT_PASSWORD=password-from-dotenv
`)
	environ := []string{
		"GITHUB_SERVER_QUERY=env-query",
		"TUGBOAT_PASSWORD=password-from-env",
		"EVIDENCE_DATE_RANGE_DAYS=14",
		"EMPTY_IGNORED",
	}

	cfg, err := LoadFrom(global, "", dotEnv, environ)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"file value kept when env unset", cfg.GitHub.RestEndpoint, "https://file.example.com/"},
		{"env overrides file", cfg.GitHub.Query, "env-query"},
		{"secret from dotenv", cfg.GitHub.Token, "from-dotenv"},
		{"api key from dotenv", cfg.Collector.APIKey, "key-from-dotenv"},
		{"real env wins over dotenv", cfg.Collector.Password, "password-from-env"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
	if cfg.DateRangeDays != 14 {
		t.Errorf("DateRangeDays = %d, want 14", cfg.DateRangeDays)
	}
}

func TestLoadFromInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	global := writeFile(t, dir, "global.yaml", "github: [not, a, map")

	_, err := LoadFrom(global, "", "", nil)
	if !errors.Is(err, model.ErrConfiguration) {
		t.Fatalf("LoadFrom() error = %v, want ErrConfiguration", err)
	}
}

func TestSecretsNeverSerialized(t *testing.T) {
	cfg := &Config{
		GitHub:    GitHubConfig{RestEndpoint: "https://gh.example.com/", Token: "ghp_secret"},
		Jira:      JiraConfig{Password: "jira-secret"},
		Collector: CollectorConfig{Password: "tb-secret", APIKey: "tb-key"},
	}
	out, err := cfg.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error = %v", err)
	}
	for _, secret := range []string{"ghp_secret", "jira-secret", "tb-secret", "tb-key"} {
		if strings.Contains(out, secret) {
			t.Errorf("ToYAML() output contains secret %q:\n%s", secret, out)
		}
	}
}

func validConfig() *Config {
	return &Config{
		DateRangeDays: 90,
		GitHub: GitHubConfig{
			RestEndpoint: "https://gh.example.com/",
			Query:        "is:pr merged:%s..%s",
			Token:        "token",
		},
		Jira: JiraConfig{
			RestEndpoint: "https://jira.example.com",
			Username:     "user",
			Password:     "pass",
			JQLQuery:     "project = PROJ",
			Format:       FormatXLSX,
		},
		Collector: CollectorConfig{
			URL:      "https://collector.example.com/",
			Username: "user",
			Password: "pass",
			APIKey:   "key",
		},
	}
}

func TestValidateGitHub(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		upload      bool
		wantErr     bool
		wantMissing []string
	}{
		{
			name:   "complete",
			mutate: func(*Config) {},
			upload: true,
		},
		{
			name: "lists every missing key",
			mutate: func(c *Config) {
				c.GitHub.Token = ""
				c.Collector.APIKey = ""
			},
			upload:      true,
			wantErr:     true,
			wantMissing: []string{"GITHUB_TOKEN", "TUGBOAT_API_KEY"},
		},
		{
			name: "collector settings ignored without upload",
			mutate: func(c *Config) {
				c.Collector = CollectorConfig{}
			},
			upload: false,
		},
		{
			name: "whitespace counts as missing",
			mutate: func(c *Config) {
				c.GitHub.Query = "   "
			},
			upload:      false,
			wantErr:     true,
			wantMissing: []string{"github.query"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.ValidateGitHub(tt.upload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateGitHub() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, model.ErrConfiguration) {
				t.Errorf("ValidateGitHub() error = %v, want ErrConfiguration", err)
			}
			for _, m := range tt.wantMissing {
				if !strings.Contains(err.Error(), m) {
					t.Errorf("ValidateGitHub() error %q does not mention %q", err, m)
				}
			}
		})
	}
}

func TestValidateJira(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		if err := validConfig().ValidateJira(true); err != nil {
			t.Errorf("ValidateJira() error = %v", err)
		}
	})

	t.Run("missing password and query", func(t *testing.T) {
		cfg := validConfig()
		cfg.Jira.Password = ""
		cfg.Jira.JQLQuery = ""
		err := cfg.ValidateJira(true)
		if !errors.Is(err, model.ErrConfiguration) {
			t.Fatalf("ValidateJira() error = %v, want ErrConfiguration", err)
		}
		for _, m := range []string{"JIRA_SERVER_PASSWORD", "JIRA_SERVER_JQL_QUERY"} {
			if !strings.Contains(err.Error(), m) {
				t.Errorf("error %q does not mention %q", err, m)
			}
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		cfg := validConfig()
		cfg.Jira.Format = "pdf"
		if err := cfg.ValidateJira(true); !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("ValidateJira() error = %v, want ErrConfiguration", err)
		}
	})
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
		check   func(*Config) bool
	}{
		{
			name:  "sets github query",
			key:   "github.query",
			value: "is:pr",
			check: func(c *Config) bool { return c.GitHub.Query == "is:pr" },
		},
		{
			name:  "sets date range",
			key:   "date_range_days",
			value: "30",
			check: func(c *Config) bool { return c.DateRangeDays == 30 },
		},
		{
			name:    "rejects non-numeric date range",
			key:     "date_range_days",
			value:   "soon",
			wantErr: "invalid date_range_days",
		},
		{
			name:    "rejects unknown format",
			key:     "jira.format",
			value:   "pdf",
			wantErr: "invalid format",
		},
		{
			name:    "refuses secrets",
			key:     "github.token",
			value:   "ghp_x",
			wantErr: "GITHUB_TOKEN",
		},
		{
			name:    "refuses collector api key",
			key:     "collector.api_key",
			value:   "k",
			wantErr: "TUGBOAT_API_KEY",
		},
		{
			name:    "unknown key",
			key:     "nope",
			value:   "x",
			wantErr: "unknown config key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := cfg.Set(tt.key, tt.value)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Set(%q) error = %v, want containing %q", tt.key, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q) error = %v", tt.key, err)
			}
			if !tt.check(cfg) {
				t.Errorf("Set(%q, %q) did not apply", tt.key, tt.value)
			}
		})
	}
}

func TestSettableKeysAreAccepted(t *testing.T) {
	for _, key := range SettableKeys() {
		value := "x"
		switch key {
		case "date_range_days":
			value = "7"
		case "jira.format":
			value = FormatCSV
		}
		if err := (&Config{}).Set(key, value); err != nil {
			t.Errorf("Set(%q) error = %v", key, err)
		}
	}
}

func TestMinimalConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", MinimalConfig())

	cfg, err := LoadFrom(path, "", "", nil)
	if err != nil {
		t.Fatalf("LoadFrom(MinimalConfig) error = %v", err)
	}
	if cfg.GitHub.Query != "is:pr is:merged merged:%s..%s" {
		t.Errorf("GitHub.Query = %q", cfg.GitHub.Query)
	}
}

func TestSaveTo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	if err := SaveTo(path, "date_range_days: 7\n"); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	cfg, err := LoadFrom(path, "", "", nil)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.DateRangeDays != 7 {
		t.Errorf("DateRangeDays = %d, want 7", cfg.DateRangeDays)
	}
}
