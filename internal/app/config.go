// Package app handles configuration loading and management for VibePilot.
// It supports XDG config paths, project-level overrides, and environment
// variables.
package app

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lazyvibe/vibepilot/internal/model"
)

// Config holds all configuration for VibePilot.
type Config struct {
	Assistant     AssistantConfig          `mapstructure:"assistant"`
	Session       SessionConfig            `mapstructure:"session"`
	Yolo          YoloConfig               `mapstructure:"yolo"`
	Trust         TrustConfig              `mapstructure:"trust"`
	Notifications model.NotificationConfig `mapstructure:"notifications"`
	Patterns      PatternsConfig           `mapstructure:"patterns"`
	Ledger        LedgerConfig             `mapstructure:"ledger"`
}

// AssistantConfig holds settings for the wrapped assistant process.
type AssistantConfig struct {
	// Path is the assistant executable. Empty means auto-detect.
	Path string `mapstructure:"path"`
	// Args are extra arguments always passed before the user's own.
	Args []string `mapstructure:"args"`
	// Mode selects act or plan behavior.
	Mode string `mapstructure:"mode"`
}

// SessionConfig holds per-session runtime settings.
type SessionConfig struct {
	// Debounce is the quiet window before a full-screen prompt scan.
	Debounce time.Duration `mapstructure:"debounce"`
	// SnapshotDir receives screen snapshots exported with Ctrl-].
	SnapshotDir string `mapstructure:"snapshot_dir"`
	// TranscriptPath, when set, receives the raw transcript tail on exit.
	TranscriptPath string `mapstructure:"transcript_path"`
	// NoPTY forces the pipe fallback even when a PTY is available.
	NoPTY bool `mapstructure:"no_pty"`
}

// YoloConfig holds unattended-acceptance settings.
type YoloConfig struct {
	// Enabled turns on automatic acceptance of confirmation prompts.
	Enabled bool `mapstructure:"enabled"`
	// DangerouslySuppressConfirmation skips the one-time session
	// confirmation normally required before unattended acceptance.
	DangerouslySuppressConfirmation bool `mapstructure:"dangerously_suppress_confirmation"`
	// DangerouslyAllowInUntrustedRoot accepts trust prompts anywhere.
	DangerouslyAllowInUntrustedRoot bool `mapstructure:"dangerously_allow_in_untrusted_root"`
}

// TrustConfig holds trusted-root settings.
type TrustConfig struct {
	// Roots lists filesystem paths pre-approved for unattended use,
	// merged with the persisted trust store at load time.
	Roots []string `mapstructure:"roots"`
}

// PatternsConfig holds external pattern catalog settings.
type PatternsConfig struct {
	// CatalogPath is a YAML file of extra patterns merged over the
	// built-ins. VIBEPILOT_PATTERNS overrides it.
	CatalogPath string `mapstructure:"catalog_path"`
	// Watch reloads the catalog when the file changes.
	Watch bool `mapstructure:"watch"`
}

// LedgerConfig holds auto-accept ledger settings.
type LedgerConfig struct {
	// Path is the sqlite database file. Empty uses the default data path.
	Path string `mapstructure:"path"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (VIBEPILOT_*)
// 2. Project config (.vibepilot.yaml in current directory or parent)
// 3. User config (~/.config/vibepilot/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(UserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("VIBEPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Notifications.WebhookURL = os.ExpandEnv(cfg.Notifications.WebhookURL)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Effective resolves the loaded configuration into the immutable per-session
// view consumed by the policy evaluator. storeRoots are the persisted
// trusted roots, merged after the configured ones.
func (c *Config) Effective(workDir string, storeRoots []string) model.EffectiveConfig {
	mode := model.Mode(c.Assistant.Mode)
	if mode != model.ModePlan {
		mode = model.ModeAct
	}

	roots := make([]string, 0, len(c.Trust.Roots)+len(storeRoots))
	seen := make(map[string]struct{})
	for _, r := range append(append([]string{}, c.Trust.Roots...), storeRoots...) {
		r = filepath.Clean(r)
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roots = append(roots, r)
	}

	return model.EffectiveConfig{
		Yolo:                                c.Yolo.Enabled,
		DangerouslySuppressYoloConfirmation: c.Yolo.DangerouslySuppressConfirmation,
		DangerouslyAllowInUntrustedRoot:     c.Yolo.DangerouslyAllowInUntrustedRoot,
		TrustedRoots:                        roots,
		WorkDir:                             workDir,
		Mode:                                mode,
		ShowNotifications:                   c.Notifications.Desktop || c.Notifications.WebhookURL != "",
	}
}

// CatalogPath returns the effective external pattern catalog path.
// The VIBEPILOT_PATTERNS environment variable wins over the config file.
func (c *Config) CatalogPath() string {
	if env := os.Getenv("VIBEPILOT_PATTERNS"); env != "" {
		return env
	}
	return c.Patterns.CatalogPath
}

// LedgerPath returns the effective ledger database path.
func (c *Config) LedgerPath() string {
	if c.Ledger.Path != "" {
		return c.Ledger.Path
	}
	return filepath.Join(UserDataDir(), "ledger.db")
}

// TrustStorePath returns the path of the persisted trust store.
func TrustStorePath() string {
	return filepath.Join(UserDataDir(), "trust.json")
}

// UserConfigPath returns the path to the user config file.
func UserConfigPath() string {
	return filepath.Join(UserConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("assistant.path", "")
	v.SetDefault("assistant.args", []string{})
	v.SetDefault("assistant.mode", "act")

	v.SetDefault("session.debounce", "100ms")
	v.SetDefault("session.snapshot_dir", "")
	v.SetDefault("session.transcript_path", "")
	v.SetDefault("session.no_pty", false)

	v.SetDefault("yolo.enabled", false)
	v.SetDefault("yolo.dangerously_suppress_confirmation", false)
	v.SetDefault("yolo.dangerously_allow_in_untrusted_root", false)

	v.SetDefault("trust.roots", []string{})

	v.SetDefault("notifications.desktop", false)
	v.SetDefault("notifications.webhook_url", "")

	v.SetDefault("patterns.catalog_path", "")
	v.SetDefault("patterns.watch", false)

	v.SetDefault("ledger.path", "")
}

// UserConfigDir returns the XDG config directory for VibePilot.
func UserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "vibepilot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "vibepilot")
	}
	return filepath.Join(home, ".config", "vibepilot")
}

// UserDataDir returns the XDG data directory for VibePilot.
func UserDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "vibepilot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".local", "share", "vibepilot")
	}
	return filepath.Join(home, ".local", "share", "vibepilot")
}

// findProjectConfig searches for .vibepilot.yaml in the current directory
// and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".vibepilot.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// DetectAssistantPath attempts to find the assistant executable. name is the
// bare command, "claude" by default.
func DetectAssistantPath(name string) string {
	if name == "" {
		name = "claude"
	}

	if path, err := exec.LookPath(name); err == nil {
		return path
	}

	home, _ := os.UserHomeDir()
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			filepath.Join("/opt/homebrew/bin", name),
			filepath.Join("/usr/local/bin", name),
			filepath.Join(home, ".local/bin", name),
			filepath.Join(home, ".npm-global/bin", name),
		}
		if npmPrefix, err := exec.Command("npm", "config", "get", "prefix").Output(); err == nil {
			candidates = append(candidates, filepath.Join(strings.TrimSpace(string(npmPrefix)), "bin", name))
		}
	case "linux":
		candidates = []string{
			filepath.Join("/usr/local/bin", name),
			filepath.Join("/usr/bin", name),
			filepath.Join(home, ".local/bin", name),
			filepath.Join(home, ".npm-global/bin", name),
		}
	case "windows":
		candidates = []string{
			filepath.Join(home, "AppData", "Roaming", "npm", name+".cmd"),
			filepath.Join(home, "AppData", "Local", "Programs", name, name+".exe"),
		}
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	return ""
}

// ValidateAssistantPath checks that the given path is an executable file.
func ValidateAssistantPath(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS != "windows" {
		return info.Mode()&0111 != 0
	}
	return true
}
