// Package config loads the graphplanner configuration file.
//
// The file is YAML, lives at $XDG_CONFIG_HOME/graphplanner/config.yaml by
// default and is optional: a missing file yields DefaultConfig(). Values from
// the file are overridden by GRAPHPLANNER_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultListID is the SharePoint list holding task items
	DefaultListID = "ToDoList"

	// DefaultAccount is the account used when none is given
	DefaultAccount = "default"

	// WeekStartSunday and WeekStartMonday are the supported week_start values
	WeekStartSunday = "sunday"
	WeekStartMonday = "monday"
)

// Environment variables overriding file values
const (
	EnvTenantID     = "GRAPHPLANNER_TENANT_ID"
	EnvClientID     = "GRAPHPLANNER_CLIENT_ID"
	EnvClientSecret = "GRAPHPLANNER_CLIENT_SECRET"
	EnvRedirectURL  = "GRAPHPLANNER_REDIRECT_URL"
	EnvGraphURL     = "GRAPHPLANNER_GRAPH_URL"
	EnvSiteID       = "GRAPHPLANNER_SITE_ID"
	EnvListID       = "GRAPHPLANNER_LIST_ID"
	EnvTimeZone     = "GRAPHPLANNER_TIME_ZONE"
	EnvWeekStart    = "GRAPHPLANNER_WEEK_START"
	EnvAccount      = "GRAPHPLANNER_ACCOUNT"
	EnvTokenDir     = "GRAPHPLANNER_TOKEN_DIR"
	EnvAuthority    = "GRAPHPLANNER_AUTHORITY_HOST"
)

// Config is the top-level application configuration.
type Config struct {
	// TenantID is the Azure AD tenant ("common", "organizations", a domain or a GUID).
	TenantID string `yaml:"tenant_id"`

	// ClientID and ClientSecret identify the app registration. The secret is
	// only needed for confidential clients.
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret,omitempty"`

	// RedirectURL must match a redirect URI of the app registration.
	RedirectURL string `yaml:"redirect_url,omitempty"`

	// AuthorityHost overrides https://login.microsoftonline.com for national clouds.
	AuthorityHost string `yaml:"authority_host,omitempty"`

	// GraphBaseURL overrides the Graph endpoint, e.g. for national clouds.
	GraphBaseURL string `yaml:"graph_base_url,omitempty"`

	// SiteID is the SharePoint site holding the task list, in Graph's
	// "hostname,site-collection-id,web-id" form.
	SiteID string `yaml:"site_id"`

	// ListID is the list name or GUID of the task list.
	ListID string `yaml:"list_id"`

	// TimeZone is the zone calendar weeks are computed in. Empty means the
	// mailbox time zone of the signed-in user.
	TimeZone string `yaml:"time_zone,omitempty"`

	// WeekStart is "sunday" (default) or "monday".
	WeekStart string `yaml:"week_start"`

	// Account is the token account used when none is given on the command line.
	Account string `yaml:"account"`

	// TokenDir overrides where OAuth tokens are stored.
	TokenDir string `yaml:"token_dir,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		TenantID:  "common",
		ListID:    DefaultListID,
		WeekStart: WeekStartSunday,
		Account:   DefaultAccount,
	}
}

// Normalize fills in missing values with defaults
func (c *Config) Normalize() {
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if c.WeekStart == "" {
		c.WeekStart = WeekStartSunday
	}
	if c.TenantID == "" {
		c.TenantID = "common"
	}
	if c.ListID == "" {
		c.ListID = DefaultListID
	}
	if c.Account == "" {
		c.Account = DefaultAccount
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.WeekStart {
	case WeekStartSunday, WeekStartMonday:
	default:
		return fmt.Errorf("invalid week_start %q: must be %q or %q", c.WeekStart, WeekStartSunday, WeekStartMonday)
	}
	return nil
}

// ValidateForTasks checks that the task list location is configured
func (c *Config) ValidateForTasks() error {
	if c.SiteID == "" {
		return fmt.Errorf("site_id is not configured: set it in the config file or %s", EnvSiteID)
	}
	return nil
}

// WeekStartDay returns the configured first day of the week
func (c *Config) WeekStartDay() time.Weekday {
	if c.WeekStart == WeekStartMonday {
		return time.Monday
	}
	return time.Sunday
}

// ApplyEnv overrides values from GRAPHPLANNER_* environment variables
func (c *Config) ApplyEnv() {
	overrides := []struct {
		env string
		dst *string
	}{
		{EnvTenantID, &c.TenantID},
		{EnvClientID, &c.ClientID},
		{EnvClientSecret, &c.ClientSecret},
		{EnvRedirectURL, &c.RedirectURL},
		{EnvGraphURL, &c.GraphBaseURL},
		{EnvSiteID, &c.SiteID},
		{EnvListID, &c.ListID},
		{EnvTimeZone, &c.TimeZone},
		{EnvWeekStart, &c.WeekStart},
		{EnvAccount, &c.Account},
		{EnvTokenDir, &c.TokenDir},
		{EnvAuthority, &c.AuthorityHost},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "graphplanner", "config.yaml")
}

// Load reads the configuration from path. A missing file yields the defaults.
// Environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.ApplyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path with 0600 permissions
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".graphplanner-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
