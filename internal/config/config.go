// Package config loads the logwarden configuration file.
//
// YAML (.yaml, .yml, .json) and CUE (.cue) files are accepted. CUE files are
// unified with an embedded schema before decoding, so type errors and unknown
// keys are reported with their position. YAML files reject unknown keys.
//
// Load applies defaults and validates; every failure is a *ban.Error with
// code CONFIG.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/logwarden/internal/ban"
	"github.com/roach88/logwarden/internal/pattern"
)

//go:embed schema.cue
var schemaCUE string

// Defaults.
const (
	DefaultFileName = "config.yaml"
	DefaultLogLines = 5000
	DefaultDatabase = "ban_address.db"

	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendUFW    = "ufw"
	BackendNFT    = "nft"
)

// Config is the parsed configuration.
type Config struct {
	Log       []string       `yaml:"log" json:"log"`
	Patterns  []string       `yaml:"patterns" json:"patterns"`
	Whitelist []string       `yaml:"whitelist" json:"whitelist"`
	LogLines  int            `yaml:"log_lines" json:"log_lines"`
	Database  string         `yaml:"database" json:"database"`
	Store     StoreConfig    `yaml:"store" json:"store"`
	Firewall  FirewallConfig `yaml:"firewall" json:"firewall"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-" json:"-"`
}

// StoreConfig selects the ban record backend.
type StoreConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	RedisURL  string `yaml:"redis_url" json:"redis_url"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// FirewallConfig selects the firewall backend.
type FirewallConfig struct {
	Backend  string `yaml:"backend" json:"backend"`
	Command  string `yaml:"command" json:"command"`
	NFTTable string `yaml:"nft_table" json:"nft_table"`
	NFTSet   string `yaml:"nft_set" json:"nft_set"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError(path, "cannot read configuration", err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		cfg, err = parseCUE(path, data)
	default:
		cfg, err = parseYAML(data)
	}
	if err != nil {
		return nil, configError(path, "invalid configuration", err)
	}

	cfg.Path = path
	cfg.applyDefaults(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("configuration file is empty")
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseCUE(path string, data []byte) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, err
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills unset fields. Relative database paths resolve against
// dir, the directory holding the configuration file.
func (c *Config) applyDefaults(dir string) {
	if c.LogLines == 0 {
		c.LogLines = DefaultLogLines
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Database != ":memory:" && !filepath.IsAbs(c.Database) {
		c.Database = filepath.Join(dir, c.Database)
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendSQLite
	}
	if c.Firewall.Backend == "" {
		c.Firewall.Backend = BackendUFW
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if len(c.Log) == 0 {
		return configError(c.Path, "no log files configured", nil)
	}
	for _, p := range c.Log {
		if strings.TrimSpace(p) == "" {
			return configError(c.Path, "empty log path", nil)
		}
	}
	if c.LogLines < 0 {
		return configError(c.Path, fmt.Sprintf("log_lines must be positive, got %d", c.LogLines), nil)
	}
	if _, err := ban.NewWhitelist(c.Whitelist); err != nil {
		return configError(c.Path, "invalid whitelist", err)
	}

	switch c.Store.Backend {
	case BackendSQLite:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return configError(c.Path, "store.redis_url is required for the redis backend", nil)
		}
	default:
		return configError(c.Path, fmt.Sprintf("unknown store backend %q", c.Store.Backend), nil)
	}

	switch c.Firewall.Backend {
	case BackendUFW, BackendNFT:
	default:
		return configError(c.Path, fmt.Sprintf("unknown firewall backend %q", c.Firewall.Backend), nil)
	}
	return nil
}

// WhitelistSet builds the whitelist. Validate has already checked it.
func (c *Config) WhitelistSet() (*ban.Whitelist, error) {
	wl, err := ban.NewWhitelist(c.Whitelist)
	if err != nil {
		return nil, configError(c.Path, "invalid whitelist", err)
	}
	return wl, nil
}

// PatternSet compiles the configured patterns.
func (c *Config) PatternSet() *pattern.Set {
	return pattern.Compile(c.Patterns)
}

// Resolve picks the configuration file to load. An explicit path wins;
// otherwise config.yaml in the working directory, then next to the
// executable.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	candidates := []string{DefaultFileName}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), DefaultFileName))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", ban.NewError(ban.ErrCodeConfig,
		fmt.Sprintf("configuration file not found (tried %s)", strings.Join(candidates, ", ")), nil)
}

func configError(path, msg string, err error) error {
	return &ban.Error{Code: ban.ErrCodeConfig, Message: msg, Subject: path, Err: err}
}
