package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file name looked up by the CLI.
const DefaultFile = "site.json"

// Store backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

var (
	// ErrEmpty is returned for a config file that decodes to nothing.
	ErrEmpty = errors.New("config: empty document")

	// ErrInvalid is returned by Validate.
	ErrInvalid = errors.New("config: invalid")
)

// Config is the site configuration.
//
// Field names follow the site files of earlier versions of the tool, so
// existing site.json files load unchanged. BuildScript, Commands and
// UserConfiguration are carried for those files and not interpreted here.
type Config struct {
	RootURL           string            `json:"RootUrl" yaml:"RootUrl"`
	OutputDirectory   string            `json:"OutputDirectory" yaml:"OutputDirectory"`
	BuildScript       string            `json:"BuildScript" yaml:"BuildScript"`
	ContentDirectory  string            `json:"ContentDirectory" yaml:"ContentDirectory"`
	SourceDirectory   string            `json:"SourceDirectory" yaml:"SourceDirectory"`
	ThemeDirectory    string            `json:"ThemeDirectory" yaml:"ThemeDirectory"`
	UserConfiguration map[string]any    `json:"UserConfiguration" yaml:"UserConfiguration"`
	Commands          map[string]string `json:"Commands" yaml:"Commands"`

	CacheDirectory     string `json:"CacheDirectory" yaml:"CacheDirectory"`
	CacheCapacityBytes int64  `json:"CacheCapacityBytes" yaml:"CacheCapacityBytes"`
	MemoryLimitBytes   int64  `json:"MemoryLimitBytes" yaml:"MemoryLimitBytes"` // 0 = unlimited
	IOLimitBytesPerSec int64  `json:"IOLimitBytesPerSec" yaml:"IOLimitBytesPerSec"`
	Workers            int    `json:"Workers" yaml:"Workers"`
	Strict             bool   `json:"Strict" yaml:"Strict"`

	Store Store `json:"Store" yaml:"Store"`
	Feed  Feed  `json:"Feed" yaml:"Feed"`

	// Dir is the directory of the loaded file. Relative paths resolve
	// against it.
	Dir string `json:"-" yaml:"-"`
}

// Store selects the backing store for compiled posters.
type Store struct {
	Backend   string `json:"Backend" yaml:"Backend"`
	Bucket    string `json:"Bucket,omitempty" yaml:"Bucket,omitempty"`
	Prefix    string `json:"Prefix,omitempty" yaml:"Prefix,omitempty"`
	Region    string `json:"Region,omitempty" yaml:"Region,omitempty"`
	Endpoint  string `json:"Endpoint,omitempty" yaml:"Endpoint,omitempty"`
	AccessKey string `json:"AccessKey,omitempty" yaml:"AccessKey,omitempty"`
	SecretKey string `json:"SecretKey,omitempty" yaml:"SecretKey,omitempty"`
	UseSSL    bool   `json:"UseSSL,omitempty" yaml:"UseSSL,omitempty"`
}

// Feed configures the RSS feed, sitemap and robots.txt written to the
// output directory after a build. Nothing is written without a RootURL.
type Feed struct {
	Title       string `json:"Title,omitempty" yaml:"Title,omitempty"`
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Language    string `json:"Language,omitempty" yaml:"Language,omitempty"`
	Copyright   string `json:"Copyright,omitempty" yaml:"Copyright,omitempty"`
	// MaxItems limits the feed to the newest posters. 0 = all.
	MaxItems int `json:"MaxItems,omitempty" yaml:"MaxItems,omitempty"`
	// Disallow lists robots.txt paths closed to every crawler.
	Disallow []string `json:"Disallow,omitempty" yaml:"Disallow,omitempty"`
}

// Default returns a config with every default applied.
func Default() *Config {
	c := &Config{}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	if c.OutputDirectory == "" {
		c.OutputDirectory = "site"
	}
	if c.BuildScript == "" {
		c.BuildScript = "build-EightLeggedEssay.ps1"
	}
	if c.ContentDirectory == "" {
		c.ContentDirectory = "content"
	}
	if c.SourceDirectory == "" {
		c.SourceDirectory = "source"
	}
	if c.ThemeDirectory == "" {
		c.ThemeDirectory = "theme"
	}
	if c.UserConfiguration == nil {
		c.UserConfiguration = map[string]any{}
	}
	if c.Commands == nil {
		c.Commands = map[string]string{}
	}
	if c.CacheDirectory == "" {
		c.CacheDirectory = ".cache"
	}
	if c.CacheCapacityBytes == 0 {
		c.CacheCapacityBytes = 64 << 20
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Store.Backend == "" {
		c.Store.Backend = BackendLocal
	}
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendLocal:
	case BackendS3, BackendMinIO:
		if c.Store.Bucket == "" {
			return fmt.Errorf("%w: store backend %q needs a bucket", ErrInvalid, c.Store.Backend)
		}
		if c.Store.Backend == BackendMinIO && c.Store.Endpoint == "" {
			return fmt.Errorf("%w: store backend %q needs an endpoint", ErrInvalid, c.Store.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown store backend %q", ErrInvalid, c.Store.Backend)
	}
	if c.RootURL != "" {
		u, err := url.Parse(c.RootURL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf("%w: RootUrl %q is not an absolute URL", ErrInvalid, c.RootURL)
		}
	}
	if c.Feed.MaxItems < 0 {
		return fmt.Errorf("%w: feed max items must not be negative", ErrInvalid)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalid)
	}
	if c.CacheCapacityBytes < 0 || c.MemoryLimitBytes < 0 || c.IOLimitBytesPerSec < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalid)
	}
	return nil
}

// Path resolves p against the config directory unless it is absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Format is a config file syntax.
type Format int

const (
	// JSON accepts comments and trailing commas.
	JSON Format = iota
	YAML
)

// FormatOf picks the format from the file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Parse decodes data, applies defaults and validates the result.
func Parse(data []byte, f Format) (*Config, error) {
	trimmed := bytes.TrimSpace(data)
	if f == JSON {
		trimmed = bytes.TrimSpace(jsonc.ToJSON(trimmed))
	}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmpty
	}

	var c Config
	var err error
	if f == YAML {
		err = yaml.Unmarshal(trimmed, &c)
	} else {
		err = gojson.Unmarshal(trimmed, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	c.setDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	c, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Dir = filepath.Dir(path)
	return c, nil
}

// Save writes c to path as indented JSON, or YAML for .yaml/.yml paths.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if FormatOf(path) == YAML {
		data, err = yaml.Marshal(c)
	} else {
		data, err = gojson.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
