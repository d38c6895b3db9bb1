/*
Package config handles loading, validating, and saving the engine's
runtime options.

Options are stored in ~/.rules-engine.json:

	{
	  "contentSource": "owner/repo",
	  "ref": "main",
	  "cacheEnabled": true,
	  "cacheTTLSeconds": 3600,
	  "maxRules": 5,
	  "maxTokens": 5000,
	  "concurrencyLimit": 5,
	  "verbose": false
	}

Configuration problems are the only fatal error class in the pipeline, so
validation is strict and runs up front.
*/
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Defaults for every tunable option.
const (
	DefaultRef              = "main"
	DefaultCacheTTLSeconds  = 3600
	DefaultMaxRules         = 5
	DefaultMaxTokens        = 5000
	DefaultConcurrencyLimit = 5
)

// Options is the engine's runtime configuration.
type Options struct {
	// ContentSource identifies the remote document source as "owner/repo".
	ContentSource string `json:"contentSource"`

	// Ref is the branch or version selector for the content source.
	Ref string `json:"ref,omitempty"`

	// CacheEnabled toggles the in-process content cache.
	CacheEnabled bool `json:"cacheEnabled"`

	// CacheTTLSeconds is the cache entry lifetime in seconds.
	CacheTTLSeconds int `json:"cacheTTLSeconds,omitempty"`

	// MaxRules caps how many rules one selection may return.
	MaxRules int `json:"maxRules,omitempty"`

	// MaxTokens caps the summed token estimate of a selection.
	MaxTokens int `json:"maxTokens,omitempty"`

	// ConcurrencyLimit bounds simultaneous remote fetches.
	ConcurrencyLimit int `json:"concurrencyLimit,omitempty"`

	// Verbose enables debug logging.
	Verbose bool `json:"verbose,omitempty"`
}

// contentSourcePattern accepts "owner/repo" identifiers.
var contentSourcePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*/[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Default returns options populated with every default value.
// ContentSource has no default and must be set by the caller.
func Default() *Options {
	return &Options{
		Ref:              DefaultRef,
		CacheEnabled:     true,
		CacheTTLSeconds:  DefaultCacheTTLSeconds,
		MaxRules:         DefaultMaxRules,
		MaxTokens:        DefaultMaxTokens,
		ConcurrencyLimit: DefaultConcurrencyLimit,
	}
}

// CacheTTL returns the TTL as a duration.
func (o *Options) CacheTTL() time.Duration {
	return time.Duration(o.CacheTTLSeconds) * time.Second
}

// SourceOwnerRepo splits ContentSource into its owner and repo parts.
// Validate must have succeeded first.
func (o *Options) SourceOwnerRepo() (owner, repo string) {
	parts := strings.SplitN(o.ContentSource, "/", 2)
	if len(parts) != 2 {
		return o.ContentSource, ""
	}
	return parts[0], parts[1]
}

// Validate checks every option, applying defaults to zero values first.
// A malformed content source or out-of-range limit is fatal.
func (o *Options) Validate() error {
	o.applyDefaults()

	if o.ContentSource == "" {
		return &ValidationError{Field: "contentSource", Message: "required: set it to \"owner/repo\""}
	}
	if !contentSourcePattern.MatchString(o.ContentSource) {
		return &ValidationError{
			Field:   "contentSource",
			Message: fmt.Sprintf("malformed identifier %q: expected \"owner/repo\"", o.ContentSource),
		}
	}
	if o.CacheTTLSeconds < 0 {
		return &ValidationError{Field: "cacheTTLSeconds", Message: "must not be negative"}
	}
	if o.MaxRules <= 0 {
		return &ValidationError{Field: "maxRules", Message: "must be positive"}
	}
	if o.MaxTokens <= 0 {
		return &ValidationError{Field: "maxTokens", Message: "must be positive"}
	}
	if o.ConcurrencyLimit <= 0 {
		return &ValidationError{Field: "concurrencyLimit", Message: "must be positive"}
	}
	return nil
}

// applyDefaults fills zero values with defaults.
func (o *Options) applyDefaults() {
	if o.Ref == "" {
		o.Ref = DefaultRef
	}
	if o.CacheTTLSeconds == 0 {
		o.CacheTTLSeconds = DefaultCacheTTLSeconds
	}
	if o.MaxRules == 0 {
		o.MaxRules = DefaultMaxRules
	}
	if o.MaxTokens == 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.ConcurrencyLimit == 0 {
		o.ConcurrencyLimit = DefaultConcurrencyLimit
	}
}

// DefaultPath returns the path to ~/.rules-engine.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".rules-engine.json"), nil
}

// Load reads and validates options from the default path.
func Load() (*Options, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates options from a specific path.
func LoadFrom(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, &InvalidError{Path: path, Err: err}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// Save writes options to the specified path, creating the directory if
// needed.
func Save(opts *Options, path string) error {
	data, err := json.MarshalIndent(opts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
