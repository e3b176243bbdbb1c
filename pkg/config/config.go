// Package config loads layerweave settings from a TOML file.
//
// The default location is $XDG_CONFIG_HOME/layerweave/config.toml (falling
// back to ~/.config). A missing default file is not an error; every field
// has a default, and command-line flags override whatever the file sets.
//
//	[bundle]
//	max_loops = 6
//	stiffness = 0.5
//	step_size = 0.04
//	compat_threshold = 0.05
//	electro = "same-index"
//	edges = "interlayer"
//
//	[tree]
//	algorithm = "dfs"
//	root_strategy = "most-connected"
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//	max_edges = 2000
//	max_loops = 10
//	timeout = "1m"
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/layerweave/pkg/bundle"
	"github.com/matzehuels/layerweave/pkg/cache"
	"github.com/matzehuels/layerweave/pkg/errors"
	"github.com/matzehuels/layerweave/pkg/tree"
)

// AppName names the config and cache directories.
const AppName = "layerweave"

// Candidate edge subsets for bundling.
const (
	EdgesInterlayer = "interlayer"
	EdgesAll        = "all"
)

// Config is the full configuration file.
type Config struct {
	Bundle Bundle       `toml:"bundle"`
	Tree   Tree         `toml:"tree"`
	Cache  cache.Config `toml:"cache"`
	Server Server       `toml:"server"`
}

// Bundle holds bundling parameters plus the candidate edge subset.
type Bundle struct {
	bundle.Options
	Edges string `toml:"edges"`
}

// Tree holds tree construction defaults.
type Tree struct {
	Algorithm    string `toml:"algorithm"`
	RootStrategy string `toml:"root_strategy"`
}

// Server configures `layerweave serve`. The limits bound the work a single
// bundle request can ask for.
type Server struct {
	Addr     string        `toml:"addr"`
	MaxEdges int           `toml:"max_edges"`
	MaxLoops int           `toml:"max_loops"`
	Timeout  time.Duration `toml:"timeout"`
}

// Server defaults.
const (
	DefaultServerMaxEdges = 2000
	DefaultServerMaxLoops = 10
	DefaultServerTimeout  = time.Minute
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Bundle: Bundle{Options: bundle.DefaultOptions(), Edges: EdgesInterlayer},
		Tree: Tree{
			Algorithm:    string(tree.DFS),
			RootStrategy: string(tree.MostConnected),
		},
		Cache:  cache.Config{Backend: cache.BackendFile},
		Server: Server{
			Addr:     ":8080",
			MaxEdges: DefaultServerMaxEdges,
			MaxLoops: DefaultServerMaxLoops,
			Timeout:  DefaultServerTimeout,
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", AppName+".toml")
	}
	return filepath.Join(home, ".config", AppName, "config.toml")
}

// Load reads path over the defaults. An empty path reads DefaultPath and
// tolerates its absence; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return cfg, errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses TOML data into cfg, keeping fields the data does not set,
// and validates the result. Unknown keys are rejected.
func Decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown config key %q", undecoded[0].String())
	}
	return cfg.Validate()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Bundle.Options.Validate(); err != nil {
		return err
	}

	var v errors.ValidationError
	switch c.Bundle.Edges {
	case "", EdgesInterlayer, EdgesAll:
	default:
		v.Add("bundle.edges", "must be %q or %q, got %q", EdgesInterlayer, EdgesAll, c.Bundle.Edges)
	}
	if c.Tree.Algorithm != "" {
		if _, err := tree.ParseAlgorithm(c.Tree.Algorithm); err != nil {
			v.Add("tree.algorithm", "unknown algorithm %q", c.Tree.Algorithm)
		}
	}
	switch tree.RootStrategy(c.Tree.RootStrategy) {
	case "", tree.MostConnected, tree.Explicit:
	default:
		v.Add("tree.root_strategy", "must be %q or %q, got %q", tree.MostConnected, tree.Explicit, c.Tree.RootStrategy)
	}
	switch c.Cache.Backend {
	case "", cache.BackendFile, cache.BackendNull:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			v.Add("cache.redis_addr", "required for the redis backend")
		}
	case cache.BackendMongo:
		if c.Cache.MongoURI == "" {
			v.Add("cache.mongo_uri", "required for the mongo backend")
		}
	default:
		v.Add("cache.backend", "unknown backend %q", c.Cache.Backend)
	}
	if c.Server.MaxEdges <= 0 {
		v.Add("server.max_edges", "must be positive, got %d", c.Server.MaxEdges)
	}
	if c.Server.MaxLoops < 1 || c.Server.MaxLoops > bundle.MaxLoopsLimit {
		v.Add("server.max_loops", "must be in [1, %d], got %d", bundle.MaxLoopsLimit, c.Server.MaxLoops)
	}
	if c.Server.Timeout <= 0 {
		v.Add("server.timeout", "must be positive, got %s", c.Server.Timeout)
	}
	return v.Err("config")
}

// Encode writes cfg as TOML. `layerweave config` uses it to print the
// effective configuration.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
