package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Specification struct {
	Path       string   `yaml:"path"`
	Provider   string   `yaml:"provider"`
	Model      string   `yaml:"model"`
	APIKey     string   `yaml:"apiKey" envconfig:"API_KEY"`
	ProjectID  string   `yaml:"projectID" envconfig:"PROJECT_ID"`
	Location   string   `yaml:"location"`
	Host       string   `yaml:"host"`
	Dims       int      `yaml:"dims"`
	Limit      int      `yaml:"limit"`
	Recursive  bool     `yaml:"recursive"`
	Verbose    bool     `yaml:"verbose"`
	JSON       bool     `yaml:"json"`
	Extensions []string `yaml:"extensions"`
	ChunkWords int      `yaml:"chunkWords" envconfig:"CHUNK_WORDS"`
	BatchSize  int      `yaml:"batchSize" envconfig:"BATCH_SIZE"`
	Workers    int      `yaml:"workers"`
	LogLevel   string   `yaml:"logLevel" split_words:"true"`

	flags *pflag.FlagSet `ignored:"true"`
}

const envPrefix = "SFF"

func (s *Specification) Usage() {
	fmt.Fprintln(os.Stderr, "Usage: sff [flags] QUERY...")
	fmt.Fprint(os.Stderr, s.flags.FlagUsages())
}

// Load => defaults < YAML < env < flags.
// configPath may be ""; if so we auto-discover.
func Load(configPath string, fs *pflag.FlagSet, args []string) (Specification, error) {
	var cfg Specification

	// set defaults (lowest precedence)
	setDefaults(&cfg)
	bindFlags(fs, &cfg, args)

	// config file
	path := configPath
	if path == "" {
		if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
			path = v
		} else {
			for _, cand := range []string{
				"./sff.yaml",
				"./config.yaml",
				"config/sff.yaml",
			} {
				if fileExists(cand) {
					path = cand
					break
				}
			}
		}
	}

	if path != "" {
		if !fileExists(path) {
			return Specification{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Specification{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	// env overrides config file
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Specification{}, fmt.Errorf("env override: %w", err)
	}

	// flags override everything
	if err := fs.Parse(args); err != nil {
		return Specification{}, err
	}
	applyChangedFlags(fs, &cfg)

	// Minimal sanity
	if strings.TrimSpace(cfg.Provider) == "" {
		return Specification{}, fmt.Errorf("provider is required (env/file/flag)")
	}
	if cfg.Limit < 0 {
		return Specification{}, fmt.Errorf("limit must be >= 0, got %d", cfg.Limit)
	}
	if cfg.ChunkWords <= 0 {
		return Specification{}, fmt.Errorf("chunk-words must be > 0, got %d", cfg.ChunkWords)
	}
	if cfg.BatchSize <= 0 {
		return Specification{}, fmt.Errorf("batch-size must be > 0, got %d", cfg.BatchSize)
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// ---------- helpers ----------

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func bindFlags(fs *pflag.FlagSet, c *Specification, args []string) {
	fs.String("config", "", "Path to config file")

	// If --config is provided on the command line, capture it now so
	// config discovery (which runs before flags.Parse) can use it.
	for i, a := range args {
		if a == "--config" {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				_ = os.Setenv(envPrefix+"_CONFIG", args[i+1])
			}
		} else if strings.HasPrefix(a, "--config=") {
			parts := strings.SplitN(a, "=", 2)
			if len(parts) == 2 {
				_ = os.Setenv(envPrefix+"_CONFIG", parts[1])
			}
		}
	}

	fs.StringP("path", "p", c.Path, "The directory to search in")
	fs.String("provider", c.Provider, "Embedding provider (ollama, openai, vertexai, stub)")
	fs.StringP("model", "m", c.Model, "Model to use for embeddings (provider default if empty)")
	fs.String("api-key", c.APIKey, "Provider API key")
	fs.String("project-id", c.ProjectID, "Provider project ID")
	fs.String("location", c.Location, "Provider location/region")
	fs.String("host", c.Host, "Ollama host URL")
	fs.Int("dims", c.Dims, "Embedding dimensionality (provider default if 0)")
	fs.IntP("limit", "l", c.Limit, "Number of top results to display")
	fs.BoolP("recursive", "r", c.Recursive, "Search recursively through all subdirectories")
	fs.BoolP("verbose", "v", c.Verbose, "Print detailed stage timings and read failures")
	fs.Bool("json", c.JSON, "Output results in JSON format instead of table")
	fs.StringSliceP("extensions", "e", c.Extensions, "File extensions to search")
	fs.Int("chunk-words", c.ChunkWords, "Words per text chunk")
	fs.Int("batch-size", c.BatchSize, "Chunks per embedding batch")
	fs.Int("workers", c.Workers, "Concurrent workers (0 = number of CPUs)")
	fs.String("log-level", c.LogLevel, "Log level (debug|info|warn|error)")

	// Used later for usage/help
	// create a shallow copy of fs (so Usage can be called safely without mutating caller)
	copied := pflag.NewFlagSet("temp", pflag.ContinueOnError)
	*copied = *fs
	c.flags = copied
}

func applyChangedFlags(fs *pflag.FlagSet, c *Specification) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			*dst = v
		}
	}
	setStrSlice := func(name string, dst *[]string) {
		if fs.Changed(name) {
			v, _ := fs.GetStringSlice(name)
			*dst = v
		}
	}

	// (We ignore --config here; it's for discovery.)
	setStr("path", &c.Path)
	setStr("provider", &c.Provider)
	setStr("model", &c.Model)
	setStr("api-key", &c.APIKey)
	setStr("project-id", &c.ProjectID)
	setStr("location", &c.Location)
	setStr("host", &c.Host)

	setInt("dims", &c.Dims)
	setInt("limit", &c.Limit)

	setBool("recursive", &c.Recursive)
	setBool("verbose", &c.Verbose)
	setBool("json", &c.JSON)

	setStrSlice("extensions", &c.Extensions)
	setInt("chunk-words", &c.ChunkWords)
	setInt("batch-size", &c.BatchSize)
	setInt("workers", &c.Workers)

	setStr("log-level", &c.LogLevel)
}

func setDefaults(c *Specification) {
	c.Path = "."
	c.Provider = "ollama"
	c.Limit = 10
	c.Extensions = []string{"txt", "md", "mdx", "org"}
	c.ChunkWords = 20
	c.BatchSize = 128
	c.LogLevel = "info"
	c.Dims = 0
	c.Workers = 0
}
