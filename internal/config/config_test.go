package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, envPrefix+"_") {
			key := strings.SplitN(kv, "=", 2)[0]
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestSpecificationDefaults(t *testing.T) {
	clearTestEnv(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)

	cfg, err := Load("", fs, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Path != "." {
		t.Errorf("Expected Path %q, got %q", ".", cfg.Path)
	}
	if cfg.Provider != "ollama" {
		t.Errorf("Expected Provider %q, got %q", "ollama", cfg.Provider)
	}
	if cfg.Limit != 10 {
		t.Errorf("Expected Limit 10, got %d", cfg.Limit)
	}
	if cfg.ChunkWords != 20 {
		t.Errorf("Expected ChunkWords 20, got %d", cfg.ChunkWords)
	}
	if cfg.BatchSize != 128 {
		t.Errorf("Expected BatchSize 128, got %d", cfg.BatchSize)
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{"txt", "md", "mdx", "org"}) {
		t.Errorf("Expected default extensions, got %v", cfg.Extensions)
	}
	if cfg.Recursive || cfg.Verbose || cfg.JSON {
		t.Errorf("Expected boolean flags to default false")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel info, got %q", cfg.LogLevel)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	clearTestEnv(t)
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "test-config.yaml")

	yamlContent := `
provider: "openai"
model: "text-embedding-3-small"
apiKey: "test-api-key"
dims: 1536
limit: 5
recursive: true
extensions: ["txt", "rst"]
chunkWords: 30
logLevel: "debug"
`
	if err := os.WriteFile(configFile, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg, err := Load(configFile, fs, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != "openai" {
		t.Errorf("Expected Provider openai, got %q", cfg.Provider)
	}
	if cfg.Model != "text-embedding-3-small" {
		t.Errorf("Expected Model from file, got %q", cfg.Model)
	}
	if cfg.APIKey != "test-api-key" {
		t.Errorf("Expected APIKey from file, got %q", cfg.APIKey)
	}
	if cfg.Dims != 1536 || cfg.Limit != 5 || cfg.ChunkWords != 30 {
		t.Errorf("Numeric fields not loaded: dims=%d limit=%d chunkWords=%d", cfg.Dims, cfg.Limit, cfg.ChunkWords)
	}
	if !cfg.Recursive {
		t.Error("Expected Recursive true from file")
	}
	if !reflect.DeepEqual(cfg.Extensions, []string{"txt", "rst"}) {
		t.Errorf("Expected extensions from file, got %v", cfg.Extensions)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearTestEnv(t)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	if _, err := Load("/does/not/exist.yaml", fs, nil); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearTestEnv(t)
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configFile, []byte("provider: openai\nlimit: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SFF_PROVIDER", "stub")
	t.Setenv("SFF_LIMIT", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg, err := Load(configFile, fs, nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != "stub" {
		t.Errorf("env should override file: Provider = %q", cfg.Provider)
	}
	if cfg.Limit != 7 {
		t.Errorf("env should override file: Limit = %d", cfg.Limit)
	}
}

func TestFlagsOverrideEverything(t *testing.T) {
	clearTestEnv(t)
	t.Setenv("SFF_PROVIDER", "stub")
	t.Setenv("SFF_LIMIT", "7")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg, err := Load("", fs, []string{"--provider", "vertexai", "--limit", "3", "-r", "some", "query"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Provider != "vertexai" {
		t.Errorf("flag should override env: Provider = %q", cfg.Provider)
	}
	if cfg.Limit != 3 {
		t.Errorf("flag should override env: Limit = %d", cfg.Limit)
	}
	if !cfg.Recursive {
		t.Error("shorthand -r not applied")
	}
	if !reflect.DeepEqual(fs.Args(), []string{"some", "query"}) {
		t.Errorf("positional query words lost: %v", fs.Args())
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "negative limit", args: []string{"--limit", "-2"}},
		{name: "zero chunk words", args: []string{"--chunk-words", "0"}},
		{name: "zero batch size", args: []string{"--batch-size", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			if _, err := Load("", fs, tt.args); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
