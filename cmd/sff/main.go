package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/do-me/sff/internal/ai"
	"github.com/do-me/sff/internal/config"
	"github.com/do-me/sff/internal/output"
	"github.com/do-me/sff/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("sff", pflag.ExitOnError)

	cfg, err := config.Load("", fs, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	fs.Usage = cfg.Usage

	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" {
		fmt.Fprintln(os.Stderr, "sff: a search query is required")
		fs.Usage()
		os.Exit(2)
	}

	// Set up logging
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level '%s': %v\n", cfg.LogLevel, err)
		os.Exit(1)
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	var clientConfig *ai.ClientConfig
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		clientConfig = &ai.ClientConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Dims:      cfg.Dims,
			ProjectID: cfg.ProjectID,
			Provider:  ai.ProviderOpenAI,
			Normalize: true,
		}
	case "vertexai", "google":
		clientConfig = &ai.ClientConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Dims:      cfg.Dims,
			ProjectID: cfg.ProjectID,
			Location:  cfg.Location,
			Provider:  ai.ProviderVertexAI,
			Normalize: true,
		}
	case "ollama":
		clientConfig = &ai.ClientConfig{
			Model:     cfg.Model,
			Dims:      cfg.Dims,
			Host:      cfg.Host,
			Provider:  ai.ProviderOllama,
			Normalize: true,
		}
	case "stub":
		clientConfig = &ai.ClientConfig{
			Dims:     cfg.Dims,
			Provider: ai.ProviderStub,
		}
	default:
		log.Fatal().Str("provider", cfg.Provider).Msg("unsupported provider")
	}

	ctx := context.Background()

	// The client is loaded once and shared read-only across all batches.
	client, err := ai.NewClient(ctx, clientConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load embedding model")
	}
	log.Debug().Str("model", client.ModelName()).Int("dims", client.Dims()).Msg("model loaded")

	rep, err := pipeline.Run(ctx, client, pipeline.Options{
		Path:         cfg.Path,
		Query:        query,
		Recursive:    cfg.Recursive,
		Extensions:   cfg.Extensions,
		ChunkWords:   cfg.ChunkWords,
		BatchSize:    cfg.BatchSize,
		Workers:      cfg.Workers,
		Limit:        cfg.Limit,
		ShowProgress: cfg.Verbose,
		ProgressOut:  os.Stderr,
	})
	if errors.Is(err, pipeline.ErrNoFiles) {
		fmt.Printf("No text files (%s) found to search in '%s'.\n",
			"."+strings.Join(cfg.Extensions, ", ."), cfg.Path)
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("search failed")
	}

	if cfg.JSON {
		if err := output.WriteJSON(os.Stdout, rep.Results); err != nil {
			log.Fatal().Err(err).Msg("failed to write results")
		}
		return
	}

	fmt.Printf("\nFound %d relevant chunks from %d files for query %q in %.2f ms. Top %d results:\n",
		rep.TotalChunks, rep.FileCount, query,
		float64(rep.Elapsed.Microseconds())/1000.0, len(rep.Results))

	if err := output.WriteTable(os.Stdout, rep.Results); err != nil {
		log.Fatal().Err(err).Msg("failed to write results")
	}
}
