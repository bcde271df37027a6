package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"gflights/pkg/chat"
	"gflights/pkg/config"
	"gflights/pkg/flights"
	"gflights/pkg/memory"
	"gflights/pkg/provider"
	"gflights/pkg/provider/echo"
	"gflights/pkg/provider/gemini"
	"gflights/pkg/provider/openai"
	"gflights/pkg/provider/openrouter"
	"gflights/pkg/tool"
	"gflights/pkg/types"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file (default ./config/gflights.yaml when present)")
	debug := pflag.Bool("debug", false, "log every turn step")
	pflag.Parse()

	if err := run(*configPath, *debug); err != nil {
		fmt.Fprintf(os.Stderr, "gflights: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, _ := cfg.Level()
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	inv, err := flights.Open(ctx, flights.Config{DSN: cfg.Flights.DSN, Seed: cfg.Flights.Seed, Logger: logger})
	if err != nil {
		return err
	}
	defer func() { _ = inv.Close() }()

	registry, err := flights.NewRegistry(inv)
	if err != nil {
		return err
	}

	engine := initEngine(ctx, cfg, logger)
	defer func() { _ = engine.Close() }()

	store, err := memory.NewTranscript()
	if err != nil {
		return err
	}
	session, err := chat.Open(ctx, engine, store, chat.Config{
		Registry:      registry,
		Policy:        tool.Forced(),
		AssistantName: cfg.Assistant.Name,
		ReferenceYear: cfg.Assistant.ReferenceYear,
		Temperature:   cfg.Temperature,
		ToolTimeout:   cfg.ToolTimeout,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	fmt.Println("Gemini Flights")
	if replay := memory.Format(session.Visible()); replay != "" {
		fmt.Println(replay)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		fmt.Println(memory.Line(types.RoleUser, query))

		reply, err := session.Send(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("turn failed", "error", err)
			continue
		}
		fmt.Println(memory.Line(types.RoleModel, reply))
	}
	fmt.Println()
	return scanner.Err()
}

// initEngine selects the configured chat engine. In auto mode it picks the
// first provider with an API key and falls back to a local echo engine when
// none is set or the chosen one fails to initialise.
func initEngine(ctx context.Context, cfg *config.Configuration, logger *slog.Logger) provider.Engine {
	name := cfg.ResolveProvider()

	var (
		engine provider.Engine
		err    error
	)
	switch name {
	case config.ProviderGemini:
		engine, err = gemini.NewEngine(ctx, gemini.Config{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Temperature,
		})
	case config.ProviderOpenRouter:
		engine, err = openrouter.NewEngine(openrouter.Config{
			APIKey:      cfg.OpenRouter.APIKey,
			BaseURL:     cfg.OpenRouter.BaseURL,
			Model:       cfg.OpenRouter.Model,
			Referer:     cfg.OpenRouter.Referer,
			AppName:     cfg.OpenRouter.AppName,
			Temperature: cfg.Temperature,
		})
	case config.ProviderOpenAI:
		engine, err = openai.NewEngine(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			Temperature: cfg.Temperature,
		})
	default:
		logger.Warn("no provider API key configured, using echo engine")
		return echo.New("ReX")
	}
	if err != nil {
		logger.Warn("provider init failed, falling back to echo engine", "provider", name, "error", err)
		return echo.New("ReX")
	}
	logger.Info("using provider", "provider", engine.Name())
	return engine
}
