package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/redistribution-planner/internal/cache"
	"github.com/andresuchdata/redistribution-planner/internal/config"
	"github.com/andresuchdata/redistribution-planner/internal/domain"
	"github.com/andresuchdata/redistribution-planner/internal/planner"
	"github.com/andresuchdata/redistribution-planner/internal/repository/postgres"
	"github.com/andresuchdata/redistribution-planner/internal/service"
	"github.com/andresuchdata/redistribution-planner/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "planner",
		Usage: "Run one warehouse redistribution planning cycle and print the plan as JSON",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "max-trucks",
				Usage: "Maximum trucks to assign per product (1-50, 0 uses the configured default)",
			},
			&cli.Float64Flag{
				Name:  "confidence-threshold",
				Usage: "Minimum confidence for suggestions (0-1, 0 uses the configured default)",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Indent the JSON output",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
		},
		Action: runOnce,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runOnce(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	cfg := config.Load()

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	transferService := service.NewTransferSuggestionService(
		postgres.NewSnapshotRepository(db),
		planner.New(cfg.Planner),
		cache.NewNoopPlanCache(),
		cfg.Planner,
	)

	req := domain.PlanRequest{
		MaxTrucksToUse:      c.Int("max-trucks"),
		ConfidenceThreshold: c.Float64("confidence-threshold"),
	}

	result, err := transferService.GenerateSuggestions(c.Context, req)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}

	if !result.Success {
		return cli.Exit("", 2)
	}
	return nil
}
