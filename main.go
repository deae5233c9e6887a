package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/RubachokBoss/grading-assistant/internal/app"
	"github.com/RubachokBoss/grading-assistant/internal/command"
	"github.com/RubachokBoss/grading-assistant/internal/config"
	"github.com/RubachokBoss/grading-assistant/internal/database"
	"github.com/RubachokBoss/grading-assistant/pkg/logger"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func main() {
	log := logger.New()

	cmd := &cli.Command{
		Name:  "grading-assistant",
		Usage: "course operations assistant: grading distribution and deadlines",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP command endpoint until interrupted",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back the postgres ledger schema",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "direction",
						Value: "up",
						Usage: "direction of migration (up/down)",
					},
				},
				Action: runMigrations,
			},
			{
				Name:      "exec",
				Usage:     "run one chat command locally with admin permission",
				ArgsUsage: "<command text...>",
				Action:    execCommand,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, logger.New(), fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewWithConfig(cfg.Logging.Level, cfg.Logging.Pretty, cfg.Logging.NoColor)
	return cfg, log, nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Run()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to run application: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown gracefully")
	}

	log.Info().Msg("Grading assistant stopped")
	return nil
}

func runMigrations(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	migrator, err := database.NewMigrator(cfg.Database)
	if err != nil {
		return err
	}

	switch direction := cmd.String("direction"); direction {
	case "up":
		if err := migrator.Up(); err != nil {
			return err
		}
		log.Info().Msg("Migrations applied successfully")
	case "down":
		if err := migrator.Down(); err != nil {
			return err
		}
		log.Info().Msg("Migrations rolled back successfully")
	default:
		return fmt.Errorf("invalid migration direction %q, use 'up' or 'down'", direction)
	}

	return nil
}

func execCommand(ctx context.Context, cmd *cli.Command) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("command text is required")
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Logging.NoColor {
		color.NoColor = true
	}

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer application.Shutdown(ctx)

	messages, err := application.Dispatcher().Dispatch(ctx, command.Request{
		Text:       text,
		Permission: command.Admin,
	})
	if err != nil {
		return err
	}

	separator := color.New(color.FgHiBlack)
	for i, message := range messages {
		separator.Fprintf(os.Stdout, "--- message %d/%d (%d bytes)\n", i+1, len(messages), len(message))
		fmt.Fprint(os.Stdout, message)
		if !strings.HasSuffix(message, "\n") {
			fmt.Fprintln(os.Stdout)
		}
	}

	return nil
}
