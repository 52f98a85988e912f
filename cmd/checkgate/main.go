package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/checkgate/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/checkgate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/checkgate/internal/application"
	"github.com/ericfisherdev/checkgate/internal/config"
	"github.com/ericfisherdev/checkgate/internal/domain/model"
	"github.com/ericfisherdev/checkgate/internal/domain/port/driven"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("checkgate failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}
	var intervalSec, timeoutSec int
	var ignoreRaw string

	cmd := &cobra.Command{
		Use:           "checkgate",
		Short:         "checkgate blocks a workflow job until a commit's check runs settle",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Interval = time.Duration(intervalSec) * time.Second
			cfg.Timeout = time.Duration(timeoutSec) * time.Second
			cfg.Ignore = config.SplitNames(ignoreRaw)
			cfg.ApplyEnv()
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.Token, "token", "", "github token (defaults to $GITHUB_TOKEN)")
	flags.StringVar(&cfg.Repository, "repository", "", "github repository (owner/repo)")
	flags.StringVar(&cfg.Branch, "branch", "", "branch whose check runs are evaluated")
	flags.IntVar(&intervalSec, "interval", 10, "seconds between poll cycles")
	flags.IntVar(&timeoutSec, "timeout", 3600, "maximum seconds to wait before failing")
	flags.StringVar(&cfg.JobName, "name", "", "the invoking job's own check name, always ignored")
	flags.StringVar(&ignoreRaw, "ignore", "", "comma or space delimited check names to ignore")
	flags.BoolVar(&cfg.Exhaustive, "exhaustive", false, "wait for all checks before deciding instead of failing fast")
	flags.BoolVar(&cfg.Debug, "debug", false, "enable debug logs")
	flags.StringVar(&cfg.HistoryDBPath, "history-db", "", "optional sqlite file recording every poll cycle")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Fail fast on bad flag combinations, before any polling.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	slog.Info("config loaded",
		"repository", cfg.Repository,
		"branch", cfg.Branch,
		"interval", cfg.Interval,
		"timeout", cfg.Timeout,
		"name", cfg.JobName,
		"ignore", cfg.Ignore,
		"exhaustive", cfg.Exhaustive,
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var history driven.SnapshotStore
	if cfg.HistoryDBPath != "" {
		db, err := sqliteadapter.NewDB(cfg.HistoryDBPath)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("error closing history database", "error", closeErr)
			}
		}()

		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			return err
		}
		history = sqliteadapter.NewSnapshotRepo(db)
		slog.Info("poll history enabled", "path", cfg.HistoryDBPath)
	}

	client := githubadapter.NewClient(cfg.Token)
	monitor := application.NewMonitor(client, history, cfg)

	res, err := monitor.Run(ctx)
	if err != nil {
		fmt.Println(application.ErrorAnnotation(err.Error()))
		return err
	}

	reporter := application.NewReporter(cfg.StepSummaryPath)
	if sumErr := reporter.WriteStepSummary(res.FinalRuns); sumErr != nil {
		slog.Error("step summary write failed", "error", sumErr)
	}

	if res.Outcome != model.OutcomeSucceeded {
		fmt.Println(application.ErrorAnnotation(res.Message))
		return errors.New(res.Message)
	}

	slog.Info("all checks passed", "checks", len(res.FinalRuns), "attempts", res.Attempts)
	return nil
}
