// Package cmd defines the CLI commands for the pttgrab executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pttlab/pttgrab/internal/api"
	"github.com/pttlab/pttgrab/internal/clock/system"
	"github.com/pttlab/pttgrab/internal/config"
	"github.com/pttlab/pttgrab/internal/crawler"
	"github.com/pttlab/pttgrab/internal/export"
	"github.com/pttlab/pttgrab/internal/id/uuid"
	"github.com/pttlab/pttgrab/internal/logging"
	"github.com/pttlab/pttgrab/internal/progress"
	"github.com/pttlab/pttgrab/internal/progress/sinks"
	"github.com/pttlab/pttgrab/internal/ptt"
)

var (
	cfgFile string
	csvOut  bool
)

type appKeyType struct{}

var appKey appKeyType

// appEnv carries the services every subcommand needs. It is built once in
// PersistentPreRunE and threaded through the command context.
type appEnv struct {
	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pttgrab",
		Short: "A concurrent crawler for PTT boards",
		Long: `pttgrab fetches listing pages and articles from PTT boards through
a pool of paced workers, tolerating missing pages and transient failures,
and writes the aggregated results to JSON or CSV files.`,
		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			env := &appEnv{cfg: cfg, logger: logger}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, env))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if env, ok := cmd.Context().Value(appKey).(*appEnv); ok && env != nil {
				_ = env.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	cmd.PersistentFlags().BoolVar(&csvOut, "csv", false, "also write a CSV export")

	cmd.AddCommand(newPagesCmd())
	cmd.AddCommand(newLatestCmd())
	cmd.AddCommand(newArticleCmd())
	cmd.AddCommand(newSearchCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func resolveEnv(ctx context.Context) (*appEnv, error) {
	env, ok := ctx.Value(appKey).(*appEnv)
	if !ok || env == nil {
		return nil, errors.New("application services not initialized")
	}
	return env, nil
}

// executeRun wires the full stack for one crawl, runs fn, and exports the
// result. Ctrl-C cancels dispatch; in-flight tasks finish and partial
// results are still written.
func executeRun(cmd *cobra.Command, fn func(ctx context.Context, eng *crawler.Engine) (*crawler.Result, error)) error {
	env, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	logger := env.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	hubSinks := []progress.Sink{sinks.NewLogSink(logger)}

	var metricsSrv *api.Server
	if env.cfg.Metrics.Enabled {
		promSink, err := sinks.NewPrometheusSink(registry)
		if err != nil {
			return fmt.Errorf("init metrics sink: %w", err)
		}
		hubSinks = append(hubSinks, promSink)
		metricsSrv = api.NewServer(env.cfg.Metrics.ListenAddr, registry, logger)
		metricsSrv.Start()
	}

	hub := progress.NewHub(progress.HubConfig{Logger: logger}, hubSinks...)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hub.Close(closeCtx); err != nil {
			logger.Warn("progress hub close failed", zap.Error(err))
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(closeCtx); err != nil {
				logger.Warn("metrics server shutdown failed", zap.Error(err))
			}
		}
	}()

	fetcher, err := crawler.NewCollyFetcher(env.cfg.Crawler, logger)
	if err != nil {
		return fmt.Errorf("init fetcher: %w", err)
	}
	eng := crawler.New(
		env.cfg.Crawler,
		fetcher,
		ptt.NewParser(),
		system.Clock{},
		uuid.Generator{},
		hub,
		logger,
	)

	result, err := fn(ctx, eng)
	if err != nil {
		return err
	}
	return writeResult(env, result)
}

func writeResult(env *appEnv, result *crawler.Result) error {
	writer, err := export.NewWriter(env.cfg.Crawler.OutputDir, env.logger)
	if err != nil {
		return err
	}
	jsonPath, err := writer.WriteJSON(result)
	if err != nil {
		return err
	}
	fmt.Printf("crawled %d articles (%d failures)\n", len(result.Articles), len(result.Failures))
	fmt.Println("json:", jsonPath)
	if csvOut {
		csvPath, err := writer.WriteCSV(result)
		if err != nil {
			return err
		}
		fmt.Println("csv:", csvPath)
	}
	for task, f := range result.Failures {
		fmt.Printf("failed %s: %s after %d attempts\n", task, f.Kind, f.Attempts)
	}
	return nil
}
