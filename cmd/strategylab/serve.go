package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/strategylab/internal/api"
	"github.com/newthinker/strategylab/internal/api/job"
	"github.com/newthinker/strategylab/internal/config"
	"github.com/newthinker/strategylab/internal/dataset"
	"github.com/newthinker/strategylab/internal/notifier"
	"github.com/newthinker/strategylab/internal/notifier/telegram"
	"github.com/newthinker/strategylab/internal/notifier/webhook"
	"github.com/newthinker/strategylab/internal/report"
	"github.com/newthinker/strategylab/internal/runner"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the StrategyLab API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer e.close(context.Background())
	cfg := e.cfg

	store, err := report.NewStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening report storage: %w", err)
	}

	notify, err := buildNotifiers(cfg.Notify)
	if err != nil {
		return err
	}

	metricsPath := ""
	if e.metrics != nil {
		metricsPath = cfg.Metrics.Path
	}

	e.log.Info("starting StrategyLab server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Server.DataDir),
		zap.String("storage", cfg.Storage.Type),
		zap.Strings("notifiers", notify.Names()),
	)

	server, err := api.NewServer(api.Config{
		Host:        cfg.Server.Host,
		Port:        cfg.Server.Port,
		APIKey:      cfg.Server.APIKey,
		DataDir:     cfg.Server.DataDir,
		MetricsPath: metricsPath,
	}, api.Dependencies{
		Runner:   e.runner,
		Datasets: dataset.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval, cfg.Indicators.Params()),
		Jobs:     job.NewStore(cfg.Server.MaxJobs, time.Duration(cfg.Server.JobTTLHours)*time.Hour),
		Reports:  store,
		Metrics:  e.metrics,
		Notifier: notify,
		Defaults: runner.FromConfig(cfg),
	}, e.log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// buildNotifiers registers every notifier the config enables.
func buildNotifiers(cfg config.NotifyConfig) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()
	if cfg.Webhook.URL != "" {
		wh, err := webhook.New(cfg.Webhook.URL, cfg.Webhook.Headers)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(wh); err != nil {
			return nil, err
		}
	}
	if cfg.Telegram.BotToken != "" {
		tg, err := telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(tg); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
