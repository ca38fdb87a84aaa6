// Package main is the entry point for the financial report service. It loads
// the configuration, opens the portfolio database, wires the analysis
// pipeline and serves reports over HTTP, optionally regenerating them on a
// cron schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wagnojunior/financial-report/internal/config"
	"github.com/wagnojunior/financial-report/internal/database"
	"github.com/wagnojunior/financial-report/internal/modules/currency"
	"github.com/wagnojunior/financial-report/internal/modules/history"
	"github.com/wagnojunior/financial-report/internal/modules/ledger"
	"github.com/wagnojunior/financial-report/internal/modules/report"
	"github.com/wagnojunior/financial-report/internal/scheduler"
	"github.com/wagnojunior/financial-report/internal/server"
	"github.com/wagnojunior/financial-report/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting financial report service")

	db, err := database.New(database.Config{Path: cfg.DatabasePath()})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	historyRepo := history.NewRepository(db.Conn(), log)
	rateRepo := currency.NewRepository(db.Conn())
	reports := report.NewService(ledgerRepo, historyRepo, rateRepo, log)

	sched := scheduler.New(log)
	if cfg.ReportSchedule != "" {
		job := scheduler.NewReportJob(reports, ledgerRepo, log)
		if err := sched.AddJob(cfg.ReportSchedule, job); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.ReportSchedule).Msg("Failed to register report job")
		}
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:       cfg.Port,
		DevMode:    cfg.DevMode,
		Log:        log,
		Reports:    reports,
		Portfolios: ledgerRepo,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}
