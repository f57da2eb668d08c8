package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/varunvs7692/chaos-negotiator/internal/engine"
	"github.com/varunvs7692/chaos-negotiator/internal/httpx"
	"github.com/varunvs7692/chaos-negotiator/internal/outcome"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/ensemble"
	"github.com/varunvs7692/chaos-negotiator/internal/risk/mlscore"
	"github.com/varunvs7692/chaos-negotiator/internal/scheduler"
	"github.com/varunvs7692/chaos-negotiator/internal/store"
	"github.com/varunvs7692/chaos-negotiator/internal/tuner"
	"github.com/varunvs7692/chaos-negotiator/pkg/config"
	"github.com/varunvs7692/chaos-negotiator/pkg/logger"
)

func main() {
	cfg := config.LoadEngineConfig()
	log := logger.New("negotiator", slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	historyStore, err := store.Open(ctx, cfg.HistoryDBPath, log, store.WithRetentionCap(cfg.HistoryRetentionRows))
	if err != nil {
		log.Error("failed to open outcome store", "error", err)
		os.Exit(1)
	}
	defer historyStore.Close()

	scorer := mlscore.New()
	predictor := ensemble.New(scorer, historyStore)
	predictor.SetWeights(cfg.InitialWeights)
	recorder := outcome.New(predictor, historyStore)

	eng := engine.New(predictor, recorder, historyStore, log)
	eng.MarkReady()

	if cfg.EnableTuning {
		tunerCfg := tuner.DefaultConfig()
		tunerCfg.SampleWindow = cfg.TuningSampleWindow
		t := tuner.New(predictor, historyStore, tunerCfg)
		sched := scheduler.New(t, cfg.TuningInterval(), log)
		go sched.Run(ctx)
	} else {
		log.Info("weight tuning disabled")
	}

	router := httpx.NewRouter(eng, log, httpx.Config{
		APIAuthKey:     cfg.APIAuthKey,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("negotiator server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("negotiator server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
