package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mebbisauto/internal/api"
	"mebbisauto/internal/browser"
	"mebbisauto/internal/config"
	"mebbisauto/internal/jobs"
	"mebbisauto/internal/logger"
	"mebbisauto/internal/routes"
	"mebbisauto/internal/store"
	"mebbisauto/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("yapılandırma hatası: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Writers: cfg.Log.Writers,
		File:    cfg.Log.File,
	})

	if err := run(cfg, log); err != nil {
		log.Error("servis durdu", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	defer st.Close()

	if n, err := st.ResetStale(ctx); err != nil {
		return err
	} else if n > 0 {
		log.Warn("yarıda kalmış işler başarısız işaretlendi", "count", n)
	}

	session := browser.NewSession(browser.Config{
		Username:    cfg.Mebbis.Username,
		Password:    cfg.Mebbis.Password,
		Headless:    cfg.Mebbis.Headless,
		Timeout:     time.Duration(cfg.Mebbis.TimeoutMS) * time.Millisecond,
		DevToolsURL: cfg.Mebbis.DevToolsURL,
		ChromePath:  cfg.Mebbis.ChromePath,
		DebugPort:   cfg.Mebbis.DebugPort,
	}, routes.Defaults(), log)
	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Close()

	batch := workflow.NewBatch(time.Duration(cfg.BatchDelayMS)*time.Millisecond, log)
	syncSvc := workflow.NewStudentSyncService(session, log)
	invoiceSvc := workflow.NewInvoiceService(session, batch, log)
	bepSvc := workflow.NewBepService(session, batch, log)

	runner := jobs.NewRunner(st, jobs.Services{
		Education: workflow.NewEducationService(session, batch, log),
		Sync:      syncSvc,
		Invoice:   invoiceSvc,
		Bep:       bepSvc,
	}, 64, log)
	runner.Start(ctx)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewServer(runner, st, syncSvc, invoiceSvc, bepSvc, session, log).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("servis dinliyor", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("kapatma sinyali alındı")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http sunucusu temiz kapanamadı", "error", err)
	}
	runner.Wait()
	return nil
}
