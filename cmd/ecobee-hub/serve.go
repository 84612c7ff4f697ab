package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-limiter/memorystore"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ecobeehub/internal/api"
	"ecobeehub/internal/auth"
	"ecobeehub/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hub: HTTP API, poll scheduler and background authorization",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	triggerLimit, err := memorystore.New(&memorystore.Config{
		Tokens:   a.cfg.Limits.TriggerTokens,
		Interval: a.cfg.Limits.TriggerInterval.Std(),
	})
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}
	defer triggerLimit.Close(context.Background())

	// Discovery follows every approved PIN
	pinFlow := auth.NewPinFlow(a.lifecycle, a.discover, a.logger)
	defer pinFlow.Close()
	reauthorizeOnInvalidation(ctx, a, pinFlow)

	sched := scheduler.NewScheduler(a.orchestrator, a.cfg.Ecobee.PollInterval.Std(), a.logger)

	router := api.NewRouter(api.RouterConfig{
		Nodes:        a.nodes,
		Orchestrator: a.orchestrator,
		Auth:         a.lifecycle,
		Pin:          pinFlow,
		Notices:      a.store,
		Gatherer:     a.registry,
		TriggerLimit: triggerLimit,
		APIKey:       a.cfg.Server.APIKey,
		Logger:       a.logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		startup(gctx, a, pinFlow)
		return nil
	})

	g.Go(func() error {
		if err := sched.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		sched.Stop()
		return nil
	})

	g.Go(func() error {
		a.logger.Info("Starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Graceful shutdown complete")
	return nil
}

// startup discovers thermostats when tokens are held, otherwise starts the
// PIN flow. A stored token that the vendor rejects during discovery starts
// the PIN flow through the invalidation hook.
func startup(ctx context.Context, a *app, pinFlow *auth.PinFlow) {
	if a.lifecycle.HasToken() {
		a.discover(ctx)
		if a.lifecycle.HasToken() {
			return
		}
	}
	requestAuthorization(ctx, a, pinFlow)
}

// reauthorizeOnInvalidation starts a new PIN flow whenever the vendor
// rejects the token set, so the operator sees a fresh PIN notice.
func reauthorizeOnInvalidation(ctx context.Context, a *app, pinFlow *auth.PinFlow) {
	a.lifecycle.OnInvalidated(func(context.Context) {
		a.logger.Warn("ecobee authorization revoked, requesting a new PIN")
		requestAuthorization(ctx, a, pinFlow)
	})
}

func requestAuthorization(ctx context.Context, a *app, pinFlow *auth.PinFlow) {
	req, err := pinFlow.Start(ctx)
	if errors.Is(err, auth.ErrFlowRunning) {
		a.logger.Debug("PIN authorization already in progress")
		return
	}
	if err != nil {
		a.logger.Error("Failed to start PIN authorization", "error", err)
		return
	}
	a.logger.Info("Authorization required, enter the PIN at ecobee.com",
		"pin", req.PIN,
		"expires_in", req.ExpiresIn)
}
