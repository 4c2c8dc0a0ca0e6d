package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linkcore/internal/config"
	"linkcore/internal/consolidation"
	"linkcore/internal/introspect"
	"linkcore/internal/logging"
	"linkcore/internal/runtime"
)

var (
	serveAddr          string
	serveDisableLoops  []string
	serveConfigWatch   bool
)

// serveCmd starts the background runtime (consolidation, decay, health
// loops) plus the HTTP introspection server, and blocks until signaled.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Linking Core daemon: background loops + introspection server",
	Long: `serve boots the store, graph, scorer, and consolidation pipeline, then
starts the periodic background loops (consolidation sweep, decay sweep,
health check) alongside an HTTP introspection server.

It runs until interrupted (SIGINT/SIGTERM), then shuts down cooperatively,
waiting up to runtime.shutdown_grace_ms for in-flight loop ticks to finish.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":7417", "HTTP address for the introspection server")
	serveCmd.Flags().StringSliceVar(&serveDisableLoops, "disable-loop", nil, "Disable a default loop by name (consolidation, decay, health)")
	serveCmd.Flags().BoolVar(&serveConfigWatch, "watch-config", false, "Watch config.yaml and log each reload; running loops keep their settings")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := boot()
	if err != nil {
		return err
	}
	defer a.close()

	log := logging.Get(logging.CategoryRuntime)

	disabled := map[string]bool{}
	for _, name := range serveDisableLoops {
		disabled[name] = true
	}

	pipeline := consolidation.New(a.store, a.graph, a.scorer, a.cfg)
	runner := runtime.New(a.store, a.cfg)

	cooldown := time.Duration(a.cfg.Consolidation.CooldownSeconds) * time.Second
	const maxConsecutiveErrors = 5

	if !disabled["consolidation"] {
		runner.RegisterLoop(runtime.NewConsolidationLoop(a.store, pipeline, a.cfg.Loop, cooldown, maxConsecutiveErrors))
	}
	if !disabled["decay"] {
		runner.RegisterLoop(runtime.NewDecayLoop(a.graph, a.cfg.Decay, a.cfg.Loop, cooldown, maxConsecutiveErrors))
	}
	if !disabled["health"] {
		runner.RegisterLoop(runtime.NewHealthLoop(a.store, a.cfg.Loop, cooldown, maxConsecutiveErrors))
	}

	if logger != nil {
		logger.Info("linkcored serve starting", zap.String("addr", serveAddr), zap.Strings("disabled_loops", serveDisableLoops))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveConfigWatch && configPath != "" {
		watcher, err := config.NewWatcher(configPath, a.cfg, func(reloaded *config.Config) {
			log.Info("config reloaded from %s", configPath)
		})
		if err != nil {
			log.Warn("config watch disabled: %v", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	runner.Start(ctx)

	httpServer := introspect.NewHTTPServer(a.api)
	srv := &http.Server{Addr: serveAddr, Handler: httpServer.Handler()}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("introspection server listening on %s", serveAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErrCh:
		log.Warn("introspection server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Runtime.ShutdownGraceMS)*time.Millisecond)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("introspection server shutdown: %v", err)
	}

	runner.Shutdown()
	if logger != nil {
		logger.Info("linkcored serve stopped")
	}
	fmt.Println("linkcored stopped")
	return nil
}
