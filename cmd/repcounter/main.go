package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repcounter/internal/config"
	"github.com/claude/repcounter/internal/logging"
	rcmcp "github.com/claude/repcounter/internal/mcp"
	"github.com/claude/repcounter/internal/metrics"
	"github.com/claude/repcounter/internal/server"
	"github.com/claude/repcounter/internal/session"
	"github.com/claude/repcounter/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run postgres migrations and exit")
	mcpRemote := flag.String("mcp-remote", "", "serve MCP over stdio against a remote server URL instead of running the counter")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("repcounter", Version)
		return
	}

	if *mcpRemote != "" {
		os.Exit(serveRemoteMCP(*mcpRemote))
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(cfg.Logging)
	defer logCloser.Close()
	log.Info("RepCounter starting", "version", Version)

	if *migrateOnly {
		if cfg.Storage.Backend != storage.BackendPostgres {
			log.Error("migrate-only needs the postgres backend", "backend", cfg.Storage.Backend)
			os.Exit(1)
		}
		if err := storage.RunMigrations(cfg.Storage.Database.DSN(), cfg.Storage.Migrations); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrate-only: exiting")
		return
	}

	catalog, err := cfg.Catalog()
	if err != nil {
		log.Error("invalid exercise catalog", "error", err)
		os.Exit(1)
	}

	// Open session store
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{
		Backend:        cfg.Storage.Backend,
		Path:           cfg.Storage.Path,
		DSN:            cfg.Storage.Database.DSN(),
		MigrationsPath: cfg.Storage.Migrations,
	}, log)
	if err != nil {
		log.Error("failed to open store", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("store opened", "backend", cfg.Storage.Backend)

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("repcounter", "", reg)

	ctrl := session.NewController(catalog, store, session.ControllerConfig{
		Window:    cfg.Session.SmoothingWindow,
		AutoClose: cfg.Session.AutoCloseAfter,
	}, m, log)

	// Create server
	srv := server.New(ctrl, cfg.Auth.APIKey, log)
	srv.SetMetrics(reg)
	mcpSrv := rcmcp.New(rcmcp.NewLocalSource(ctrl), Version, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcpSrv))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig)
	case err := <-serveErr:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	// A session still open at exit is saved with the reps it reached.
	if err := ctrl.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to save open session", "error", err)
	}
	log.Info("server stopped")
}

// serveRemoteMCP runs the MCP tools over stdio, backed by a remote server.
// Stdout carries the protocol, so logs go to stderr.
func serveRemoteMCP(serverURL string) int {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("serving MCP over stdio", "server", serverURL)

	s := rcmcp.New(rcmcp.NewHTTPClient(serverURL), Version, log)
	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp stdio server failed", "error", err)
		return 1
	}
	return 0
}
