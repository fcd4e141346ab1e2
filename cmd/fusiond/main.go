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

	"tailscale.com/tsnet"

	"github.com/claude/vitalfusion/internal/config"
	"github.com/claude/vitalfusion/internal/fusionconfig"
	"github.com/claude/vitalfusion/internal/mcpserver"
	"github.com/claude/vitalfusion/internal/server"
	"github.com/claude/vitalfusion/internal/store"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to host config file")
	fusionConfigPath := flag.String("fusion-config", "fusion.yaml", "path to fusion domain config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("vitalfusion starting", "version", Version)

	hostCfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load host config", "error", err)
		os.Exit(1)
	}

	dsn := hostCfg.Database.DSN()
	if err := store.RunMigrations(dsn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	ctx := context.Background()
	db, err := store.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	fusionCfg, err := fusionconfig.Load(*fusionConfigPath)
	if err != nil {
		log.Error("failed to load fusion config", "error", err)
		os.Exit(1)
	}
	for _, w := range fusionCfg.Warnings {
		log.Warn("fusion config warning", "warning", w)
	}
	cfgManager := fusionconfig.NewManager(fusionCfg)

	srv := server.New(db, cfgManager, log)
	srv.SetMCP(mcpserver.New(db, cfgManager, Version, log))

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if hostCfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: hostCfg.Tailscale.Hostname,
			Dir:      hostCfg.Tailscale.StateDir,
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
		log.Info("tsnet server starting", "hostname", hostCfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", hostCfg.Server.Host, hostCfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
