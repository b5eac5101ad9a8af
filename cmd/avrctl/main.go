// Command avrctl is a small daemon that connects to an AVR, keeps its
// property store up to date, and serves a read-only diagnostics
// endpoint over HTTP. Run with --serial to control over RS-232 instead
// of the default TCP control port.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/crowbarz/avrctl-go/internal/avr"
	"github.com/crowbarz/avrctl-go/internal/diag"
	"github.com/crowbarz/avrctl-go/internal/params"
	"github.com/crowbarz/avrctl-go/internal/userconfig"
)

func main() {
	var (
		host        = flag.String("host", "", "receiver hostname or IP (TCP mode)")
		port        = flag.Int("port", 0, "receiver TCP control port (default 8102)")
		serial      = flag.String("serial", "", "serial device path (e.g. /dev/ttyUSB0); overrides -host")
		baud        = flag.Int("baud", 0, "serial baud rate (default 9600)")
		addr        = flag.String("addr", ":8103", "diagnostics HTTP listen address")
		cfgDir      = flag.String("config-dir", "", "config directory (default: ~/.config/avrctl)")
		autoUpdate  = flag.Duration("auto-update", 60*time.Second, "auto-refresh poll interval")
		debug       = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	if *serial == "" && *host == "" {
		slog.Error("one of -host or -serial is required")
		os.Exit(1)
	}

	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "avrctl")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p := params.New()
	overridesPath := filepath.Join(*cfgDir, "overrides.json")
	watcher, err := userconfig.New(overridesPath, p)
	if err != nil {
		slog.Warn("userconfig watcher failed to start", "err", err)
	} else {
		defer watcher.Close()
	}

	var client *avr.Client
	if *serial != "" {
		slog.Info("connecting over serial", "path", *serial, "baud", *baud)
		client = avr.DialSerial(*serial, *baud, p)
	} else {
		slog.Info("connecting over tcp", "host", *host, "port", *port)
		client = avr.Dial(*host, *port, p)
	}

	if err := client.Connect(ctx, true); err != nil {
		slog.Error("initial connect failed", "err", err)
		os.Exit(1)
	}

	if err := client.QueryDeviceInfo(ctx); err != nil {
		slog.Warn("device info query failed", "err", err)
	}
	if err := client.QueryZones(ctx, false); err != nil {
		slog.Error("zone discovery failed", "err", err)
		os.Exit(1)
	}
	if err := client.Refresh(ctx, nil); err != nil {
		slog.Warn("initial refresh failed", "err", err)
	}

	zones := client.Snapshot().Zones
	slog.Info("receiver ready", "zones", zones, "model", p.Get(params.KeyModel, ""))

	go client.RunAutoUpdate(ctx, *autoUpdate)

	router := diag.NewRouter(client)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		slog.Info("avrctl listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}
	if err := client.Shutdown(); err != nil {
		slog.Warn("client shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}
