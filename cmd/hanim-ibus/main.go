//go:build linux

// hanim-ibus is the Korean input method engine for IBus.
//
// It connects to the IBus bus over D-Bus and to the X server, where it
// draws the preedit overlay for clients that cannot show it themselves.
//
// Installation:
//  1. Copy the binary to /usr/local/bin/hanim-ibus
//  2. Run: hanim-ibus -install
//  3. Restart IBus: ibus restart
//  4. Add "Korean (Hanim)" in ibus-setup or the desktop keyboard settings
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"

	"hanim/internal/config"
	"hanim/internal/eventloop"
	"hanim/internal/hangul"
	"hanim/internal/health"
	"hanim/internal/ibus"
	"hanim/internal/ime"
	"hanim/internal/logging"
	"hanim/internal/metrics"
	"hanim/internal/preedit"
	"hanim/internal/x11"
)

func main() {
	configPath := flag.String("config", "", "Configuration file (default "+config.ConfigPath()+")")
	debug := flag.Bool("debug", false, "Log at debug level")
	installFlag := flag.Bool("install", false, "Install the IBus component file")
	uninstallFlag := flag.Bool("uninstall", false, "Remove the IBus component file")
	flag.Bool("ibus", false, "Started by the IBus daemon")
	flag.Parse()

	if *installFlag {
		path, err := installComponent()
		if err != nil {
			log.Fatalf("Failed to install: %v", err)
		}
		log.Printf("Installed %s. Run 'ibus restart' to load.", path)
		return
	}
	if *uninstallFlag {
		if err := uninstallComponent(); err != nil {
			log.Fatalf("Failed to uninstall: %v", err)
		}
		log.Println("Uninstalled successfully.")
		return
	}

	if err := run(*configPath, *debug); err != nil {
		log.Fatalf("hanim-ibus: %v", err)
	}
}

func run(configPath string, debug bool) error {
	if configPath == "" {
		configPath = config.ConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCfg, err := logging.FromSettings(cfg.Logging)
	if err != nil {
		return err
	}
	if debug {
		logCfg.Level = slog.LevelDebug
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	display, err := x11.Dial(cfg.Server.Display, cfg.Server.Screen, logger.WithComponent("x11").Logger)
	if err != nil {
		return err
	}
	defer display.Close()

	bus, err := connectBus(cfg.Server.IBusAddress)
	if err != nil {
		return err
	}
	defer bus.Close()

	m := metrics.NewServerMetrics(nil)
	loop := eventloop.New(64)

	frontend := ibus.New(bus, loop, logger.WithComponent("ibus").Logger, m)
	handler := ime.NewHandler(ime.Options{
		Config:  cfg.Snapshot(),
		Server:  frontend,
		Display: display,
		Engine:  hangul.Factory,
		Screen:  display.Screen(),
		Logger:  logger.WithComponent("ime").Logger,
		Metrics: m,
	})

	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go loop.Run(loopCtx)

	if err := frontend.Attach(handler); err != nil {
		return err
	}
	if err := frontend.Start(ibus.BusName); err != nil {
		return err
	}

	go func() {
		err := display.Pump(ctx, &loopSink{loop: loop, h: handler, logger: logger.Logger, metrics: m})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("x11 event pump stopped", "error", err)
			stop()
		}
	}()

	if addr := cfg.Server.MetricsAddr; addr != "" {
		checker := health.NewChecker()
		checker.Register("eventloop", true, time.Second, loop.Ping)
		checker.Register("x11", true, time.Second, func(context.Context) error { return display.Ping() })
		extra := map[string]http.Handler{"/healthz": checker.Handler()}
		go func() {
			if err := metrics.Serve(ctx, addr, m.Registry(), extra, logger.Logger); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	watchConfig(ctx, configPath, logger.Logger)

	logger.Info("hanim started", "display", cfg.Server.Display, "screen", display.Screen())
	<-ctx.Done()
	logger.Info("shutting down")

	if err := frontend.Close(); err != nil {
		logger.Warn("closing contexts", "error", err)
	}
	return nil
}

func connectBus(addr string) (*dbus.Conn, error) {
	if addr == "" {
		conn, err := dbus.SessionBus()
		if err != nil {
			return nil, fmt.Errorf("connect to session bus: %w", err)
		}
		return conn, nil
	}
	conn, err := dbus.Connect(addr)
	if err != nil {
		return nil, fmt.Errorf("connect to ibus at %s: %w", addr, err)
	}
	return conn, nil
}

func watchConfig(ctx context.Context, path string, logger *slog.Logger) {
	w, err := config.NewWatcher(path)
	if err != nil {
		logger.Debug("config watcher unavailable", "error", err)
		return
	}
	go func() {
		defer w.Close()
		w.Run(ctx,
			func(p string) {
				logger.Warn("configuration changed; restart hanim-ibus to apply", "path", p)
			},
			func(err error) {
				logger.Warn("config watcher error", "error", err)
			},
		)
	}()
}

// loopSink moves X events onto the event loop.
type loopSink struct {
	loop    *eventloop.Loop
	h       *ime.Handler
	logger  *slog.Logger
	metrics *metrics.ServerMetrics
}

func (s *loopSink) post(op string, fn func() error) {
	s.loop.Post(func() {
		if err := fn(); err != nil {
			s.metrics.ErrorsTotal.Inc()
			s.logger.Warn("overlay event failed", "op", op, "error", err)
		}
	})
}

func (s *loopSink) Expose(w preedit.WindowID) {
	s.post("expose", func() error { return s.h.Expose(w) })
}

func (s *loopSink) ConfigureNotify(ev preedit.ConfigureEvent) {
	s.post("configure", func() error { return s.h.ConfigureNotify(ev) })
}
