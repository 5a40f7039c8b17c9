package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/tabtile/internal/config"
	"github.com/1broseidon/tabtile/internal/daemon"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/1broseidon/tabtile/internal/hotkeys"
	"github.com/1broseidon/tabtile/internal/ipc"
	"github.com/1broseidon/tabtile/internal/overlay"
	"github.com/1broseidon/tabtile/internal/platform"
	"github.com/1broseidon/tabtile/internal/runtimepath"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	display := fs.String("display", "", "X display to manage (default: $DISPLAY)")
	path := fs.String("path", "", "Config file path (default: ~/.config/tabtile/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabtile daemon [--display NAME] [--path PATH]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return 2
	}

	cfgPath := *path
	if cfgPath == "" {
		p, err := config.DefaultConfigPath()
		if err != nil {
			log.Printf("Failed to resolve config path: %v", err)
			return 1
		}
		cfgPath = p
	}

	release, err := runtimepath.ClaimPID()
	if err != nil {
		log.Printf("Cannot start: %v", err)
		return 1
	}
	defer release()

	res, err := config.LoadFromPath(cfgPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	cfg := res.Config
	log.Printf("Configuration loaded from %d file(s) (bar: %dpx, resync: %dms)", len(res.Files), cfg.Bar.Height, cfg.ResyncDelayMS)

	backend, err := platform.NewLinuxBackendFromDisplay(*display)
	if err != nil {
		log.Printf("Failed to connect to display: %v", err)
		return 1
	}
	defer backend.Disconnect()

	conn := backend.Connection()
	if wm, err := conn.WindowManager(); err != nil {
		log.Printf("Warning: %v", err)
	} else {
		log.Printf("Window manager: %s", wm)
	}
	if missing, err := conn.MissingHints(); err == nil && len(missing) > 0 {
		log.Printf("Warning: window manager does not advertise %s; some tab operations will fail", strings.Join(missing, ", "))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))

	// Bar input arrives on the X event goroutine; the controller is assigned
	// before the event loop starts.
	var ctrl *daemon.Controller
	xu := backend.XUtil()
	painter := overlay.NewPainter(xu, xu.RootWin(), layoutFromConfig(cfg), paletteFromConfig(cfg), overlay.Handlers{
		Click: func(id group.ID, index int, button int) { ctrl.ClickTab(id, index, button) },
		Drag: func(source group.ID, window group.WindowID, p geometry.Point) {
			ctrl.DragOver(source, window, p)
		},
		Drop: func(source group.ID, window group.WindowID, p geometry.Point) {
			ctrl.DropAt(source, window, p)
		},
		DragEnd: func(source group.ID) { ctrl.DragEnd(source) },
	})
	defer painter.Cleanup()

	ctrl = daemon.New(daemon.Options{
		Backend:  backend,
		Watcher:  backend,
		Painter:  painter,
		Settings: settingsFromConfig(cfg),
		Logger:   logger,
	})

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: time.Duration(cfg.ReconcileIntervalMS) * time.Millisecond,
		Logger:   logger,
	}, ctrl, backend.ListWindows)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hotkeyHandler := hotkeys.NewHandler(ctx, xu, ctrl)
	if err := hotkeyHandler.Register(bindingsFromConfig(cfg)); err != nil {
		log.Printf("Warning: %v", err)
	}

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(ctrl, reloadChan)
	if err != nil {
		log.Printf("Failed to create IPC server: %v", err)
		return 1
	}
	ipcServer.ConfigPath = cfgPath
	if err := ipcServer.Start(); err != nil {
		log.Printf("Failed to start IPC server: %v", err)
		return 1
	}
	defer ipcServer.Stop()

	var applyMu sync.Mutex
	apply := func(ctx context.Context, newCfg *config.Config, origin string) {
		applyMu.Lock()
		defer applyMu.Unlock()

		painter.Configure(layoutFromConfig(newCfg), paletteFromConfig(newCfg))
		if err := ctrl.Apply(ctx, settingsFromConfig(newCfg)); err != nil {
			log.Printf("Config reload (%s) failed: %v", origin, err)
			return
		}
		if err := hotkeyHandler.Rebind(bindingsFromConfig(newCfg)); err != nil {
			log.Printf("Config reload (%s): %v", origin, err)
		}
		log.Printf("Config reloaded (%s)", origin)
	}
	reloadFromDisk := func(ctx context.Context, origin string) {
		res, err := config.LoadFromPath(cfgPath)
		if err != nil {
			log.Printf("Config reload (%s) failed: %v", origin, err)
			return
		}
		apply(ctx, res.Config, origin)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	signals := func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					log.Println("Received SIGHUP, reloading config...")
					reloadFromDisk(ctx, "SIGHUP")
					continue
				}
				log.Println("Shutting down tabtile daemon...")
				return errShutdown
			case <-reloadChan:
				reloadFromDisk(ctx, "IPC")
			}
		}
	}
	watch := func(ctx context.Context) error {
		err := config.Watch(ctx, cfgPath, func(newCfg *config.Config, err error) {
			if err != nil {
				log.Printf("Config change ignored: %v", err)
				return
			}
			apply(ctx, newCfg, "file change")
		})
		if err != nil {
			// Live reload is optional; SIGHUP and IPC still work.
			log.Printf("Warning: config watch disabled: %v", err)
		}
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := daemon.Run(ctx, ctrl, reconciler, signals, watch)
		done <- err
		backend.Quit()
	}()

	log.Println("tabtile daemon started; entering event loop...")
	backend.EventLoop()

	cancel()
	if err := <-done; err != nil && !errors.Is(err, errShutdown) {
		log.Printf("Daemon stopped: %v", err)
		return 1
	}
	return 0
}

var errShutdown = errors.New("shutdown requested")
