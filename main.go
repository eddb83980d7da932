package main

import (
	"context"
	"errors"
	"flag"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"filedeck/cloud"
	"filedeck/config"
	"filedeck/controller"
	"filedeck/events"
	"filedeck/index"
	"filedeck/logging"
	"filedeck/server"
	"filedeck/vfs"
	syncsvc "filedeck/websocket/service/sync"
)

func main() {
	var (
		configPath string
		port       int
	)
	flag.StringVar(&configPath, "config", "", "path to config.toml (default: <data dir>/config.toml)")
	flag.IntVar(&port, "port", 0, "port to listen on (overrides config)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		stdlog.Fatalf("load config: %v", err)
	}
	if port != 0 {
		cfg.Port = port
	}

	if err := logging.Init(cfg.Logging()); err != nil {
		stdlog.Fatalf("init logging: %v", err)
	}
	defer logging.Sync()
	log := logging.S()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalw("failed to create data dir", "path", cfg.DataDir, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broadcaster := events.NewBroadcaster()

	clouds := cloud.Mounts(cfg.DataDir)
	if err := cloud.Seed(clouds, log); err != nil {
		log.Fatalw("failed to seed cloud mounts", "error", err)
	}

	folders := vfs.DefaultSpecialFolders()
	fs := vfs.New(vfs.Options{
		Folders:     folders,
		Clouds:      clouds,
		Broadcaster: broadcaster,
		Logger:      log,
	})

	store, err := index.Open(cfg.IndexPath())
	if err != nil {
		log.Fatalw("failed to open index", "path", cfg.IndexPath(), "error", err)
	}
	defer store.Close()

	scanner := index.NewScanner(store, index.RootsFor(folders, clouds), log)
	if cfg.ScanOnStart {
		go func() {
			if err := scanner.ScanAll(ctx); err != nil {
				log.Warnw("initial index scan failed", "error", err)
			}
		}()
	}

	watcher := index.NewWatcher(scanner, broadcaster, log)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			log.Warnw("filesystem watcher stopped", "error", err)
		}
	}()

	engine := syncsvc.NewEngine(broadcaster, time.Duration(cfg.SyncIntervalSecs)*time.Second)
	go engine.Run(ctx)

	ctl := &controller.Controller{
		FS:           fs,
		Store:        store,
		Engine:       engine,
		Broadcaster:  broadcaster,
		SettingsPath: cfg.SettingsPath(),
	}

	if err := server.Start(ctx, cfg.Port, ctl); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("server failed", "error", err)
	}
	log.Infow("shut down")
}
