package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	staticcatalog "metroterminal/internal/adapter/catalog/static"
	httpadapter "metroterminal/internal/adapter/http"
	"metroterminal/internal/adapter/i18n"
	metricsinmem "metroterminal/internal/adapter/metrics/inmemory"
	"metroterminal/internal/adapter/notify/feed"
	"metroterminal/internal/adapter/repo"
	"metroterminal/internal/adapter/scheduler/realtime"
	"metroterminal/internal/app/session"
	"metroterminal/internal/config"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	hlog.SetLevel(cfg.HLogLevel())

	ctx := context.Background()
	backend, err := repo.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.Store, err)
	}
	defer func() { _ = backend.Close() }()

	text, err := i18n.New(cfg.Lang)
	if err != nil {
		log.Fatalf("load messages: %v", err)
	}

	events := feed.New(cfg.FeedLimit)
	sched := realtime.New(nil)
	defer sched.Close()
	catalog := staticcatalog.Provider{Root: resolveCatalogRoot(cfg.CatalogRoot)}
	kpiRecorder := metricsinmem.NewRecorder()

	sess := session.New(session.Deps{
		Store:     backend.Store,
		TxManager: backend.TxManager,
		Catalog:   catalog,
		Scheduler: sched,
		Notifier:  events,
		Audio:     events,
		Text:      text,
		Metrics:   kpiRecorder,
	}, cfg.Session())
	sched.SetDispatch(sess.Dispatch)
	if err := sess.Boot(ctx); err != nil {
		log.Printf("boot: %v (continuing without the missing catalog)", err)
	}

	h := httpadapter.Handler{
		Terminal: sess,
		Events:   events,
		Assets:   catalog,
		Sensor: httpadapter.SensorOptions{
			EnableHighAccuracy: true,
			MaximumAgeMs:       cfg.GeoMaxAge.Milliseconds(),
			TimeoutMs:          cfg.GeoTimeout.Milliseconds(),
		},
		KPI:         kpiRecorder,
		AllowOrigin: cfg.CORSOrigin,
	}

	s := server.Default(server.WithHostPorts(cfg.Addr))
	h.RegisterRoutes(s)

	log.Printf("metro terminal listening on %s (store=%s terminal=%s lang=%s)", cfg.Addr, cfg.Store, cfg.TerminalID, cfg.Lang)
	s.Spin()
}

// resolveCatalogRoot keeps the configured root when it holds the code
// catalog and otherwise falls back to ./data next to the binary.
func resolveCatalogRoot(configured string) string {
	if hasCatalog(configured) {
		return configured
	}
	exe, err := os.Executable()
	if err == nil {
		if dir := filepath.Join(filepath.Dir(exe), "data"); hasCatalog(dir) {
			return dir
		}
	}
	return configured
}

func hasCatalog(root string) bool {
	if root == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(root, staticcatalog.CodesFile))
	return err == nil
}
