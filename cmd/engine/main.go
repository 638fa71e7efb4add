package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"habita-engine/internal/alerts"
	"habita-engine/internal/config"
	"habita-engine/internal/domain"
	"habita-engine/internal/events"
	"habita-engine/internal/fetch"
	"habita-engine/internal/filter"
	"habita-engine/internal/httpapi"
	"habita-engine/internal/notify"
	"habita-engine/internal/rank"
	"habita-engine/internal/scrape"
	"habita-engine/internal/search"
	"habita-engine/internal/secrets"
	"habita-engine/internal/store"
)

func main() {
	// .env is optional; real deployments use the environment or keychain.
	_ = godotenv.Load()

	dataDir := os.Getenv("HABITA_DATA_DIR")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		dataDir = filepath.Join(home, ".habita")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Single instance per data dir; two engines sharing one sqlite file
	// and one alerts schedule would double-send mail.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running for %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	normalized, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		for _, e := range vr.Errors {
			log.Printf("[config] error: %s", e)
		}
		log.Fatalf("config invalid (%s)", userCfgPath)
	}
	for _, wmsg := range vr.Warnings {
		log.Printf("[config] warning: %s", wmsg)
	}
	cfg = normalized
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "habita.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		log.Fatal(err)
	}

	scraperKey, err := secrets.Get(secrets.AccountScraperAPI)
	if err != nil {
		log.Printf("[secrets] no ScraperAPI key, portals will be fetched directly: %v", err)
	}
	fetcher := fetch.NewClient(fetch.Config{
		ScraperAPIKey:     scraperKey,
		CountryCode:       cfg.Fetch.CountryCode,
		ProxyTimeout:      time.Duration(cfg.Fetch.ProxyTimeoutSeconds) * time.Second,
		DirectTimeout:     time.Duration(cfg.Fetch.DirectTimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		Burst:             cfg.Fetch.Burst,
	})

	sources := scrape.Build(cfg, fetcher)
	log.Printf("[engine] portals: %v", scrape.Names(sources))

	var annotator rank.Annotator
	if cfg.AI.Enabled {
		if key, err := secrets.Get(secrets.AccountAnthropic); err == nil {
			annotator = rank.NewClaude(rank.ClaudeConfig{
				APIKey:      key,
				Model:       cfg.AI.Model,
				MaxTokens:   cfg.AI.MaxTokens,
				MaxListings: cfg.AI.MaxListings,
			})
		} else {
			log.Printf("[secrets] no Anthropic key, results will be unscored: %v", err)
		}
	}

	var mailer notify.Mailer
	if cfg.SMTP.Host != "" && cfg.SMTP.Username != "" {
		pw, err := secrets.Get(secrets.AccountSMTP)
		if err != nil {
			log.Printf("[secrets] no SMTP password, alert mail disabled: %v", err)
		} else {
			mailer = notify.NewSMTPMailer(notify.SMTPConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: pw,
				From:     cfg.SMTP.From,
			})
		}
	}

	engine := &search.Engine{
		Sources:          sources,
		Filter:           filter.New(cfg.Filter.Slack),
		Annotator:        annotator,
		PerSourceTimeout: time.Duration(cfg.Search.PerSourceTimeoutSeconds) * time.Second,
	}
	runSearch := func(ctx context.Context, c domain.Criteria) domain.SearchResult {
		return engine.Search(ctx, c)
	}

	hub := events.NewHub()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if mailer != nil {
		runner := &alerts.Runner{
			DB:       db,
			Search:   runSearch,
			Mailer:   mailer,
			Hub:      hub,
			Interval: time.Duration(cfg.Alerts.IntervalHours) * time.Hour,
		}
		go runner.Start(ctx)
	} else {
		log.Printf("[alerts] disabled: mail is not configured")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		RunSearch:   runSearch,
		Mailer:      mailer,
		Fetcher:     fetcher,
		Portals:     portals(cfg),
		HasProxyKey: scraperKey != "",
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.App.Port),
		Handler:           httpapi.Chain(router, httpapi.RequestID, httpapi.AccessLog, httpapi.Recover, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Printf("engine listening on http://%s (db=%s)", srv.Addr, dbPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("engine stopped")
}

func portals(cfg config.Config) []httpapi.Portal {
	var out []httpapi.Portal
	if cfg.Sources.Metrocuadrado.Enabled {
		out = append(out, httpapi.Portal{Name: "metrocuadrado", BaseURL: cfg.Sources.Metrocuadrado.BaseURL})
	}
	if cfg.Sources.Fincaraiz.Enabled {
		out = append(out, httpapi.Portal{Name: "fincaraiz", BaseURL: cfg.Sources.Fincaraiz.BaseURL})
	}
	if cfg.Sources.Ciencuadras.Enabled {
		out = append(out, httpapi.Portal{Name: "ciencuadras", BaseURL: cfg.Sources.Ciencuadras.BaseURL})
	}
	return out
}
