package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"mailhunt-engine/internal/config"
	"mailhunt-engine/internal/dedup"
	"mailhunt-engine/internal/domain"
	"mailhunt-engine/internal/events"
	"mailhunt-engine/internal/httpapi"
	"mailhunt-engine/internal/mailstore"
	"mailhunt-engine/internal/parse"
	"mailhunt-engine/internal/pipeline"
	"mailhunt-engine/internal/scheduler"
	"mailhunt-engine/internal/secrets"
	"mailhunt-engine/internal/store"
)

const defaultPort = 38471

// jobStore adapts the sqlite store to the pipeline's persistence interface.
type jobStore struct{ db *sql.DB }

func (s jobStore) Snapshot(ctx context.Context) ([]dedup.Seed, error) {
	return store.Snapshot(ctx, s.db)
}

func (s jobStore) Insert(ctx context.Context, c domain.IngestCandidate) (int64, error) {
	j, err := store.Insert(ctx, s.db, c)
	return j.ID, err
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	// Engine data dir: use env if provided (the desktop shell passes one),
	// else local folder.
	dataDir := os.Getenv("MAILHUNT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatalw("cannot create data dir", "dir", dataDir, "err", err)
	}

	// One engine per data dir; a second instance would race on sqlite and
	// double-ingest the mailbox.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalw("data dir lock failed", "err", err)
	}
	if !locked {
		log.Fatalw("another engine instance holds the data dir", "dir", dataDir)
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalw("config bootstrap failed", "err", err)
	}

	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		norm, vr := config.NormalizeAndValidate(cfg)
		for _, warn := range vr.Warnings {
			log.Warnw("config warning", "msg", warn)
		}
		if !vr.OK() {
			return cfg, errors.New("invalid config: " + vr.Errors[0])
		}
		return norm, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalw("config load failed", "path", userCfgPath, "err", err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "mailhunt.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalw("db open failed", "path", dbPath, "err", err)
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		log.Fatalw("db migrate failed", "err", err)
	}

	hub := events.NewHub()

	runIngest := func(ctx context.Context, cfg config.Config, onProgress func(pipeline.Progress)) (pipeline.Result, error) {
		return ingestOnce(ctx, db, cfg, log, onProgress)
	}
	ingest := httpapi.NewIngestHandler(&cfgVal, hub, runIngest)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		Ingest:      ingest,
	})

	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		log.Fatalw("token generation failed", "err", err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	srv.Handler = httpapi.Chain(mux,
		httpapi.Cors,
		httpapi.RequestID,
		httpapi.Recover(log),
		httpapi.AccessLog(log),
	)

	port := cfg.App.Port
	if port == 0 {
		port = defaultPort
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalw("listen failed", "addr", addr, "err", err)
	}
	log.Infow("engine listening", "addr", addr, "db", dbPath, "shutdown_token", token)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if sec := cfg.Polling.IntervalSeconds; sec > 0 && cfg.Email.Enabled {
		go scheduler.Every(ctx, time.Duration(sec)*time.Second, "ingest-poll", log,
			func(context.Context) error {
				if !ingest.Trigger("") {
					log.Debugw("poll skipped, ingest already running")
				}
				return nil
			})
	}

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("server failed", "err", err)
	}
	log.Infow("engine stopped")
}

// ingestOnce dials IMAP with the keychain credential and drives one full
// pipeline run against the configured mailbox.
func ingestOnce(ctx context.Context, db *sql.DB, cfg config.Config, log *zap.SugaredLogger, onProgress func(pipeline.Progress)) (pipeline.Result, error) {
	if !cfg.Email.Enabled {
		return pipeline.Result{}, errors.New("email ingestion is disabled in config")
	}

	pw, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg))
	if err != nil {
		return pipeline.Result{}, err
	}

	addr := net.JoinHostPort(cfg.Email.IMAPHost, strconv.Itoa(cfg.Email.IMAPPort))
	client, err := mailstore.Dial(ctx, addr, cfg.Email.Username, pw, log)
	if err != nil {
		return pipeline.Result{}, err
	}
	defer client.Close()

	req := pipeline.Request{
		Mailbox: cfg.Email.Mailbox,
		Senders: cfg.Email.Senders,
		Archive: cfg.Email.Archive,
	}
	if cfg.Email.WindowDays > 0 {
		req.Since = time.Now().AddDate(0, 0, -cfg.Email.WindowDays)
	}

	r := &pipeline.Runner{
		Mail:       client,
		Jobs:       jobStore{db},
		Registry:   parse.NewRegistry(),
		Log:        log,
		OnProgress: onProgress,
	}
	return r.Run(ctx, req)
}
