package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/infogenius-ai/chat-relay/internal/config"
	"github.com/infogenius-ai/chat-relay/internal/handler"
	"github.com/infogenius-ai/chat-relay/internal/middleware"
	"github.com/infogenius-ai/chat-relay/internal/model/policy"
	"github.com/infogenius-ai/chat-relay/internal/service/ai"
	"github.com/infogenius-ai/chat-relay/internal/service/archive"
	"github.com/infogenius-ai/chat-relay/internal/service/history"
	"github.com/infogenius-ai/chat-relay/internal/service/prompt"
	"github.com/infogenius-ai/chat-relay/internal/service/relay"
	"github.com/infogenius-ai/chat-relay/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log.SugaredLogger.Desugar())

	if envErr != nil {
		log.Warn("failed to load .env file, continuing with system environment variables only", "error", envErr)
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server error", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	pol, err := loadPolicy(cfg.Policy)
	if err != nil {
		return err
	}
	log.Info("policy loaded", "policy", pol.Name, "version", pol.Version)

	chatModel, err := ai.NewChatModel(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to create chat model: %w", err)
	}
	completer, err := ai.NewClient(ctx, chatModel, ai.WithTimeout(cfg.AI.Timeout), ai.WithLogger(log.With("component", "ai")))
	if err != nil {
		return err
	}
	log.Info("AI service initialized", "provider", cfg.AI.Provider)

	store, closeHistory, err := openHistory(ctx, cfg.History)
	if err != nil {
		return err
	}
	defer closeHistory()
	log.Info("history store ready", "backend", cfg.History.Backend)

	sink, closeArchive, err := archive.Open(cfg.Archive)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeArchive(); err != nil {
			log.Warn("failed to close archive", "error", err)
		}
	}()
	stamp, err := archive.LoadTimestamper(cfg.Archive.Timezone)
	if err != nil {
		return fmt.Errorf("invalid ARCHIVE_TIMEZONE: %w", err)
	}
	recorder := archive.NewRecorder(sink, stamp, log.With("component", "archive"))
	log.Info("archive ready", "driver", cfg.Archive.Driver)

	relaySvc := relay.NewService(store, prompt.NewComposer(pol), completer, recorder, log)

	gate := middleware.NewIntervalGate(cfg.Relay.MinInterval)
	if gate.Enabled() {
		log.Info("server-side request interval enabled", "interval", cfg.Relay.MinInterval)
	}

	router := handler.NewRouter(handler.Deps{
		Relay:          relaySvc,
		Sessions:       store,
		Gate:           gate,
		AllowedOrigins: cfg.Relay.AllowedOrigins,
		Log:            log,
	})

	return startServer(ctx, cfg.Server, router, log)
}

func loadPolicy(cfg config.PolicyConfig) (policy.Policy, error) {
	items := policy.Seed()
	if cfg.File != "" {
		extra, err := policy.LoadFile(cfg.File)
		if err != nil {
			return policy.Policy{}, err
		}
		items = append(items, extra...)
	}

	store := policy.NewMemoryStore(items)
	pol, ok := store.FindByName(cfg.Name)
	if !ok {
		return policy.Policy{}, fmt.Errorf("policy %q not found", cfg.Name)
	}
	return pol, nil
}

func openHistory(ctx context.Context, cfg config.HistoryConfig) (history.Store, func(), error) {
	if cfg.Backend != config.HistoryRedis {
		return history.NewMemoryStore(), func() {}, nil
	}

	rdb, err := history.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return history.NewRedisStore(rdb, history.WithTTL(cfg.TTL)), func() { _ = rdb.Close() }, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log *logger.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("AI server started", "addr", addr)
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
