package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobboard/accounts"
	"jobboard/applications"
	"jobboard/cache"
	"jobboard/config"
	"jobboard/database"
	"jobboard/database/memstore"
	"jobboard/events"
	"jobboard/handlers"
	"jobboard/jobs"
	"jobboard/logging"
	"jobboard/middleware"
	"jobboard/notify"
	"jobboard/routes"
	"jobboard/session"
	"jobboard/storage"
	"jobboard/telemetry"
	"jobboard/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type accountStore interface {
	accounts.Store
	jobs.Accounts
	applications.Accounts
	notify.Accounts
}

// stores groups the persistence ports so the mongo and in-memory backends can
// be swapped in one place.
type stores struct {
	jobs          jobs.Store
	accounts      accountStore
	applications  applications.Store
	subscriptions notify.Subscriptions
	close         func()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "jobboard:", err)
		os.Exit(1)
	}
}

// run owns every resource of the process so deferred cleanup always runs
// before main exits.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.IsRelease())
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting job board server", zap.String("store", cfg.Store))

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.OTELCollectorURL != "" {
		shutdownTracer, err := telemetry.InitTracer(ctx, "jobboard", cfg.OTELCollectorURL)
		if err != nil {
			logger.Warn("Tracing disabled", zap.Error(err))
		} else {
			defer shutdownTracer()
		}
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", zap.Error(err))
		return fmt.Errorf("open store: %w", err)
	}
	defer st.close()

	kv := openCache(ctx, cfg, logger)
	if rc, ok := kv.(*cache.Redis); ok {
		defer rc.Close()
	}
	sessions := session.NewManager(cfg.JWTSecret, cfg.TokenTTL, kv)

	// ===== EVENTS =====
	wsManager := websocket.NewManager(logger)
	go wsManager.Run(ctx)

	sinks := []events.Sink{wsManager}

	var pusher *notify.Pusher
	keys, err := notify.LoadKeys(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, logger)
	if err != nil {
		logger.Warn("Push notifications disabled", zap.Error(err))
	} else {
		pusher = notify.NewPusher(st.subscriptions, st.accounts, keys, cfg.VAPIDSubscriber, logger)
		sinks = append(sinks, pusher)
	}

	if cfg.NATSURL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSConnTimeout, logger)
		if err != nil {
			logger.Warn("NATS unavailable, events stay in-process", zap.Error(err))
		} else {
			defer nc.Close()
			sinks = append(sinks, nc)
		}
	}
	fanout := events.NewFanout(logger, sinks...)

	// ===== SERVICES =====
	joiner := jobs.NewCompanyJoiner(st.accounts, kv, cfg.CompanyCacheTTL, logger)
	jobSvc := jobs.NewService(st.jobs, st.accounts, fanout, logger, jobs.WithJoiner(joiner))

	accountSvc := accounts.NewService(st.accounts, sessions, logger,
		accounts.WithAdminEmails(cfg.IsAdminEmail),
		accounts.WithCompanyCache(joiner),
	)

	var appOpts []applications.Option
	if cfg.CloudinaryURL != "" {
		cld, err := storage.NewCloudinary(cfg.CloudinaryURL)
		if err != nil {
			logger.Warn("Resume uploads disabled", zap.Error(err))
		} else {
			appOpts = append(appOpts, applications.WithResumeStore(cld))
		}
	}
	appSvc := applications.NewService(st.applications, st.accounts, jobSvc, fanout, logger, appOpts...)

	h := &handlers.Handler{
		Accounts:     accountSvc,
		Jobs:         jobSvc,
		Applications: appSvc,
		Logger:       logger,
	}
	if google := accounts.NewGoogleAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL); google != nil {
		h.Google = google
	} else {
		logger.Info("Google sign-in not configured")
	}
	if pusher != nil {
		h.Push = pusher
	}

	limiter := middleware.NewIPRateLimiter(60, time.Minute)
	go sweepLimiter(ctx, limiter)
	go websocket.RunBoardRefresher(ctx, jobSvc, wsManager, cfg.BoardRefreshInterval, logger)

	// ===== ROUTER =====
	router := routes.SetupRouter(h, routes.Options{
		CORSOrigins: cfg.CORSOrigins,
		Sessions:    sessions,
		RateLimiter: limiter,
		WebSocket:   websocket.Handler(wsManager, sessions),
	})
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "Job board running",
			"service": "healthy",
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// ===== GRACEFUL SHUTDOWN =====
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	runErr := serve(server, quit, 10*time.Second, logger)
	stop()
	if pusher != nil {
		pusher.Wait()
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// serve runs server until quit fires or the listener fails, then shuts it
// down within grace. A listener failure is returned.
func serve(server *http.Server, quit <-chan os.Signal, grace time.Duration, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-quit:
		logger.Info("Shutting down server")
	case err := <-serveErr:
		logger.Error("Server error", zap.Error(err))
		runErr = fmt.Errorf("serve: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	return runErr
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		mem := memstore.New()
		return &stores{
			jobs:          mem,
			accounts:      mem,
			applications:  mem,
			subscriptions: mem,
			close:         func() {},
		}, nil
	}

	db, err := database.Connect(ctx, database.Options{
		URI:          cfg.MongoURI,
		Database:     cfg.MongoDatabase,
		Transactions: cfg.MongoTransactions,
	}, logger)
	if err != nil {
		return nil, err
	}
	return &stores{
		jobs:          database.NewJobStore(db),
		accounts:      database.NewAccountStore(db),
		applications:  database.NewApplicationStore(db),
		subscriptions: database.NewSubscriptionStore(db),
		close: func() {
			if err := db.Disconnect(); err != nil {
				logger.Error("MongoDB disconnect failed", zap.Error(err))
			}
		},
	}, nil
}

// openCache prefers Redis and falls back to process memory when it is not
// configured or not reachable.
func openCache(ctx context.Context, cfg *config.Config, logger *zap.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}
	rc := cache.NewRedis(cache.Options{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		logger.Warn("Redis unreachable, using in-memory cache", zap.Error(err))
		_ = rc.Close()
		return cache.NewMemory()
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	return rc
}

func sweepLimiter(ctx context.Context, rl *middleware.IPRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}
