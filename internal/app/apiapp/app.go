package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ViceKink/vice-kink-backend/internal/config"
	s3infra "github.com/ViceKink/vice-kink-backend/internal/infra/s3"
	pgrepo "github.com/ViceKink/vice-kink-backend/internal/repo/postgres"
	redrepo "github.com/ViceKink/vice-kink-backend/internal/repo/redis"
	adssvc "github.com/ViceKink/vice-kink-backend/internal/services/ads"
	authsvc "github.com/ViceKink/vice-kink-backend/internal/services/auth"
	chatsvc "github.com/ViceKink/vice-kink-backend/internal/services/chat"
	coinssvc "github.com/ViceKink/vice-kink-backend/internal/services/coins"
	interactionsvc "github.com/ViceKink/vice-kink-backend/internal/services/interactions"
	likessvc "github.com/ViceKink/vice-kink-backend/internal/services/likes"
	matchessvc "github.com/ViceKink/vice-kink-backend/internal/services/matches"
	mediasvc "github.com/ViceKink/vice-kink-backend/internal/services/media"
	ratesvc "github.com/ViceKink/vice-kink-backend/internal/services/rate"
	"github.com/ViceKink/vice-kink-backend/internal/transport/ws"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	s3         *minio.Client
	hub        *ws.Hub
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	sessionRepo := redrepo.NewSessionRepo(redisClient)
	rateRepo := redrepo.NewRateRepo(redisClient)
	adGuardRepo := redrepo.NewAdGuardRepo(redisClient)

	userRepo := pgrepo.NewUserRepo(pool)
	interactionRepo := pgrepo.NewInteractionRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	messageRepo := pgrepo.NewMessageRepo(pool)
	coinRepo := pgrepo.NewCoinRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, sessionRepo, userRepo, cfg.Auth.RefreshTTL)

	hub := ws.NewHub(log)
	go hub.Run()
	notifier := ws.NewHubNotifier(hub, log)

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.Rate.InteractionsPerMinute,
		cfg.Rate.InteractionsPer10Sec,
	)

	adProvider := adssvc.NewSimulatedProvider(5 * time.Second)

	coinService := coinssvc.NewService(coinssvc.Dependencies{
		Pool:     pool,
		Store:    coinRepo,
		Verifier: adProvider,
		Guard:    adGuardRepo,
		Logger:   log,
	}, coinssvc.Config{
		AdWatchReward: cfg.Coins.AdWatchReward,
		ReceiptTTL:    cfg.Coins.ReceiptTTL,
	})

	adsService := adssvc.NewService(adProvider, coinService, log)

	interactionService := interactionsvc.NewService(interactionsvc.Dependencies{
		Pool:         pool,
		Interactions: interactionRepo,
		Matches:      matchRepo,
		RateLimiter:  rateLimiter,
		Notifier:     notifier,
		Logger:       log,
	}, interactionsvc.Config{})

	likeService := likessvc.NewService(likessvc.Dependencies{
		Pool:     pool,
		Incoming: interactionRepo,
		Coins:    coinService,
	}, likessvc.Config{
		ListLimit: cfg.Likes.ListLimit,
	})

	matchesService := matchessvc.NewService(matchessvc.Dependencies{
		MatchStore: matchRepo,
	})

	chatService := chatsvc.NewService(chatsvc.Dependencies{
		Pool:     pool,
		Messages: messageRepo,
		Matches:  matchesService,
		Coins:    coinService,
		Notifier: notifier,
		Logger:   log,
	}, chatsvc.Config{
		ListLimit: cfg.Chat.ListLimit,
	})

	var s3Client *minio.Client
	if c, err := s3infra.NewClient(s3infra.Config{
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	}); err != nil {
		log.Warn("s3 init failed, continuing in degraded mode", zap.Error(err))
	} else {
		s3Client = c
	}

	mediaStorage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket)
	mediaService := mediasvc.NewService(mediaStorage, log)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		AuthService:        authService,
		InteractionService: interactionService,
		LikeService:        likeService,
		MatchService:       matchesService,
		CoinService:        coinService,
		AdsService:         adsService,
		ChatService:        chatService,
		MediaService:       mediaService,
		Hub:                hub,
		Logger:             log,
		Config:             cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		s3:         s3Client,
		hub:        hub,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
