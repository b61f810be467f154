package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoParadex/paragate/internal/account"
	"github.com/GoParadex/paragate/internal/config"
	"github.com/GoParadex/paragate/internal/handler"
	"github.com/GoParadex/paragate/internal/history"
	"github.com/GoParadex/paragate/internal/market"
	"github.com/GoParadex/paragate/internal/middleware"
	"github.com/GoParadex/paragate/internal/paradex"
	"github.com/GoParadex/paragate/internal/pkg/logger"
	"github.com/GoParadex/paragate/internal/repository"
	"github.com/GoParadex/paragate/internal/service"
	"github.com/GoParadex/paragate/internal/session"
	"github.com/GoParadex/paragate/internal/signer"
)

// Paradex JWTs are short-lived; the session manager refreshes well before
// this elapses.
const jwtLifetime = 5 * time.Minute

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(cfg.Log.Level)

	// 3. Resolve the stark key. A configured key wins; otherwise derive
	// one from the Ethereum key the way the onboarding flow does.
	var (
		sgn     *signer.Signer
		ethAddr string
	)
	if cfg.Account.PrivateKey != "" {
		sgn, err = signer.New(cfg.Account.Address, cfg.Account.PrivateKey, cfg.Paradex.ChainID)
	} else {
		var derived *account.Derived
		derived, err = account.DeriveStarkKey(cfg.Account.EthereumPrivateKey, cfg.Account.L1ChainID)
		if err == nil {
			ethAddr = derived.EthereumAddress
			sgn, err = signer.NewFromKey(cfg.Account.Address, derived.StarkPrivateKey, cfg.Paradex.ChainID)
		}
	}
	if err != nil {
		log.Fatalf("Failed to initialize signer: %v", err)
	}

	composer := service.NewComposer(sgn)

	// 4. Paradex client and session manager. The client pulls its bearer
	// token from the manager; the manager refreshes through the client.
	// The auth call itself carries signed headers instead of a bearer, so
	// the cycle is safe.
	var sessions *session.Manager
	client := paradex.NewClient(cfg.Paradex, func() string {
		return sessions.Token()
	})
	sessions = session.NewManager(func(ctx context.Context) (*session.Session, error) {
		headers, err := composer.AuthHeaders()
		if err != nil {
			return nil, err
		}
		res, err := client.Auth(ctx, headers)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		return &session.Session{
			Token:     res.JwtToken,
			IssuedAt:  now,
			ExpiresAt: now.Add(jwtLifetime),
		}, nil
	}, cfg.Session.RefreshInterval(), cfg.Session.Debounce())

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := sessions.Run(rootCtx); err != nil && err != context.Canceled {
			logger.Error("session manager stopped", "error", err)
		}
	}()

	// 5. Persistence and market data
	var audit service.AuditSink
	if cfg.Redis.Addr != "" {
		orderAudit := repository.NewOrderAudit(cfg.Redis)
		if err := orderAudit.Ping(rootCtx); err == nil {
			logger.Info("✅ Connected to Redis")
			audit = orderAudit
			defer orderAudit.Close()
		} else {
			logger.Error("⚠️ Failed to connect to Redis, audit trail disabled", "error", err)
		}
	}

	hist := history.NewStore(cfg.History.MaxEntries)

	marketSvc := market.NewService(client, cfg.Market, cfg.Paradex.WSURL)
	marketSvc.Start()

	gatewaySvc := service.NewGateway(composer, client, sessions, hist, audit, marketSvc)

	// 6. Initialize Handlers
	orderHandler := handler.NewOrderHandler(gatewaySvc)
	accountHandler := handler.NewAccountHandler(gatewaySvc, ethAddr)
	marketHandler := handler.NewMarketHandler(gatewaySvc)
	auditHandler := handler.NewAuditHandler(gatewaySvc)

	// 7. Setup Router
	r := gin.Default()

	r.Use(middleware.ErrorHandler())
	r.Use(middleware.MetricsMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "paragate"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.Auth))
	{
		v1.POST("/orders", orderHandler.PlaceOrder)
		v1.POST("/orders/batch", orderHandler.PlaceBatch)
		v1.DELETE("/orders/:id", orderHandler.CancelOrder)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/history", orderHandler.GetHistory)
		v1.GET("/audit", auditHandler.List)
		v1.GET("/account", accountHandler.GetAccount)
		v1.GET("/positions", accountHandler.GetPositions)
		v1.POST("/onboarding", accountHandler.Onboard)
		v1.POST("/auth/refresh", accountHandler.RefreshAuth)
		v1.GET("/markets", marketHandler.ListMarkets)
		v1.GET("/markets/:market/analysis", marketHandler.Analyze)
	}

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("🚀 ParaGate started", "port", cfg.Server.Port, "account", sgn.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	<-rootCtx.Done()
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	marketSvc.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
