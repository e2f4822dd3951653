// Package main runs the chamber plenary session HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/camaraaberta/backend/config"
	"github.com/camaraaberta/backend/internal/agenda"
	"github.com/camaraaberta/backend/internal/attendance"
	"github.com/camaraaberta/backend/internal/audit"
	"github.com/camaraaberta/backend/internal/auth"
	"github.com/camaraaberta/backend/internal/bills"
	"github.com/camaraaberta/backend/internal/members"
	"github.com/camaraaberta/backend/internal/middleware"
	"github.com/camaraaberta/backend/internal/panel"
	"github.com/camaraaberta/backend/internal/realtime"
	"github.com/camaraaberta/backend/internal/sessions"
	"github.com/camaraaberta/backend/internal/voting"
	"github.com/camaraaberta/backend/pkg/cache"
	"github.com/camaraaberta/backend/pkg/database"
	"github.com/camaraaberta/backend/pkg/queue"
	"github.com/camaraaberta/backend/pkg/redis"
	"github.com/camaraaberta/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Audit: handlers enqueue, the worker binary persists.
	jobQueue := queue.NewQueue(rdb.Client, logger)
	auditRecorder := audit.NewRecorder(jobQueue, logger)
	auditRepo := audit.NewRepository(pool)
	auditHandler := audit.NewHandler(auditRepo)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Roster and bills
	memberRepo := members.NewRepository(pool)
	memberHandler := members.NewHandler(memberRepo)
	billRepo := bills.NewRepository(pool)
	billHandler := bills.NewHandler(billRepo)

	// Repositories feeding the panel
	sessionRepo := sessions.NewRepository(pool)
	agendaRepo := agenda.NewRepository(pool)
	attendanceRepo := attendance.NewRepository(pool)

	// Voting
	quorumRepo := voting.NewConfigRepository(pool)
	quorumCache := cache.NewRedis(rdb.Client)
	resolver := voting.NewResolver(quorumRepo, quorumCache, cfg.Cache.QuorumTTL, logger)
	engine := voting.NewEngine(pool, resolver, logger)

	// Panel: snapshot builder + websocket broadcaster
	panelRepo := panel.NewRepository(pool)
	panelBuilder := panel.NewBuilder(sessionRepo, agendaRepo, engine, panelRepo)
	broadcaster := panel.NewBroadcaster(panelBuilder, realtime.NewPanelPublisher(hub), logger)
	panelHandler := panel.NewHandler(panelBuilder)

	sessionHandler := sessions.NewHandler(sessionRepo, broadcaster, auditRecorder, logger)
	attendanceHandler := attendance.NewHandler(attendanceRepo, broadcaster, auditRecorder)
	agendaHandler := agenda.NewHandler(agendaRepo, broadcaster, auditRecorder)
	votingHandler := voting.NewHandler(engine, quorumRepo, resolver, broadcaster, auditRecorder)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public: the panel is the chamber's transparency surface
	router.GET("/sessions/:id/panel", panelHandler.Get)
	router.GET("/items/:id/ballots", votingHandler.Ballots)

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Roster
		api.GET("/members", memberHandler.List)
		api.POST("/members", middleware.RequireRole("admin"), memberHandler.Create)
		api.GET("/members/:id", memberHandler.GetByID)
		api.PATCH("/members/:id", middleware.RequireRole("admin"), memberHandler.Update)

		// Bills
		api.GET("/bills", billHandler.List)
		api.POST("/bills", middleware.RequireRole("admin", "operator"), billHandler.Create)
		api.GET("/bills/:id", billHandler.GetByID)

		// Sessions
		api.GET("/sessions", sessionHandler.List)
		api.POST("/sessions", middleware.RequireRole("admin", "operator"), sessionHandler.Create)
		api.GET("/sessions/:id", sessionHandler.GetByID)
		api.POST("/sessions/:id/start", middleware.RequireRole("admin", "operator"), sessionHandler.Start)
		api.POST("/sessions/:id/suspend", middleware.RequireRole("admin", "operator"), sessionHandler.Suspend)
		api.POST("/sessions/:id/resume", middleware.RequireRole("admin", "operator"), sessionHandler.Resume)
		api.POST("/sessions/:id/conclude", middleware.RequireRole("admin", "operator"), sessionHandler.Conclude)
		api.POST("/sessions/:id/cancel", middleware.RequireRole("admin", "operator"), sessionHandler.Cancel)
		api.DELETE("/sessions/:id", middleware.RequireRole("admin"), sessionHandler.Archive)

		// Attendance
		api.GET("/sessions/:id/attendance", attendanceHandler.List)
		api.POST("/sessions/:id/attendance", middleware.RequireRole("admin", "operator"), attendanceHandler.Mark)
		api.POST("/sessions/:id/attendance/bulk", middleware.RequireRole("admin", "operator"), attendanceHandler.Bulk)

		// Agenda
		api.GET("/sessions/:id/agenda", agendaHandler.GetBySession)
		api.POST("/sessions/:id/agenda", middleware.RequireRole("admin", "operator"), agendaHandler.CreateAgenda)
		api.POST("/agendas/:id/publish", middleware.RequireRole("admin", "operator"), agendaHandler.Publish)
		api.POST("/agendas/:id/unpublish", middleware.RequireRole("admin", "operator"), agendaHandler.RevertToDraft)
		api.POST("/agendas/:id/items", middleware.RequireRole("admin", "operator"), agendaHandler.AddItem)

		// Floor control
		api.POST("/items/:id/discussion", middleware.RequireRole("admin", "operator"), agendaHandler.StartDiscussion)
		api.POST("/items/:id/withdraw", middleware.RequireRole("admin", "operator"), agendaHandler.Withdraw)
		api.POST("/items/:id/postpone", middleware.RequireRole("admin", "operator"), agendaHandler.Postpone)
		api.POST("/items/:id/move", middleware.RequireRole("admin", "operator"), agendaHandler.Move)

		// Voting
		api.POST("/items/:id/vote/open", middleware.RequireRole("admin", "operator"), votingHandler.Open)
		api.POST("/items/:id/vote/reopen", middleware.RequireRole("admin", "operator"), votingHandler.Reopen)
		api.POST("/items/:id/vote/close", middleware.RequireRole("admin", "operator"), votingHandler.Close)
		api.POST("/items/:id/vote/cast", votingHandler.Cast)

		// Highlights (destaques)
		api.GET("/items/:id/highlights", agendaHandler.ListHighlights)
		api.POST("/items/:id/highlights", middleware.RequireRole("admin", "operator"), agendaHandler.CreateHighlight)
		api.POST("/highlights/:id/vote", agendaHandler.VoteHighlight)
		api.POST("/highlights/:id/close", middleware.RequireRole("admin", "operator"), agendaHandler.CloseHighlight)

		// Quorum configuration
		api.GET("/quorum-configs", middleware.RequireRole("admin", "operator"), votingHandler.ListConfigs)
		api.PUT("/quorum-configs/:purpose", middleware.RequireRole("admin"), votingHandler.UpsertConfig)
		api.PATCH("/quorum-configs/:purpose/active", middleware.RequireRole("admin"), votingHandler.SetConfigActive)

		// Audit trail
		api.GET("/audit", middleware.RequireRole("admin"), auditHandler.List)
	}

	// WebSocket (token in query; anonymous viewers allowed)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
