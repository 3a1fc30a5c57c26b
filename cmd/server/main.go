package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"folio/internal/cache"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/handlers"
	"folio/internal/jobs"
	"folio/internal/logging"
	"folio/internal/middleware"
	"folio/internal/queue"
	"folio/internal/services"
	"folio/pkg/auth"
)

func main() {
	// Load .env file if present (ignored in production deployments)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}

	logging.Init()
	cfg := config.Load()

	// MongoDB is required. Everything persistent lives there.
	db, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Initialize(initCtx, cfg.SessionRetention); err != nil {
		initCancel()
		log.Fatalf("❌ Failed to initialize MongoDB indexes: %v", err)
	}
	initCancel()

	// Redis is optional. Connect() hands back an in-memory store when the
	// broker is absent, and the process keeps running either way.
	store := cache.Connect(cfg.RedisURL)

	q := newQueue(store)
	q.Start()

	// JWT auth. Production refuses to start without a real secret; in
	// development a random per-process secret keeps the auth routes working.
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		if cfg.IsProduction() {
			log.Fatal("❌ JWT_SECRET is required in production. Generate with: openssl rand -hex 64")
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("❌ Failed to generate development JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(buf)
		log.Println("⚠️  JWT_SECRET not set - using a random per-process secret (development mode)")
	}
	jwtAuth, err := auth.NewJWTAuth(jwtSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	if err != nil {
		log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
	}

	// Services
	metrics := services.InitMetrics()
	connManager := services.NewConnectionManager()
	analytics := services.NewAnalyticsService(db)

	aiClient := services.NewAIClient(cfg.AIEndpoint, cfg.AIAPIKey)
	sessionStore := services.NewSessionStore(db, cfg.SessionMaxTurns)
	chatService := services.NewChatService(sessionStore, aiClient, cfg.AIRestTimeout, cfg.AISocketTimeout)

	mailer := services.NewMailerService(cfg.SendGridAPIKey, cfg.ContactFrom, cfg.ContactTo)
	mailer.RegisterHandlers(q)

	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)
	articleService := services.NewArticleService(db, store, cfg.ArticleCacheTTL)
	contactService := services.NewContactService(db, q, mailer)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, jwtAuth)
	chatHandler := handlers.NewChatHandler(chatService, metrics)
	projectHandler := handlers.NewProjectHandler(projectService)
	articleHandler := handlers.NewArticleHandler(articleService)
	contactHandler := handlers.NewContactHandler(contactService)
	analyticsHandler := handlers.NewAnalyticsHandler(analytics)
	healthHandler := handlers.NewHealthHandler(connManager)
	wsHandler := handlers.NewWebSocketHandler(connManager, chatService, metrics)

	app := fiber.New(fiber.Config{
		AppName:      "Folio v1.0",
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${status} ${latency} ${method} ${path}\n",
	}))

	prometheus := fiberprometheus.New("folio")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	allowedOrigins := cfg.AllowedOrigins
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))
	log.Printf("🔒 CORS allowed origins: %s", allowedOrigins)

	app.Use(middleware.PageViewTracker(analytics))

	rateLimitConfig := middleware.LoadRateLimitConfig()
	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Routes
	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	chatLimiter := middleware.ChatRateLimiter(rateLimitConfig)
	api.Post("/chat", chatLimiter, chatHandler.Send)
	api.Get("/chat/history/:sessionId", chatHandler.History)

	api.Get("/projects", projectHandler.List)
	api.Get("/projects/:id", projectHandler.Get)
	api.Post("/projects", middleware.AuthRequired(jwtAuth), projectHandler.Create)
	api.Put("/projects/:id", middleware.AuthRequired(jwtAuth), projectHandler.Update)
	api.Delete("/projects/:id", middleware.AuthRequired(jwtAuth), projectHandler.Delete)

	api.Get("/articles", articleHandler.List)
	api.Get("/articles/:slug", articleHandler.Get)
	api.Post("/articles", middleware.AuthRequired(jwtAuth), articleHandler.Create)
	api.Put("/articles/:id", middleware.AuthRequired(jwtAuth), articleHandler.Update)
	api.Delete("/articles/:id", middleware.AuthRequired(jwtAuth), articleHandler.Delete)

	api.Post("/contact", contactHandler.Submit)
	api.Get("/contact", middleware.AuthRequired(jwtAuth), contactHandler.List)

	api.Post("/analytics/track", analyticsHandler.Track)
	api.Get("/analytics/pageviews", middleware.AuthRequired(jwtAuth), analyticsHandler.Recent)

	// WebSocket chat. The upgrade gate records the client IP so IP-derived
	// session IDs stay stable across reconnects (RemoteAddr ports churn).
	app.Use("/ws/chat", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			c.Locals("client_ip", c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws/chat", middleware.WebSocketRateLimiter(rateLimitConfig))
	app.Use("/ws/chat", middleware.AuthOptional(jwtAuth))
	app.Get("/ws/chat", websocket.New(wsHandler.Handle))

	// Scheduled jobs
	scheduler := jobs.NewJobScheduler()
	scheduler.Register("session_retention", jobs.NewSessionRetentionJob(sessionStore, cfg.SessionRetention))
	scheduler.Start()

	// Graceful shutdown: stop accepting requests first, then drain the
	// background components once Listen returns. Draining the analytics
	// sink before Shutdown would race with in-flight page views.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Folio server listening on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	// Listen returned: no new requests. Drain workers, then release
	// external connections.
	scheduler.Stop()
	q.Close()
	analytics.Close()

	if rs, ok := store.(*cache.RedisStore); ok {
		if err := rs.Close(); err != nil {
			log.Printf("⚠️  Redis close error: %v", err)
		}
	}
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := db.Close(closeCtx); err != nil {
		log.Printf("⚠️  MongoDB close error: %v", err)
	}

	log.Println("✅ Server stopped")
}

// newQueue wires the background queue against the live Redis client when the
// cache layer is actually backed by Redis, and falls back to in-process
// dispatch otherwise.
func newQueue(store cache.Store) *queue.Queue {
	if rs, ok := store.(*cache.RedisStore); ok {
		return queue.New(rs.Client())
	}
	return queue.New(nil)
}
