package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Meldroq8/trivia-game-sub006/internal/config"
	"github.com/Meldroq8/trivia-game-sub006/internal/handler"
	"github.com/Meldroq8/trivia-game-sub006/internal/middleware"
	"github.com/Meldroq8/trivia-game-sub006/internal/repository/fallback"
	pgRepo "github.com/Meldroq8/trivia-game-sub006/internal/repository/postgres"
	redisRepo "github.com/Meldroq8/trivia-game-sub006/internal/repository/redis"
	"github.com/Meldroq8/trivia-game-sub006/internal/repository/sqlite"
	"github.com/Meldroq8/trivia-game-sub006/internal/service"
	"github.com/Meldroq8/trivia-game-sub006/internal/service/rotation"
	ws "github.com/Meldroq8/trivia-game-sub006/internal/websocket"
	"github.com/Meldroq8/trivia-game-sub006/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL (история игр)
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis (удаленное хранилище документов)
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем хранилища документов использования:
	// удаленное (Redis) + локальный резерв (SQLite) + композиция с фолбэком
	remoteStore, err := redisRepo.NewUsageStore(redisClient)
	if err != nil {
		log.Printf("Failed to initialize remote UsageStore: %v", err)
		os.Exit(1)
	}

	localStore, err := sqlite.NewLocalStore(cfg.LocalStore.Path)
	if err != nil {
		log.Printf("Failed to initialize local UsageStore: %v", err)
		os.Exit(1)
	}

	usageStore := fallback.New(remoteStore, localStore)

	// Репозиторий истории игр
	gameRepo := pgRepo.NewGameRepo(db)

	// Hub уведомлений (реализует rotation.Notifier)
	hub := ws.NewHub()

	// Конфигурация движка ротации
	rotationConfig := rotation.DefaultConfig()
	if cfg.Rotation.WriteIntervalSec > 0 {
		rotationConfig.WriteInterval = time.Duration(cfg.Rotation.WriteIntervalSec) * time.Second
	}
	if cfg.Rotation.CycleCheckDelaySec > 0 {
		rotationConfig.CycleCheckDelay = time.Duration(cfg.Rotation.CycleCheckDelaySec) * time.Second
	}

	// Инициализируем сервисы
	rotationService := service.NewRotationService(rotationConfig, usageStore, gameRepo, hub)
	gameService := service.NewGameService(gameRepo, rotationService)

	// Инициализируем обработчики
	rotationHandler := handler.NewRotationHandler(rotationService)
	gameHandler := handler.NewGameHandler(gameService)
	wsHandler := handler.NewWSHandler(hub)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)
	usageLimit := rateLimiter.LimitByAccount(middleware.DefaultUsageRateLimitConfig())

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		usage := api.Group("/usage")
		{
			usage.POST("/bind", rotationHandler.Bind)
			usage.GET("/stats", rotationHandler.GetStats)
			usage.GET("/export", rotationHandler.ExportUsageReport)
			usage.POST("/available", rotationHandler.GetAvailable)
			usage.POST("/reconcile", rotationHandler.Reconcile)
			usage.POST("/reconcile/invalidate", rotationHandler.InvalidateReconciliation)
			usage.POST("/flush", rotationHandler.Flush)
			usage.DELETE("", rotationHandler.Clear)

			// Пишущие маршруты дополнительно троттлятся по аккаунту
			limited := usage.Group("")
			limited.Use(usageLimit)
			{
				limited.POST("/pool", rotationHandler.UpdatePool)
				limited.POST("/mark", rotationHandler.MarkUsed)
				limited.POST("/mark-batch", rotationHandler.MarkBatchUsed)
				limited.POST("/reset", rotationHandler.ResetAll)
				limited.POST("/reset-category", rotationHandler.ResetCategory)
			}
		}

		games := api.Group("/games")
		{
			games.GET("", gameHandler.ListGames)
			games.POST("", usageLimit, gameHandler.CreateGame)
			games.DELETE("/:id", gameHandler.DeleteGame)
		}
	}

	// WebSocket маршрут (токен передается query-параметром)
	router.GET("/ws", authMiddleware.RequireAuth(), wsHandler.HandleConnection)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Доливаем отложенные коалесером записи, чтобы не потерять отметки
	rotationService.FlushAll()

	if err := localStore.Close(); err != nil {
		log.Printf("Error closing local store: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
