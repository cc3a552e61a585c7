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
	"github.com/go-redis/redis/v8"

	"github.com/yourusername/mastery-api/internal/config"
	"github.com/yourusername/mastery-api/internal/handler"
	"github.com/yourusername/mastery-api/internal/middleware"
	pgRepo "github.com/yourusername/mastery-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/mastery-api/internal/repository/redis"
	"github.com/yourusername/mastery-api/internal/service"
	"github.com/yourusername/mastery-api/internal/service/progression"
	ws "github.com/yourusername/mastery-api/internal/websocket"
	"github.com/yourusername/mastery-api/pkg/auth"
	"github.com/yourusername/mastery-api/pkg/database"
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

	isProduction := gin.Mode() == gin.ReleaseMode

	// Создаем контекст с отменой для корректного завершения работы горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), isProduction)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	userRepo := pgRepo.NewUserRepo(db)
	topicRepo := pgRepo.NewTopicRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	progressRepo := pgRepo.NewProgressRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs, cfg.JWT.WSTicketExpirySec)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// --- Инициализация WebSocket ---
	var pubSubProvider ws.PubSubProvider = &ws.NoOpPubSub{}
	var pubSubClient redis.UniversalClient

	// Отдельный клиент для Pub/Sub создается только если кластеризация включена
	if cfg.WebSocket.Cluster.Enabled {
		log.Println("Инициализация Redis PubSub для кластеризации WebSocket...")
		client, errPubSub := database.NewUniversalRedisClient(ctx, cfg.Redis)
		if errPubSub != nil {
			log.Printf("Ошибка при инициализации Redis клиента для PubSub: %v. Кластеризация WS будет неактивна.", errPubSub)
			cfg.WebSocket.Cluster.Enabled = false
		} else {
			redisProvider, errProv := ws.NewRedisPubSub(client)
			if errProv != nil {
				log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Кластеризация WS будет неактивна.", errProv)
				client.Close()
				cfg.WebSocket.Cluster.Enabled = false
			} else {
				pubSubProvider = redisProvider
				pubSubClient = client
			}
		}
	}

	wsHub := ws.NewHub()
	go wsHub.Run()

	wsManager := ws.NewManager(wsHub, pubSubProvider, cfg.WebSocket.Cluster)
	if err := wsManager.Start(); err != nil {
		log.Printf("Failed to start WebSocket manager: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	rules := progression.DefaultDifficultyConfig()
	catalog := service.NewTopicCatalog(topicRepo, cacheRepo, cfg.Quiz.CatalogCacheTTL())
	quizService := service.NewQuizService(progressRepo, questionRepo, topicRepo, catalog, rules, wsManager, service.QuizOptions{
		MaxWriteAttempts: cfg.Quiz.MaxWriteAttempts,
		RetryBackoff:     cfg.Quiz.RetryBackoff(),
		PersistTimeout:   cfg.Quiz.PersistTimeout(),
	})
	contentService := service.NewContentService(topicRepo, questionRepo, catalog)
	analyticsService := service.NewAnalyticsService(userRepo, progressRepo, catalog, rules)

	authService, err := service.NewAuthService(userRepo, jwtService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	// Инициализируем обработчики
	authHandler := handler.NewAuthHandler(authService)
	quizHandler := handler.NewQuizHandler(quizService)
	contentHandler := handler.NewContentHandler(contentService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, catalog)
	wsHandler := handler.NewWSHandler(wsHub, jwtService, ws.ClientConfigFromLimits(cfg.WebSocket.Limits), cfg.CORS.AllowOrigins)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return database.Ping(ctx, db) },
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)
	authLimit := rateLimiter.Limit(middleware.AuthRateLimitConfig(
		cfg.RateLimit.AuthMaxRequests,
		time.Duration(cfg.RateLimit.AuthWindowSec)*time.Second,
	))

	// Инициализируем роутер Gin
	router := gin.Default()

	// В production не доверяем прокси-заголовкам (защита от IP spoofing для rate limit)
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Printf("Warning: failed to set trusted proxies: %v", err)
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.LegacyTokenHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthHandler.Health)

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Аутентификация
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authLimit, authHandler.Register)
			authGroup.POST("/login", authLimit, authHandler.Login)
			authGroup.POST("/ws-ticket", authMiddleware.RequireAuth(), authHandler.GenerateWsTicket)
		}

		// Прохождение теста
		quiz := api.Group("/quiz")
		quiz.Use(authMiddleware.RequireAuth(), authMiddleware.StudentOnly())
		{
			quiz.GET("/start", quizHandler.StartQuiz)
			quiz.POST("/submit", quizHandler.SubmitAnswer)
		}

		// Контент
		content := api.Group("/content")
		content.Use(authMiddleware.RequireAuth())
		{
			content.GET("/topics", contentHandler.ListTopics)

			instructorContent := content.Group("")
			instructorContent.Use(authMiddleware.InstructorOnly())
			{
				instructorContent.POST("/topic", contentHandler.CreateTopic)
				instructorContent.POST("/question", contentHandler.CreateQuestion)
				instructorContent.POST("/questions/import", contentHandler.ImportQuestions)
				instructorContent.GET("/questions/:topicId",
					middleware.ExtractUintParam("topicId", "topicID"),
					contentHandler.ListQuestions,
				)
			}
		}

		// Отчёты
		analytics := api.Group("/analytics")
		analytics.Use(authMiddleware.RequireAuth())
		{
			analytics.GET("/student-progress", authMiddleware.StudentOnly(), analyticsHandler.StudentProgress)
			analytics.GET("/overview", authMiddleware.InstructorOnly(), analyticsHandler.Overview)
			analytics.GET("/overview/export", authMiddleware.InstructorOnly(), analyticsHandler.ExportOverview)
		}
	}

	// WebSocket маршрут (аутентификация по тикету в query)
	router.GET("/ws/progress", wsHandler.HandleConnection)

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

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Сначала отписываемся от кластера, затем закрываем соединения клиентов
	wsManager.Stop()
	wsHub.Stop()

	if pubSubClient != nil {
		if err := pubSubClient.Close(); err != nil {
			log.Printf("Error closing PubSub Redis client: %v", err)
		}
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		sqlDB.Close()
	}

	log.Println("Server exited properly")
}
