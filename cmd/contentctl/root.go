package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/yourusername/mastery-api/internal/config"
	pgRepo "github.com/yourusername/mastery-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/mastery-api/internal/repository/redis"
	"github.com/yourusername/mastery-api/internal/service"
	"github.com/yourusername/mastery-api/pkg/database"
)

var rootCmd = &cobra.Command{
	Use:          "contentctl",
	Short:        "Content and schema administration for mastery-api",
	Long:         "contentctl загружает курсы и вопросы в базу и управляет миграциями схемы.",
	SilenceUsage: true,
}

// Execute запускает корневую команду
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (overrides CONFIG_PATH env var)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(migrateCmd)
}

// loadConfig берёт путь из --config, затем из CONFIG_PATH, затем путь по умолчанию
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "config/config.yaml"
	}
	return config.Load(path)
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), true)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// contentEnv - сервис контента и функция освобождения соединений
type contentEnv struct {
	content *service.ContentService
	close   func()
}

// newContentEnv собирает ContentService поверх Postgres.
// Redis нужен только для сброса кеша каталога у работающего API, поэтому его недоступность не фатальна.
func newContentEnv(ctx context.Context, cfg *config.Config) (*contentEnv, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	topicRepo := pgRepo.NewTopicRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)

	closers := []func(){func() {
		if sqlDB, err := database.GetSQLDB(db); err == nil {
			sqlDB.Close()
		}
	}}

	var catalog *service.TopicCatalog
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Printf("[contentctl] Redis недоступен, кеш каталога не будет сброшен: %v", err)
		catalog = service.NewTopicCatalog(topicRepo, nil, cfg.Quiz.CatalogCacheTTL())
	} else {
		closers = append(closers, func() { redisClient.Close() })
		cacheRepo, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("init cache repo: %w", err)
		}
		// Сбрасываем кеш до чтения каталога, чтобы не опираться на устаревшую копию
		catalog = service.NewTopicCatalog(topicRepo, cacheRepo, cfg.Quiz.CatalogCacheTTL())
		catalog.Invalidate(ctx)
	}

	return &contentEnv{
		content: service.NewContentService(topicRepo, questionRepo, catalog),
		close: func() {
			for _, c := range closers {
				c()
			}
		},
	}, nil
}
