package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/yourusername/mastery-api/internal/domain/entity"
	"github.com/yourusername/mastery-api/internal/domain/repository"
	apperrors "github.com/yourusername/mastery-api/internal/pkg/errors"
)

const topicCatalogCacheKey = "topics:ordered"

// TopicCatalog отдаёт упорядоченный каталог тем с кешированием в Redis.
// Кеш необязателен: при его недоступности данные читаются из базы.
type TopicCatalog struct {
	topicRepo repository.TopicRepository
	cacheRepo repository.CacheRepository
	ttl       time.Duration
}

// NewTopicCatalog создаёт каталог тем. cacheRepo может быть nil.
func NewTopicCatalog(topicRepo repository.TopicRepository, cacheRepo repository.CacheRepository, ttl time.Duration) *TopicCatalog {
	return &TopicCatalog{topicRepo: topicRepo, cacheRepo: cacheRepo, ttl: ttl}
}

// ListOrdered возвращает темы по возрастанию Order
func (c *TopicCatalog) ListOrdered(ctx context.Context) ([]entity.Topic, error) {
	if c.cacheRepo != nil {
		var cached []entity.Topic
		err := c.cacheRepo.GetJSON(ctx, topicCatalogCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[TopicCatalog] Ошибка чтения кеша каталога: %v", err)
		}
	}

	topics, err := c.topicRepo.ListOrdered(ctx)
	if err != nil {
		return nil, storeError("list topics", err)
	}

	// Пустой каталог не кешируем: первая созданная тема должна стать видна сразу
	if c.cacheRepo != nil && len(topics) > 0 {
		if err := c.cacheRepo.SetJSON(ctx, topicCatalogCacheKey, topics, c.ttl); err != nil {
			log.Printf("[TopicCatalog] Не удалось закешировать каталог: %v", err)
		}
	}
	return topics, nil
}

// Invalidate сбрасывает кеш каталога после изменения тем
func (c *TopicCatalog) Invalidate(ctx context.Context) {
	if c.cacheRepo == nil {
		return
	}
	if err := c.cacheRepo.Delete(ctx, topicCatalogCacheKey); err != nil {
		log.Printf("[TopicCatalog] Не удалось сбросить кеш каталога: %v", err)
	}
}
