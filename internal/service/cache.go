// cache.go — LRU-кэш чтений каталога с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша. Метка cache — имя экземпляра кэша.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rx_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш каталога.",
	}, []string{"cache"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rx_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша каталога.",
	}, []string{"cache"})
)

// Cache — LRU-кэш с автоматическим TTL.
// Каждый экземпляр сервиса имеет собственный in-memory кэш.
// Значения отдаются как есть: вызывающий не должен их изменять.
type Cache[V any] struct {
	lru    *expirable.LRU[string, V]
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewCache создаёт кэш с указанным максимальным размером и TTL.
// name — значение метки cache в метриках.
func NewCache[V any](name string, maxSize int, ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		lru:    expirable.NewLRU[string, V](maxSize, nil, ttl),
		hits:   cacheHitsTotal.WithLabelValues(name),
		misses: cacheMissesTotal.WithLabelValues(name),
	}
}

// Get возвращает значение по ключу и обновляет метрики hit/miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	val, ok := c.lru.Get(key)
	if ok {
		c.hits.Inc()
		return val, true
	}
	c.misses.Inc()
	return val, false
}

// Set добавляет или обновляет запись.
func (c *Cache[V]) Set(key string, val V) {
	c.lru.Add(key, val)
}

// Purge очищает кэш.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}
