package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"xandpulse/config"
	"xandpulse/models"
)

// CacheMode indicates which cache backend is active
type CacheMode string

const (
	CacheModeRedis    CacheMode = "redis"
	CacheModeInMemory CacheMode = "in-memory"
)

const clusterKeyPrefix = "pnodes:"

// CacheItem for in-memory fallback
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// CacheService keeps the latest result per cluster, in Redis when it is
// reachable and in process memory otherwise.
type CacheService struct {
	cfg *config.Config

	// Redis
	redis       *redis.Client
	redisCtx    context.Context
	redisCancel context.CancelFunc
	mode        CacheMode
	modeMutex   sync.RWMutex

	// In-memory fallback
	inMemoryStore sync.Map

	now      func() time.Time
	stopOnce sync.Once
	stopChan chan struct{}
}

func NewCacheService(cfg *config.Config) *CacheService {
	ctx, cancel := context.WithCancel(context.Background())

	cs := &CacheService{
		cfg:         cfg,
		redisCtx:    ctx,
		redisCancel: cancel,
		stopChan:    make(chan struct{}),
		mode:        CacheModeInMemory,
		now:         time.Now,
	}

	if cfg.Redis.Enabled {
		cs.connectRedis()
	} else {
		log.Println("Redis disabled in config, using in-memory cache only")
	}

	return cs
}

// connectRedis attempts to connect to Redis and stays in memory mode on failure
func (cs *CacheService) connectRedis() {
	if cs.cfg.Redis.Address == "" {
		log.Println("Redis address not configured, using in-memory cache")
		return
	}

	options := &redis.Options{
		Addr:         cs.cfg.Redis.Address,
		Password:     cs.cfg.Redis.Password,
		DB:           cs.cfg.Redis.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,
		PoolTimeout:  10 * time.Second,
	}

	if cs.cfg.Redis.UseTLS {
		options.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
		log.Printf("TLS enabled for Redis connection")
	}

	cs.redis = redis.NewClient(options)

	ctx, cancel := context.WithTimeout(cs.redisCtx, 10*time.Second)
	defer cancel()

	pong, err := cs.redis.Ping(ctx).Result()
	if err != nil {
		log.Warnf("Redis connection failed: %v", err)
		log.Warnf("Running in IN-MEMORY mode")
		cs.setMode(CacheModeInMemory)
		return
	}

	log.Printf("Redis connected successfully (response: %s)", pong)
	cs.setMode(CacheModeRedis)
}

func (cs *CacheService) setMode(mode CacheMode) {
	cs.modeMutex.Lock()
	defer cs.modeMutex.Unlock()
	if cs.mode != mode {
		log.Printf("Cache mode changed: %s -> %s", cs.mode, mode)
	}
	cs.mode = mode
}

func (cs *CacheService) getMode() CacheMode {
	cs.modeMutex.RLock()
	defer cs.modeMutex.RUnlock()
	return cs.mode
}

// Start runs the Redis health check loop.
func (cs *CacheService) Start() {
	if cs.redis == nil {
		return
	}
	go cs.runHealthCheckLoop()
}

func (cs *CacheService) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.stopChan)
		cs.redisCancel()

		if cs.redis != nil {
			cs.redis.Close()
		}
	})
}

func (cs *CacheService) runHealthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.checkRedisHealth()
		case <-cs.stopChan:
			return
		}
	}
}

// checkRedisHealth switches between Redis and memory as Redis comes and goes
func (cs *CacheService) checkRedisHealth() {
	if cs.redis == nil {
		return
	}

	mode := cs.getMode()
	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	_, err := cs.redis.Ping(ctx).Result()

	if mode == CacheModeRedis && err != nil {
		log.Warnf("Redis health check failed: %v, switching to IN-MEMORY mode", err)
		cs.setMode(CacheModeInMemory)
	} else if mode == CacheModeInMemory && err == nil {
		log.Printf("Redis reconnected, switching back to REDIS mode")
		cs.syncInMemoryToRedis()
		cs.setMode(CacheModeRedis)
	}
}

// syncInMemoryToRedis copies unexpired in-memory entries to Redis on reconnection
func (cs *CacheService) syncInMemoryToRedis() {
	synced := 0
	cs.inMemoryStore.Range(func(key, value interface{}) bool {
		item := value.(*CacheItem)
		ttl := item.ExpiresAt.Sub(cs.now())
		if ttl > 0 {
			if err := cs.setRedis(key.(string), item.Data, ttl); err == nil {
				synced++
			}
		}
		return true
	})
	log.Printf("Synced %d items to Redis", synced)
}

// ============================================
// Generic Set/Get with Redis + In-Memory
// ============================================

func (cs *CacheService) Set(key string, data interface{}, ttl time.Duration) {
	if cs.getMode() == CacheModeRedis {
		if err := cs.setRedis(key, data, ttl); err != nil {
			log.Warnf("Redis SET failed for '%s': %v (falling back to in-memory)", key, err)
			cs.setInMemory(key, data, ttl)
		}
		return
	}
	cs.setInMemory(key, data, ttl)
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	if cs.getMode() == CacheModeRedis {
		data, found, err := cs.getRedis(key)
		if err != nil {
			return cs.getInMemory(key)
		}
		return data, found
	}
	return cs.getInMemory(key)
}

// ============================================
// Redis Operations
// ============================================

func (cs *CacheService) setRedis(key string, data interface{}, ttl time.Duration) error {
	if cs.redis == nil {
		return errors.New("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return cs.redis.Set(ctx, key, jsonData, ttl).Err()
}

func (cs *CacheService) getRedis(key string) (interface{}, bool, error) {
	if cs.redis == nil {
		return nil, false, errors.New("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	jsonData, err := cs.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// Deserialize based on key pattern
	var data interface{}
	switch {
	case strings.HasPrefix(key, clusterKeyPrefix):
		var resp models.ClusterNodesResponse
		if err := json.Unmarshal(jsonData, &resp); err != nil {
			return nil, false, err
		}
		data = &resp
	default:
		if err := json.Unmarshal(jsonData, &data); err != nil {
			return nil, false, err
		}
	}

	return data, true, nil
}

// ============================================
// In-Memory Operations (Fallback)
// ============================================

func (cs *CacheService) setInMemory(key string, data interface{}, ttl time.Duration) {
	cs.inMemoryStore.Store(key, &CacheItem{
		Data:      data,
		ExpiresAt: cs.now().Add(ttl),
	})
}

func (cs *CacheService) getInMemory(key string) (interface{}, bool) {
	val, ok := cs.inMemoryStore.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(*CacheItem)
	if cs.now().After(item.ExpiresAt) {
		cs.inMemoryStore.Delete(key)
		return nil, false
	}
	return item.Data, true
}

// ============================================
// Typed Helper Methods
// ============================================

func clusterKey(cluster models.NetworkCluster) string {
	return clusterKeyPrefix + string(cluster)
}

// SetClusterNodes stores the latest result for its cluster.
func (cs *CacheService) SetClusterNodes(resp *models.ClusterNodesResponse) {
	if resp == nil {
		return
	}
	cs.Set(clusterKey(resp.Cluster), resp, cs.cfg.CacheTTLDuration())
}

// GetClusterNodes returns the last stored result for a cluster, fresh or not.
func (cs *CacheService) GetClusterNodes(cluster models.NetworkCluster) (*models.ClusterNodesResponse, bool) {
	data, found := cs.Get(clusterKey(cluster))
	if !found {
		return nil, false
	}
	resp, ok := data.(*models.ClusterNodesResponse)
	return resp, ok
}

// ============================================
// Utility Methods
// ============================================

func (cs *CacheService) GetCacheMode() CacheMode {
	return cs.getMode()
}

// RedisConfigured reports whether Redis was requested in config.
func (cs *CacheService) RedisConfigured() bool {
	return cs.cfg.Redis.Enabled
}

func (cs *CacheService) ClearCache() error {
	if cs.getMode() == CacheModeRedis && cs.redis != nil {
		ctx, cancel := context.WithTimeout(cs.redisCtx, 5*time.Second)
		defer cancel()

		iter := cs.redis.Scan(ctx, 0, clusterKeyPrefix+"*", 0).Iterator()
		deleted := 0
		for iter.Next(ctx) {
			if err := cs.redis.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
			}
			deleted++
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		log.Printf("Redis cache cleared (%d keys deleted)", deleted)
	}

	cs.inMemoryStore.Range(func(key, _ interface{}) bool {
		cs.inMemoryStore.Delete(key)
		return true
	})
	log.Println("In-memory cache cleared")

	return nil
}

func (cs *CacheService) GetCacheStats() map[string]interface{} {
	stats := map[string]interface{}{
		"mode":    string(cs.getMode()),
		"enabled": cs.cfg.Redis.Enabled,
	}

	if cs.getMode() == CacheModeRedis && cs.redis != nil {
		ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
		defer cancel()

		if dbSize, err := cs.redis.DBSize(ctx).Result(); err == nil {
			stats["redis_keys"] = dbSize
		}
	}

	inMemCount := 0
	cs.inMemoryStore.Range(func(_, _ interface{}) bool {
		inMemCount++
		return true
	})
	stats["in_memory_keys"] = inMemCount

	return stats
}
