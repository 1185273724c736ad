package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"imagebot/internal/core"
	"imagebot/internal/util"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// FileStorage persists refresh stats as a JSON file
type FileStorage struct {
	filePath string
}

func NewFileStorage(filePath string) *FileStorage {
	if filePath == "" {
		filePath = core.StatsFilePath
	}
	return &FileStorage{filePath: filePath}
}

func (fs *FileStorage) SaveStats(stats *core.RefreshStats) error {
	data, err := sonic.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(fs.filePath, data, core.FilePermissionReadWrite)
}

func (fs *FileStorage) LoadStats() (*core.RefreshStats, error) {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyStats(), nil
		}
		return nil, err
	}
	return decodeStats(data)
}

func (fs *FileStorage) Close() error {
	return nil
}

// RedisStorage persists refresh stats under a single Redis key
type RedisStorage struct {
	client *redis.Client
	ctx    context.Context
	key    string
}

// RedisStorageConfig Redis storage config
type RedisStorageConfig struct {
	URL string
	Key string
}

func NewRedisStorage(config RedisStorageConfig) (*RedisStorage, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	key := config.Key
	if key == "" {
		key = core.StatsRedisKey
	}

	return &RedisStorage{client: client, ctx: ctx, key: key}, nil
}

func (rs *RedisStorage) SaveStats(stats *core.RefreshStats) error {
	data, err := util.MarshalJSON(stats)
	if err != nil {
		return err
	}
	return rs.client.Set(rs.ctx, rs.key, data, 0).Err()
}

func (rs *RedisStorage) LoadStats() (*core.RefreshStats, error) {
	val, err := rs.client.Get(rs.ctx, rs.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return emptyStats(), nil
		}
		return nil, err
	}
	return decodeStats(val)
}

func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}

func emptyStats() *core.RefreshStats {
	return &core.RefreshStats{History: []core.RefreshEvent{}}
}

func decodeStats(data []byte) (*core.RefreshStats, error) {
	var stats core.RefreshStats
	if err := sonic.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decode refresh stats: %w", err)
	}
	if stats.History == nil {
		stats.History = []core.RefreshEvent{}
	}
	return &stats, nil
}

// InitStorage picks Redis when REDIS_URL is set and reachable, otherwise file storage
func InitStorage(logger core.Logger) core.StorageInterface {
	if logger == nil {
		logger = &core.NopLogger{}
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL != "" {
		redisStorage, err := NewRedisStorage(RedisStorageConfig{
			URL: redisURL,
			Key: core.StatsRedisKey,
		})
		if err != nil {
			logger.Warn("Failed to initialize Redis storage: %v, falling back to file storage", err)
			return NewFileStorage(core.StatsFilePath)
		}
		logger.Info("Using Redis storage")
		return redisStorage
	}

	logger.Info("Using file storage: %s", core.StatsFilePath)
	return NewFileStorage(core.StatsFilePath)
}
