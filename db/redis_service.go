package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"progress-server-go/models"
)

const (
	reportsKey       = "reports" // Sorted set: report IDs scored by generation time
	reportInfoPrefix = "report:" // String prefix: report:{id} -> report JSON
)

// trimScript keeps the newest ARGV[1] IDs in KEYS[1] and deletes the report
// blobs of the evicted ones. ARGV[2] is the blob key prefix.
var trimScript = redis.NewScript(`
local evicted = redis.call('ZRANGE', KEYS[1], 0, -tonumber(ARGV[1]) - 1)
for _, id in ipairs(evicted) do
	redis.call('DEL', ARGV[2] .. id)
end
if #evicted > 0 then
	redis.call('ZREMRANGEBYRANK', KEYS[1], 0, #evicted - 1)
end
return #evicted
`)

// ErrReportNotFound is returned when an ID has no stored report.
var ErrReportNotFound = errors.New("report not found")

// ReportArchive keeps recently generated reports.
type ReportArchive interface {
	Save(ctx context.Context, r *models.Report) error
	Get(ctx context.Context, id string) (*models.Report, error)
	Recent(ctx context.Context, limit int64) ([]models.Report, error)
}

// RedisService archives reports in Redis
type RedisService struct {
	Client     *redis.Client
	TTL        time.Duration // zero keeps reports until trimmed
	MaxEntries int64
	logger     *zap.Logger
}

// NewRedisService creates a new RedisService instance
func NewRedisService(client *redis.Client, ttl time.Duration, maxEntries int64, logger *zap.Logger) *RedisService {
	return &RedisService{
		Client:     client,
		TTL:        ttl,
		MaxEntries: maxEntries,
		logger:     logger,
	}
}

// Helper to generate report info key
func getReportInfoKey(id string) string {
	return reportInfoPrefix + id
}

// Save stores r and trims the index to MaxEntries.
func (s *RedisService) Save(ctx context.Context, r *models.Report) error {
	if r == nil || r.ID == "" {
		return errors.New("report ID cannot be empty")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", r.ID, err)
	}

	pipe := s.Client.TxPipeline()
	pipe.Set(ctx, getReportInfoKey(r.ID), b, s.TTL)
	pipe.ZAdd(ctx, reportsKey, &redis.Z{
		Score:  float64(r.GeneratedAt.UnixNano()),
		Member: r.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save report to Redis: %w", err)
	}

	if s.MaxEntries > 0 {
		evicted, err := trimScript.Run(ctx, s.Client, []string{reportsKey}, s.MaxEntries, reportInfoPrefix).Int64()
		if err != nil {
			return fmt.Errorf("failed to trim report archive: %w", err)
		}
		if evicted > 0 {
			s.logger.Debug("trimmed report archive", zap.Int64("evicted", evicted))
		}
	}
	s.logger.Debug("archived report", zap.String("id", r.ID), zap.String("rollNo", r.RollNo))
	return nil
}

// Get retrieves a report by its ID
func (s *RedisService) Get(ctx context.Context, id string) (*models.Report, error) {
	b, err := s.Client.Get(ctx, getReportInfoKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", id, ErrReportNotFound)
		}
		return nil, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var r models.Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &r, nil
}

// Recent returns up to limit reports, newest first. IDs whose report has
// expired are dropped from the index as they are found.
func (s *RedisService) Recent(ctx context.Context, limit int64) ([]models.Report, error) {
	if limit <= 0 {
		return []models.Report{}, nil
	}
	ids, err := s.Client.ZRevRange(ctx, reportsKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get report IDs from Redis: %w", err)
	}

	reports := make([]models.Report, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, ErrReportNotFound) {
			if err := s.Client.ZRem(ctx, reportsKey, id).Err(); err != nil {
				s.logger.Warn("failed to drop expired report id", zap.String("id", id), zap.Error(err))
			}
			continue
		}
		if err != nil {
			// Log the error but continue trying to fetch others
			s.logger.Warn("failed to fetch report", zap.String("id", id), zap.Error(err))
			continue
		}
		reports = append(reports, *r)
	}
	return reports, nil
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}
