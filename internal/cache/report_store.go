package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/promo-dispatch/internal/config"
	"github.com/andresuchdata/promo-dispatch/internal/domain"
)

const (
	reportKeyPrefix = "promo:report:"
	scanBatchSize   = 100
)

// ReportStore keeps analysis reports between the analysis call and later export or
// chart requests. Entries expire after the store's TTL; Get on an expired or unknown
// id returns domain.ErrReportNotFound.
type ReportStore interface {
	Put(ctx context.Context, report *domain.AnalysisReport) error
	Get(ctx context.Context, id string) (*domain.AnalysisReport, error)
	Delete(ctx context.Context, id string) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

// NewReportStore returns a Redis-backed store when caching is enabled and an
// in-process store otherwise.
func NewReportStore(cfg config.CacheConfig) (ReportStore, error) {
	if !cfg.Enabled {
		return NewMemoryReportStore(reportTTL(cfg)), nil
	}

	client, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisReportStore{
		client: client,
		ttl:    reportTTL(cfg),
	}, nil
}

type redisReportStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisReportStore) Put(ctx context.Context, report *domain.AnalysisReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode analysis report: %w", err)
	}

	if err := s.client.Set(ctx, reportKey(report.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *redisReportStore) Get(ctx context.Context, id string) (*domain.AnalysisReport, error) {
	payload, err := s.client.Get(ctx, reportKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var report domain.AnalysisReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("decode analysis report: %w", err)
	}
	return &report, nil
}

func (s *redisReportStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, reportKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (s *redisReportStore) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, s.client, reportKeyPrefix, scanBatchSize)
}

func (s *redisReportStore) Close() error {
	return s.client.Close()
}

func reportKey(id string) string {
	return reportKeyPrefix + id
}

type memoryEntry struct {
	report    *domain.AnalysisReport
	expiresAt time.Time
}

// MemoryReportStore is an in-process ReportStore. Reports are shared by pointer and
// must not be mutated after Put.
type MemoryReportStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryReportStore(ttl time.Duration) *MemoryReportStore {
	if ttl <= 0 {
		ttl = defaultReportTTL
	}
	return &MemoryReportStore{
		items: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *MemoryReportStore) Put(ctx context.Context, report *domain.AnalysisReport) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("report id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)
	s.items[report.ID] = memoryEntry{report: report, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryReportStore) Get(ctx context.Context, id string) (*domain.AnalysisReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	entry, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrReportNotFound, id)
	}
	return entry.report, nil
}

func (s *MemoryReportStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *MemoryReportStore) InvalidateAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]memoryEntry)
	return nil
}

// Close is a no-op; entries are released with the store.
func (s *MemoryReportStore) Close() error {
	return nil
}

func (s *MemoryReportStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if !now.Before(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

var (
	_ ReportStore = (*MemoryReportStore)(nil)
	_ ReportStore = (*redisReportStore)(nil)
)
