package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CertificateCounter provides the aggregate the collector publishes.
type CertificateCounter interface {
	CountCertificatesByStatus(ctx context.Context) (map[models.CertificateStatus]int64, error)
}

// Collector periodically refreshes database-derived gauges on a cron schedule.
type Collector struct {
	store   CertificateCounter
	metrics *Metrics
	cron    *cron.Cron
	timeout time.Duration
	logger  zerolog.Logger

	mu      sync.Mutex
	running bool
}

// NewCollector creates a new Collector.
func NewCollector(store CertificateCounter, m *Metrics, logger zerolog.Logger) *Collector {
	return &Collector{
		store:   store,
		metrics: m,
		cron:    cron.New(),
		timeout: 10 * time.Second,
		logger:  logger.With().Str("component", "metrics_collector").Logger(),
	}
}

// Refresh queries the store once and updates the gauges.
func (c *Collector) Refresh(ctx context.Context) error {
	counts, err := c.store.CountCertificatesByStatus(ctx)
	if err != nil {
		return fmt.Errorf("count certificates by status: %w", err)
	}
	c.metrics.SetCertificateCounts(counts)
	return nil
}

// Start refreshes immediately and then on every tick of schedule
// (standard cron syntax or descriptors such as "@every 1m").
func (c *Collector) Start(schedule string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	if _, err := c.cron.AddFunc(schedule, c.tick); err != nil {
		return fmt.Errorf("invalid metrics schedule %q: %w", schedule, err)
	}

	c.tick()
	c.cron.Start()
	c.running = true
	c.logger.Info().Str("schedule", schedule).Msg("metrics collector started")
	return nil
}

// Stop halts the schedule. The returned context is done once a running refresh finishes.
func (c *Collector) Stop() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	c.running = false
	c.logger.Info().Msg("stopping metrics collector")
	return c.cron.Stop()
}

func (c *Collector) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.Refresh(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("failed to refresh certificate metrics")
	}
}
