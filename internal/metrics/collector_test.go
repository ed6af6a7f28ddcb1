package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type mockCounter struct {
	mu     sync.Mutex
	counts map[models.CertificateStatus]int64
	err    error
	calls  int
}

func (m *mockCounter) CountCertificatesByStatus(_ context.Context) (map[models.CertificateStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.counts, m.err
}

func newTestCollector(t *testing.T, store CertificateCounter) (*Collector, *Metrics) {
	t.Helper()
	m, err := NewPrometheusMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return NewCollector(store, m, zerolog.Nop()), m
}

func TestCollector_Refresh(t *testing.T) {
	store := &mockCounter{counts: map[models.CertificateStatus]int64{models.CertificateStatusActive: 3}}
	c, m := newTestCollector(t, store)

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if v := getGaugeValue(t, m.CertificatesByStatus, "ACTIVE"); v != 3 {
		t.Errorf("expected 3, got %f", v)
	}
}

func TestCollector_RefreshError(t *testing.T) {
	c, _ := newTestCollector(t, &mockCounter{err: errors.New("db down")})
	if err := c.Refresh(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestCollector_StartStop(t *testing.T) {
	store := &mockCounter{counts: map[models.CertificateStatus]int64{models.CertificateStatusRevoked: 1}}
	c, m := newTestCollector(t, store)

	if err := c.Start("@every 1h"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := c.Start("@every 1h"); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	<-c.Stop().Done()
	<-c.Stop().Done()

	if store.calls != 1 {
		t.Errorf("expected one immediate refresh, got %d", store.calls)
	}
	if v := getGaugeValue(t, m.CertificatesByStatus, "REVOKED"); v != 1 {
		t.Errorf("expected 1, got %f", v)
	}
}

func TestCollector_InvalidSchedule(t *testing.T) {
	c, _ := newTestCollector(t, &mockCounter{})
	if err := c.Start("not a schedule"); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
