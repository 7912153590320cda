package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/advisorlens/advisorlens/internal/domain/recommendation"
	"github.com/advisorlens/advisorlens/internal/pkg/errors"
)

// MockReportRepository is an in-memory recommendation.Repository for tests.
type MockReportRepository struct {
	mu      sync.Mutex
	reports map[string]*recommendation.Report
	recs    map[string][]*recommendation.Enriched
}

// NewMockReportRepository creates an empty in-memory repository.
func NewMockReportRepository() *MockReportRepository {
	return &MockReportRepository{
		reports: make(map[string]*recommendation.Report),
		recs:    make(map[string][]*recommendation.Enriched),
	}
}

func (m *MockReportRepository) CreateReport(_ context.Context, rep *recommendation.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[rep.ID] = rep
	return nil
}

func (m *MockReportRepository) GetReport(_ context.Context, id string) (*recommendation.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reports[id]
	if !ok {
		return nil, errors.NotFound("report")
	}
	return rep, nil
}

func (m *MockReportRepository) ListReports(_ context.Context, limit, offset int) ([]*recommendation.Report, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]*recommendation.Report, 0, len(m.reports))
	for _, rep := range m.reports {
		all = append(all, rep)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *MockReportRepository) DeleteReport(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return errors.NotFound("report")
	}
	delete(m.reports, id)
	delete(m.recs, id)
	return nil
}

func (m *MockReportRepository) BulkInsert(_ context.Context, reportID string, recs []*recommendation.Enriched) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs[reportID] = append(m.recs[reportID], recs...)
	return nil
}

func (m *MockReportRepository) ListByReport(_ context.Context, reportID string, limit, offset int) ([]*recommendation.Enriched, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.recs[reportID]
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) || end < 0 {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *MockReportRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for id, rep := range m.reports {
		if rep.CreatedAt.Before(cutoff) {
			delete(m.reports, id)
			delete(m.recs, id)
			deleted++
		}
	}
	return deleted, nil
}
