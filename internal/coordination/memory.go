package coordination

import (
	"context"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Memory is a shared-memory primitive for workers living in one process.
type Memory struct {
	found   atomic.Bool
	reports *xsync.MapOf[int, Report]
}

func NewMemory() *Memory {
	return &Memory{reports: xsync.NewMapOf[int, Report]()}
}

func (m *Memory) Status(context.Context) (bool, error) {
	return m.found.Load(), nil
}

// Report keeps the first report of each rank.
func (m *Memory) Report(_ context.Context, r Report) error {
	m.reports.LoadOrStore(r.Rank, r)
	m.found.Store(true)
	return nil
}

func (m *Memory) Resolve(context.Context) (Report, bool, error) {
	reports := make([]Report, 0, m.reports.Size())
	m.reports.Range(func(_ int, r Report) bool {
		reports = append(reports, r)
		return true
	})
	r, ok := Lowest(reports)
	return r, ok, nil
}

func (m *Memory) Close() error {
	return nil
}

var _ Coordinator = (*Memory)(nil)
