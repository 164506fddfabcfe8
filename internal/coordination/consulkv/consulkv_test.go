package consulkv_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykhdr/crack-dict/common/consul"
	"github.com/ykhdr/crack-dict/internal/coordination"
	"github.com/ykhdr/crack-dict/internal/coordination/consulkv"
	"github.com/ykhdr/crack-dict/internal/dictionary"
	"github.com/ykhdr/crack-dict/internal/hashcrack/compare"
	"github.com/ykhdr/crack-dict/internal/hashcrack/strategy"
	"github.com/ykhdr/crack-dict/internal/hashcrack/verdict"
)

type fakeConsul struct {
	mu   sync.Mutex
	kv   map[string][]byte
	down bool
}

func newFakeConsul() *fakeConsul {
	return &fakeConsul{kv: map[string][]byte{}}
}

func (f *fakeConsul) RegisterService(string, string, int) error { return nil }

func (f *fakeConsul) DeregisterService(string, int) error { return nil }

func (f *fakeConsul) PutIfAbsent(_ context.Context, key string, value []byte) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, errors.New("connection refused")
	}
	if _, ok := f.kv[key]; ok {
		return false, nil
	}
	f.kv[key] = value
	return true, nil
}

func (f *fakeConsul) List(_ context.Context, prefix string) ([]consul.KVPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, errors.New("connection refused")
	}
	var out []consul.KVPair
	for k, v := range f.kv {
		if strings.HasPrefix(k, prefix) {
			out = append(out, consul.KVPair{Key: k, Value: v})
		}
	}
	return out, nil
}

func (f *fakeConsul) DeleteTree(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.kv {
		if strings.HasPrefix(k, prefix) {
			delete(f.kv, k)
		}
	}
	return nil
}

func newCoordinator(t *testing.T, client consul.Client, prefix, jobID string) *consulkv.Coordinator {
	t.Helper()
	c, err := consulkv.New(client, prefix, jobID)
	require.NoError(t, err)
	return c
}

func TestReportAndResolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeConsul()
	c := newCoordinator(t, fake, "", "job-1")

	found, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Report(ctx, coordination.Report{JobID: "job-1", Rank: 4, Plaintext: "b"}))
	require.NoError(t, c.Report(ctx, coordination.Report{JobID: "job-1", Rank: 1, Plaintext: "a"}))
	require.NoError(t, c.Report(ctx, coordination.Report{JobID: "job-1", Rank: 1, Plaintext: "ignored"}))

	found, err = c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, found)

	r, ok, err := c.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, coordination.Report{JobID: "job-1", Rank: 1, Plaintext: "a"}, r)
	assert.Contains(t, fake.kv, consulkv.DefaultPrefix+"/job-1/1")
	require.NoError(t, c.Close())
}

func TestJobsAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeConsul()
	require.NoError(t, newCoordinator(t, fake, "p", "job-10").Report(ctx, coordination.Report{Rank: 0, Plaintext: "x"}))

	found, err := newCoordinator(t, fake, "p", "job-1").Status(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeConsul()
	fake.down = true
	c := newCoordinator(t, fake, "p", "job")

	_, err := c.Status(ctx)
	require.ErrorIs(t, err, coordination.ErrUnavailable)
	require.ErrorIs(t, c.Report(ctx, coordination.Report{}), coordination.ErrUnavailable)
	_, _, err = c.Resolve(ctx)
	require.ErrorIs(t, err, coordination.ErrUnavailable)
}

func TestResolveSkipsMalformed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeConsul()
	fake.kv["p/job/0"] = []byte("{not json")
	c := newCoordinator(t, fake, "p", "job")
	require.NoError(t, c.Report(ctx, coordination.Report{Rank: 3, Plaintext: "ok"}))

	r, ok, err := c.Resolve(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ok", r.Plaintext)
}

func TestNewRejectsEmptyJobID(t *testing.T) {
	t.Parallel()

	_, err := consulkv.New(newFakeConsul(), "p", "")
	require.ErrorIs(t, err, coordination.ErrEmptyJobID)
	_, err = consulkv.New(newFakeConsul(), "p", coordination.JobScope("", "abc"))
	require.ErrorIs(t, err, coordination.ErrEmptyJobID)
}

func TestPurge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeConsul()
	c := newCoordinator(t, fake, "p", "job")
	other := newCoordinator(t, fake, "p", "job-2")
	require.NoError(t, c.Report(ctx, coordination.Report{Rank: 0, Plaintext: "a"}))
	require.NoError(t, other.Report(ctx, coordination.Report{Rank: 0, Plaintext: "b"}))

	require.NoError(t, c.Purge(ctx))

	found, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = other.Status(ctx)
	require.NoError(t, err)
	assert.True(t, found)
}

func runWorker(t *testing.T, coord coordination.Coordinator, target string) strategy.WorkerResult {
	t.Helper()
	src := dictionary.NewPartition(dictionary.NewSource(strings.NewReader("alpha\nbeta\ngamma\nhunter2\n")), 0, 1)
	w := strategy.NewWorker(strategy.WorkerConfig{
		JobID:         "job",
		CheckInterval: 1,
		Source:        src,
		Comparator:    compare.New(func(s string) string { return s }, target),
		Coordinator:   coord,
	})
	res, err := w.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestSequentialJobsShareBackend(t *testing.T) {
	t.Parallel()

	fake := newFakeConsul()

	first := runWorker(t, newCoordinator(t, fake, "", coordination.JobScope("job", "alpha")), "alpha")
	assert.Equal(t, verdict.Found("alpha"), first.Verdict)

	// same pinned job id, new target
	coord := newCoordinator(t, fake, "", coordination.JobScope("job", "hunter2"))
	second := runWorker(t, coord, "hunter2")
	assert.Equal(t, verdict.Found("hunter2"), second.Verdict)
	assert.False(t, second.Halted)

	r, ok, err := coord.Resolve(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "hunter2", r.Plaintext)

	other := newCoordinator(t, fake, "", coordination.JobScope("other", "gamma"))
	assert.Equal(t, verdict.Found("gamma"), runWorker(t, other, "gamma").Verdict)

	missing := runWorker(t, newCoordinator(t, fake, "", coordination.JobScope("job", "zzz")), "zzz")
	assert.Equal(t, verdict.NotFound(), missing.Verdict)
	assert.False(t, missing.Halted)
	assert.Equal(t, int64(4), missing.Scanned)
}
