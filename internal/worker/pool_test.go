package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/simulation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memQueue struct {
	items chan string

	mu        sync.Mutex
	locks     map[string]bool
	published map[string][]models.WSMessage
}

func newMemQueue() *memQueue {
	return &memQueue{
		items:     make(chan string, 16),
		locks:     make(map[string]bool),
		published: make(map[string][]models.WSMessage),
	}
}

func (q *memQueue) BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	select {
	case v := <-q.items:
		return redis.NewStringSliceResult([]string{keys[0], v}, nil)
	case <-time.After(timeout):
		return redis.NewStringSliceResult(nil, redis.Nil)
	case <-ctx.Done():
		return redis.NewStringSliceResult(nil, ctx.Err())
	}
}

func (q *memQueue) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) *redis.BoolCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.locks[key] {
		return redis.NewBoolResult(false, nil)
	}
	q.locks[key] = true
	return redis.NewBoolResult(true, nil)
}

func (q *memQueue) Del(_ context.Context, keys ...string) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, k := range keys {
		delete(q.locks, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (q *memQueue) LPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		q.items <- v.(string)
	}
	return redis.NewIntResult(int64(len(q.items)), nil)
}

func (q *memQueue) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	var msg models.WSMessage
	json.Unmarshal(message.([]byte), &msg)
	q.mu.Lock()
	q.published[channel] = append(q.published[channel], msg)
	q.mu.Unlock()
	return redis.NewIntResult(1, nil)
}

func (q *memQueue) messages(channel string) []models.WSMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.WSMessage(nil), q.published[channel]...)
}

type memJobs struct {
	mu       sync.Mutex
	statuses []string
	results  map[uuid.UUID]json.RawMessage
	errors   []string
	writeErr error
}

func newMemJobs() *memJobs {
	return &memJobs{results: make(map[uuid.UUID]json.RawMessage)}
}

func (j *memJobs) UpdateStatus(_ context.Context, _ uuid.UUID, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.statuses = append(j.statuses, status)
	return j.writeErr
}

func (j *memJobs) Complete(_ context.Context, id uuid.UUID, result json.RawMessage) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.statuses = append(j.statuses, models.JobCompleted)
	j.results[id] = result
	return nil
}

func (j *memJobs) UpdateError(_ context.Context, _ uuid.UUID, errMsg string, _ int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, errMsg)
	return j.writeErr
}

func (j *memJobs) snapshot() ([]string, []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.statuses...), append([]string(nil), j.errors...)
}

type memActivities struct {
	mu    sync.Mutex
	items []models.Activity
}

func (a *memActivities) Record(_ context.Context, userID uuid.UUID, act models.Activity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	act.UserID = userID
	a.items = append(a.items, act)
}

func (a *memActivities) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

func writeImage(t *testing.T, root string, userID uuid.UUID, data []byte) string {
	t.Helper()
	rel := filepath.Join(userID.String(), "leaf.png")
	require.NoError(t, os.MkdirAll(filepath.Join(root, userID.String()), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), data, 0o644))
	return rel
}

func enqueue(t *testing.T, q *memQueue, task models.AnalysisTask) {
	t.Helper()
	b, err := json.Marshal(task)
	require.NoError(t, err)
	q.items <- string(b)
}

func TestPoolCompletesJob(t *testing.T) {
	root := t.TempDir()
	userID := uuid.New()
	jobID := uuid.New()
	rel := writeImage(t, root, userID, []byte("\x89PNG\r\n\x1a\nleaf-pixels"))

	q := newMemQueue()
	jobs := newMemJobs()
	acts := &memActivities{}
	p := NewPool(q, jobs, simulation.NewDiseaseScanner(), acts, root, 2)
	p.Start()
	defer p.Stop()

	enqueue(t, q, models.AnalysisTask{JobID: jobID, UserID: userID, ImagePath: rel})

	channel := models.FarmerChannel(userID)
	require.Eventually(t, func() bool { return len(q.messages(channel)) == 1 }, 2*time.Second, 10*time.Millisecond)

	msg := q.messages(channel)[0]
	assert.Equal(t, models.WSAnalysisCompleted, msg.Type)

	statuses, errs := jobs.snapshot()
	assert.Equal(t, []string{models.JobProcessing, models.JobCompleted}, statuses)
	assert.Empty(t, errs)

	var analysis simulation.DiseaseAnalysis
	require.NoError(t, json.Unmarshal(jobs.results[jobID], &analysis))
	assert.NotEmpty(t, analysis.Disease.Name)
	assert.Equal(t, 1, acts.count())
}

func TestPoolRetriesThenFails(t *testing.T) {
	root := t.TempDir()
	userID := uuid.New()

	q := newMemQueue()
	jobs := newMemJobs()
	acts := &memActivities{}
	p := NewPool(q, jobs, simulation.NewDiseaseScanner(), acts, root, 1)
	p.backoff = func(int) time.Duration { return time.Millisecond }
	p.Start()
	defer p.Stop()

	// The image was never written, so every attempt fails.
	enqueue(t, q, models.AnalysisTask{JobID: uuid.New(), UserID: userID, ImagePath: "missing/leaf.png"})

	channel := models.FarmerChannel(userID)
	require.Eventually(t, func() bool { return len(q.messages(channel)) == 1 }, 2*time.Second, 10*time.Millisecond)

	msg := q.messages(channel)[0]
	assert.Equal(t, models.WSAnalysisFailed, msg.Type)

	statuses, errs := jobs.snapshot()
	assert.Len(t, errs, defaultRetries)
	assert.Equal(t, models.JobFailed, statuses[len(statuses)-1])
	assert.Zero(t, acts.count())
}

func TestPoolSkipsLockedJob(t *testing.T) {
	root := t.TempDir()
	userID := uuid.New()
	jobID := uuid.New()
	rel := writeImage(t, root, userID, []byte("leaf"))

	q := newMemQueue()
	q.locks["job_lock:"+jobID.String()] = true
	jobs := newMemJobs()
	p := NewPool(q, jobs, simulation.NewDiseaseScanner(), &memActivities{}, root, 1)
	p.Start()

	enqueue(t, q, models.AnalysisTask{JobID: jobID, UserID: userID, ImagePath: rel})
	require.Eventually(t, func() bool { return len(q.items) == 0 }, time.Second, 5*time.Millisecond)
	p.Stop()

	statuses, _ := jobs.snapshot()
	assert.Empty(t, statuses)
	assert.Empty(t, q.messages(models.FarmerChannel(userID)))
}

func TestPoolRejectsEscapingPath(t *testing.T) {
	q := newMemQueue()
	jobs := newMemJobs()
	p := NewPool(q, jobs, simulation.NewDiseaseScanner(), &memActivities{}, t.TempDir(), 1)

	_, err := p.analyze(context.Background(), &models.AnalysisTask{ImagePath: "../etc/passwd"})
	assert.Error(t, err)
	p.Stop()
}

func TestPoolStopRequeuesJobInBackoff(t *testing.T) {
	q := newMemQueue()
	jobs := newMemJobs()
	p := NewPool(q, jobs, simulation.NewDiseaseScanner(), &memActivities{}, t.TempDir(), 1)
	p.backoff = func(int) time.Duration { return time.Hour }
	p.Start()

	jobID := uuid.New()
	enqueue(t, q, models.AnalysisTask{JobID: jobID, UserID: uuid.New(), ImagePath: "missing/leaf.png"})

	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return len(p.retries) == 1
	}, 2*time.Second, 5*time.Millisecond)
	p.Stop()

	require.Len(t, q.items, 1)
	var task models.AnalysisTask
	require.NoError(t, json.Unmarshal([]byte(<-q.items), &task))
	assert.Equal(t, jobID, task.JobID)
	assert.Equal(t, 1, task.Attempt)

	statuses, _ := jobs.snapshot()
	assert.Equal(t, []string{models.JobProcessing, models.JobPending}, statuses)
}

func TestPoolFailsJobWhenStoreWritesFail(t *testing.T) {
	q := newMemQueue()
	jobs := newMemJobs()
	jobs.writeErr = errors.New("connection reset")
	p := NewPool(q, jobs, simulation.NewDiseaseScanner(), &memActivities{}, t.TempDir(), 1)
	p.backoff = func(int) time.Duration { return time.Millisecond }
	p.Start()
	defer p.Stop()

	userID := uuid.New()
	enqueue(t, q, models.AnalysisTask{JobID: uuid.New(), UserID: userID, ImagePath: "missing/leaf.png"})

	channel := models.FarmerChannel(userID)
	require.Eventually(t, func() bool { return len(q.messages(channel)) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, models.WSAnalysisFailed, q.messages(channel)[0].Type)

	_, errs := jobs.snapshot()
	assert.Len(t, errs, defaultRetries)
}
