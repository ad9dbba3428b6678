package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agri-advisor-backend/internal/models"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.AnalysisJob
}

func (m *memJobs) Create(_ context.Context, j *models.AnalysisJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j.ID = uuid.New()
	j.Status = models.JobPending
	m.jobs[j.ID] = j
	return nil
}

func (m *memJobs) GetByID(_ context.Context, id uuid.UUID) (*models.AnalysisJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if j, ok := m.jobs[id]; ok {
		return j, nil
	}
	return nil, pgx.ErrNoRows
}

type listQueue struct {
	items []string
}

func (q *listQueue) LPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		q.items = append(q.items, v.(string))
	}
	return redis.NewIntResult(int64(len(q.items)), nil)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDiseaseSubmitStoresAndQueues(t *testing.T) {
	root := t.TempDir()
	jobs := &memJobs{jobs: map[uuid.UUID]*models.AnalysisJob{}}
	queue := &listQueue{}
	svc := NewDiseaseService(jobs, queue, root, 1<<20)
	userID := uuid.New()

	job, err := svc.Submit(context.Background(), userID, pngHeader)
	require.NoError(t, err)
	assert.Equal(t, models.JobPending, job.Status)
	assert.Equal(t, ".png", filepath.Ext(job.ImagePath))

	stored, err := os.ReadFile(filepath.Join(root, job.ImagePath))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	require.Len(t, queue.items, 1)
	var task models.AnalysisTask
	require.NoError(t, json.Unmarshal([]byte(queue.items[0]), &task))
	assert.Equal(t, models.AnalysisTask{JobID: job.ID, UserID: userID, ImagePath: job.ImagePath}, task)
}

func TestDiseaseSubmitValidation(t *testing.T) {
	svc := NewDiseaseService(&memJobs{jobs: map[uuid.UUID]*models.AnalysisJob{}}, &listQueue{}, t.TempDir(), 32)

	tests := []struct {
		name  string
		image []byte
	}{
		{"empty", nil},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 64)...)},
		{"not an image", []byte("%PDF-1.7 leaf report")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), uuid.New(), tt.image)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, "image")
		})
	}
}

func TestDiseaseGetChecksOwner(t *testing.T) {
	jobs := &memJobs{jobs: map[uuid.UUID]*models.AnalysisJob{}}
	svc := NewDiseaseService(jobs, &listQueue{}, t.TempDir(), 1<<20)
	owner := uuid.New()

	job, err := svc.Submit(context.Background(), owner, pngHeader)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), owner, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = svc.Get(context.Background(), uuid.New(), job.ID)
	var fe *ForbiddenError
	assert.ErrorAs(t, err, &fe)

	_, err = svc.Get(context.Background(), owner, uuid.New())
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestResolveImagePath(t *testing.T) {
	p, err := ResolveImagePath("/srv/uploads", "u1/leaf.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/uploads", "u1", "leaf.png"), p)

	for _, bad := range []string{"../secret", "/etc/passwd", "u1/../../x"} {
		_, err := ResolveImagePath("/srv/uploads", bad)
		assert.Error(t, err, bad)
	}
}
