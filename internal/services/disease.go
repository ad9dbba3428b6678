package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"agri-advisor-backend/internal/models"
)

type JobStore interface {
	Create(ctx context.Context, j *models.AnalysisJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisJob, error)
}

type QueuePusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// DiseaseService accepts crop photos and queues them for the analysis workers.
type DiseaseService struct {
	jobs        JobStore
	queue       QueuePusher
	storagePath string
	maxBytes    int64
}

func NewDiseaseService(jobs JobStore, queue QueuePusher, storagePath string, maxBytes int64) *DiseaseService {
	return &DiseaseService{jobs: jobs, queue: queue, storagePath: storagePath, maxBytes: maxBytes}
}

// Submit stores the image under the farmer's directory and enqueues a job.
func (s *DiseaseService) Submit(ctx context.Context, userID uuid.UUID, image []byte) (*models.AnalysisJob, error) {
	if len(image) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"image": "Image is required"}}
	}
	if int64(len(image)) > s.maxBytes {
		return nil, &ValidationError{Fields: map[string]string{"image": fmt.Sprintf("Image must be at most %d MB", s.maxBytes>>20)}}
	}

	contentType := http.DetectContentType(image)
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, &ValidationError{Fields: map[string]string{"image": "File must be a JPEG, PNG, GIF or WebP image"}}
	}

	relPath := filepath.Join(userID.String(), uuid.New().String()+ext)
	fullPath := filepath.Join(s.storagePath, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(fullPath, image, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	job := &models.AnalysisJob{UserID: userID, ImagePath: relPath}
	if err := s.jobs.Create(ctx, job); err != nil {
		os.Remove(fullPath)
		return nil, err
	}

	task, _ := json.Marshal(models.AnalysisTask{JobID: job.ID, UserID: userID, ImagePath: relPath})
	if err := s.queue.LPush(ctx, models.DiseaseQueue, string(task)).Err(); err != nil {
		return nil, fmt.Errorf("failed to enqueue analysis job: %w", err)
	}

	return job, nil
}

// Get returns the job if it belongs to userID.
func (s *DiseaseService) Get(ctx context.Context, userID, jobID uuid.UUID) (*models.AnalysisJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Job not found"}
		}
		return nil, err
	}
	if job.UserID != userID {
		return nil, &ForbiddenError{Message: "You do not have access to this job"}
	}
	return job, nil
}

// ResolveImagePath maps a stored relative path back under the storage root.
func ResolveImagePath(storagePath, relPath string) (string, error) {
	clean := filepath.Clean(relPath)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("image path escapes storage: %s", relPath)
	}
	return filepath.Join(storagePath, clean), nil
}
