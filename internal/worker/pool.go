package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"agri-advisor-backend/internal/logger"
	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/services"
	"agri-advisor-backend/internal/simulation"
)

const (
	popTimeout     = 5 * time.Second
	lockTTL        = 10 * time.Minute
	analyzeTimeout = time.Minute
	defaultRetries = 3
)

// Queue is the subset of a Redis client the pool drives.
type Queue interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type JobStore interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage) error
	UpdateError(ctx context.Context, id uuid.UUID, errMsg string, retryCount int) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, a models.Activity)
}

// Pool runs disease-analysis jobs pulled from the Redis queue.
type Pool struct {
	queue       Queue
	jobs        JobStore
	detector    simulation.DiseaseDetector
	activities  ActivityRecorder
	storagePath string
	workerCount int
	maxRetries  int
	backoff     func(attempt int) time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	retries map[*time.Timer]string
}

func NewPool(queue Queue, jobs JobStore, detector simulation.DiseaseDetector, activities ActivityRecorder, storagePath string, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:       queue,
		jobs:        jobs,
		detector:    detector,
		activities:  activities,
		storagePath: storagePath,
		workerCount: workerCount,
		maxRetries:  defaultRetries,
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		},
		ctx:     ctx,
		cancel:  cancel,
		retries: make(map[*time.Timer]string),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	logger.InfoWithFields("worker pool started", logger.Fields{
		"workers": p.workerCount,
		"queue":   models.DiseaseQueue,
	})
}

// Stop cancels in-flight work, pushes jobs still waiting out a retry
// backoff back onto the queue and waits for the workers to exit.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()

	p.mu.Lock()
	pending := p.retries
	p.retries = make(map[*time.Timer]string)
	p.mu.Unlock()

	for t, payload := range pending {
		t.Stop()
		if err := p.queue.LPush(context.Background(), models.DiseaseQueue, payload).Err(); err != nil {
			logger.ErrorWithFields("failed to requeue job on shutdown", logger.Fields{"error": err.Error()})
		}
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		if p.ctx.Err() != nil {
			logger.Log.Infof("worker %d shutting down", id)
			return
		}

		result, err := p.queue.BLPop(p.ctx, popTimeout, models.DiseaseQueue).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && p.ctx.Err() == nil {
				logger.WarnWithFields("queue pop failed", logger.Fields{"worker": id, "error": err.Error()})
				select {
				case <-time.After(time.Second):
				case <-p.ctx.Done():
				}
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var task models.AnalysisTask
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			logger.ErrorWithFields("failed to parse job", logger.Fields{"worker": id, "error": err.Error()})
			continue
		}

		p.process(id, &task)
	}
}

func (p *Pool) process(workerID int, task *models.AnalysisTask) {
	ctx := p.ctx

	lockKey := "job_lock:" + task.JobID.String()
	locked, err := p.queue.SetNX(ctx, lockKey, "1", lockTTL).Result()
	if err != nil || !locked {
		return
	}
	defer p.queue.Del(context.Background(), lockKey)

	logger.InfoWithFields("processing job", logger.Fields{
		"worker":  workerID,
		"job_id":  task.JobID.String(),
		"attempt": task.Attempt + 1,
	})

	if err := p.jobs.UpdateStatus(ctx, task.JobID, models.JobProcessing); err != nil {
		logger.WarnWithFields("failed to mark job processing", logger.Fields{"job_id": task.JobID.String(), "error": err.Error()})
	}

	analysis, err := p.analyze(ctx, task)
	if err != nil {
		p.handleFailure(ctx, task, err)
		return
	}
	p.handleSuccess(ctx, task, analysis)
}

func (p *Pool) analyze(ctx context.Context, task *models.AnalysisTask) (*simulation.DiseaseAnalysis, error) {
	path, err := services.ResolveImagePath(p.storagePath, task.ImagePath)
	if err != nil {
		return nil, err
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, analyzeTimeout)
	defer cancel()
	return p.detector.Analyze(ctx, image)
}

func (p *Pool) handleSuccess(ctx context.Context, task *models.AnalysisTask, analysis *simulation.DiseaseAnalysis) {
	result, err := json.Marshal(analysis)
	if err != nil {
		p.handleFailure(ctx, task, fmt.Errorf("failed to encode result: %w", err))
		return
	}

	if err := p.jobs.Complete(ctx, task.JobID, result); err != nil {
		p.handleFailure(ctx, task, fmt.Errorf("failed to store result: %w", err))
		return
	}

	p.activities.Record(ctx, task.UserID, services.DiseaseActivity(analysis))

	p.publish(ctx, task.UserID, models.WSMessage{
		Type:    models.WSAnalysisCompleted,
		Payload: models.AnalysisCompletedEvent{JobID: task.JobID, Result: result},
	})

	logger.InfoWithFields("job completed", logger.Fields{
		"job_id":  task.JobID.String(),
		"disease": analysis.Disease.Name,
	})
}

func (p *Pool) handleFailure(ctx context.Context, task *models.AnalysisTask, err error) {
	if ctx.Err() != nil {
		// Shutting down: hand the job back untouched for the next process.
		payload, _ := json.Marshal(task)
		p.queue.LPush(context.Background(), models.DiseaseQueue, string(payload))
		return
	}

	task.Attempt++
	errMsg := err.Error()

	if task.Attempt < p.maxRetries {
		logger.WarnWithFields("job failed, retrying", logger.Fields{
			"job_id":  task.JobID.String(),
			"attempt": task.Attempt,
			"error":   errMsg,
		})
		p.recordFailure(ctx, task, models.JobPending, errMsg)
		p.requeue(*task, p.backoff(task.Attempt))
		return
	}

	logger.ErrorWithFields("job failed permanently", logger.Fields{
		"job_id": task.JobID.String(),
		"error":  errMsg,
	})
	p.recordFailure(ctx, task, models.JobFailed, errMsg)

	p.publish(ctx, task.UserID, models.WSMessage{
		Type:    models.WSAnalysisFailed,
		Payload: models.AnalysisFailedEvent{JobID: task.JobID, ErrorMessage: errMsg},
	})
}

func (p *Pool) recordFailure(ctx context.Context, task *models.AnalysisTask, status, errMsg string) {
	if err := p.jobs.UpdateStatus(ctx, task.JobID, status); err != nil {
		logger.WarnWithFields("failed to update job status", logger.Fields{"job_id": task.JobID.String(), "status": status, "error": err.Error()})
	}
	if err := p.jobs.UpdateError(ctx, task.JobID, errMsg, task.Attempt); err != nil {
		logger.WarnWithFields("failed to record job error", logger.Fields{"job_id": task.JobID.String(), "error": err.Error()})
	}
}

func (p *Pool) requeue(task models.AnalysisTask, after time.Duration) {
	payload, _ := json.Marshal(task)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil {
		if err := p.queue.LPush(context.Background(), models.DiseaseQueue, string(payload)).Err(); err != nil {
			logger.ErrorWithFields("failed to requeue job", logger.Fields{"job_id": task.JobID.String(), "error": err.Error()})
		}
		return
	}

	var t *time.Timer
	t = time.AfterFunc(after, func() {
		p.mu.Lock()
		_, ok := p.retries[t]
		delete(p.retries, t)
		p.mu.Unlock()
		if !ok {
			return
		}
		if err := p.queue.LPush(context.Background(), models.DiseaseQueue, string(payload)).Err(); err != nil {
			logger.ErrorWithFields("failed to requeue job", logger.Fields{"job_id": task.JobID.String(), "error": err.Error()})
		}
	})
	p.retries[t] = string(payload)
}

func (p *Pool) publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := p.queue.Publish(ctx, models.FarmerChannel(userID), data).Err(); err != nil {
		logger.WarnWithFields("failed to publish job update", logger.Fields{
			"user_id": userID.String(),
			"type":    msg.Type,
			"error":   err.Error(),
		})
	}
}
