package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/job"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

// MockRagService tracks job execution
type MockRagService struct {
	QueryCount  int32
	IngestCount int32
}

func (m *MockRagService) ProcessQuery(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.QueryCount, 1)
	j.CurrentStep = jobModel.Complete
	return j
}

func (m *MockRagService) IngestFile(ctx context.Context, j jobModel.Job) jobModel.Job {
	atomic.AddInt32(&m.IngestCount, 1)
	j.CurrentStep = jobModel.Complete
	return j
}

type MockJobStore struct {
	OnSaveJob func(ctx context.Context, job jobModel.Job) error
	saved     []jobModel.Job
	mu        sync.Mutex
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	return jobModel.Job{}, false
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	m.saved = append(m.saved, j)
	m.mu.Unlock()
	if m.OnSaveJob != nil {
		return m.OnSaveJob(ctx, j)
	}
	return nil
}

func (m *MockJobStore) lastStatus() jobModel.JobStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saved) == 0 {
		return ""
	}
	return m.saved[len(m.saved)-1].Status
}

func TestWorkerPool_Flow(t *testing.T) {
	jobStore := &MockJobStore{}
	jobSvc := &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          jobStore,
	}
	mockRag := &MockRagService{}
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	InitServices(jobSvc, mockRag)
	InitWorkerPool(stopChan, wg)

	// Reset global state for test
	atomic.StoreInt64(&currentWorkerCount, 0)

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true

		time.Sleep(50 * time.Millisecond)

		count := atomic.LoadInt64(&currentWorkerCount)
		if count < 1 {
			t.Errorf("Expected at least 1 worker, got %d", count)
		}
	})

	t.Run("Worker routes query jobs", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "q-1", JobType: jobModel.JobTypeQuery}

		time.Sleep(50 * time.Millisecond)

		if atomic.LoadInt32(&mockRag.QueryCount) != 1 {
			t.Errorf("Expected 1 query processed, got %d", mockRag.QueryCount)
		}
		if jobStore.lastStatus() != jobModel.JobStatusComplete {
			t.Errorf("final job state got %s, want complete", jobStore.lastStatus())
		}
	})

	t.Run("Worker routes ingest jobs", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "i-1", JobType: jobModel.JobTypeIngest}

		time.Sleep(50 * time.Millisecond)

		if atomic.LoadInt32(&mockRag.IngestCount) != 1 {
			t.Errorf("Expected 1 ingest processed, got %d", mockRag.IngestCount)
		}
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_FailedJobKeepsErrorStatus(t *testing.T) {
	jobStore := &MockJobStore{}
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job, 1),
		JobStore:   jobStore,
	}
	logger = logger_i.NewLogger("TestWorkerPool")

	failing := &failingRagService{}
	InitServices(jobSvc, failing)

	executeJob(jobModel.Job{Id: "bad-1", JobType: jobModel.JobTypeQuery})

	if jobStore.lastStatus() != jobModel.JobStatusError {
		t.Errorf("failed job saved with status %s, want error", jobStore.lastStatus())
	}
}

type failingRagService struct{}

func (f *failingRagService) ProcessQuery(ctx context.Context, j jobModel.Job) jobModel.Job {
	j.Status = jobModel.JobStatusError
	return j
}

func (f *failingRagService) IngestFile(ctx context.Context, j jobModel.Job) jobModel.Job {
	j.Status = jobModel.JobStatusError
	return j
}

func TestWorker_IdleTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the idle timeout")
	}
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 0)
	logger = logger_i.NewLogger("TestWorkerPool")
	jobSvc := &job.Service{
		JobChannel: make(chan jobModel.Job),
	}
	InitServices(jobSvc, &MockRagService{})

	wg := &sync.WaitGroup{}
	stopChan := make(chan bool)
	workerWaitGroup = wg
	stopWorkerChannel = stopChan

	createWorker()
	time.Sleep(config.IdleWorkerTimeout)
	time.Sleep(100 * time.Millisecond)

	count := atomic.LoadInt64(&currentWorkerCount)
	if count != 0 {
		t.Errorf("Worker should have timed out and retired, count is %d", count)
	}
}
