package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/FlashRAG/internal/api"
	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/cardModel"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
	"github.com/akolanti/FlashRAG/internal/job"
	"github.com/akolanti/FlashRAG/internal/metrics"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

func CreateNewJob(newJob newJobData) {
	logJH.Info("Creating new job", "traceId", newJob.traceId, "jobId", newJob.id)
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

func ValidateQueryRequest(queryReq api.QueryRequest) bool {
	if handlerInstance == nil {
		return false
	}
	return queryReq.Question != ""
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {

	_job := jobModel.Job{}
	_job.Id = newJob.id
	_job.CreatedTime = time.Now()
	_job.TraceId = newJob.traceId
	_job.Status = jobModel.JobStatusQueued

	if newJob.isFileIngest {
		_job.CurrentStep = jobModel.IngestInit
		_job.JobType = jobModel.JobTypeIngest
		_job.JobPayload.IngestFileName = newJob.fileName
		_job.JobPayload.IngestURL = newJob.filePath

	} else {
		_job.JobType = jobModel.JobTypeQuery
		_job.CurrentStep = jobModel.QueryInit
		_job.JobPayload.Question = newJob.question
		_job.JobPayload.TopK = newJob.topK
		_job.JobPayload.Filter = cardModel.Filter(newJob.filter)
	}

	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send so the queue applies backpressure

	// a new worker is added every N requests and for every ingest job,
	// since ingestion is long batch work against external services.
	// Idle workers retire on their own, so the pool shrinks back.
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || _job.JobType == jobModel.JobTypeIngest {
		metrics.StartDispatcherSignalCount()
		h.service.DispatcherChannel <- true
	}
}
