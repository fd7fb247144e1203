package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/akolanti/FlashRAG/internal/adapter"
	"github.com/akolanti/FlashRAG/internal/adapter/utils"
	"github.com/akolanti/FlashRAG/internal/api"
	"github.com/akolanti/FlashRAG/internal/config"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logRH.Error("Error encoding response", "error", err)
	}
}

func adapterResponse(job jobModel.Job) api.JobResponse {
	return adapter.ToAPIResponse(job)
}

func getURLParam(r *http.Request, key string) string {
	return utils.GetChiURLParam(r, key)
}

func traceIdFrom(r *http.Request) string {
	if v, ok := r.Context().Value(config.TRACE_ID_KEY).(string); ok {
		return v
	}
	return ""
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logRH.Warn("context cancelled")
		return false
	default:
		return true
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

func getTargetDirectory() (string, string) {
	root, err := os.Getwd()
	if err != nil {
		return "", "Storage Error"
	}

	targetDir := filepath.Join(root, "temporary_data")
	if err := os.MkdirAll(targetDir, 0750); err != nil {
		return "", "Storage Error"
	}
	return targetDir, ""
}

func queueQueryJob(request *http.Request, w http.ResponseWriter, requestData api.QueryRequest) {
	newJob := newJobData{
		id:       utils.GetNewUUID(),
		question: requestData.Question,
		topK:     requestData.TopK,
		filter:   requestData.Filter,
		traceId:  traceIdFrom(request),
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

func queueIngestJob(request *http.Request, w http.ResponseWriter, fileName string, filePath string) {
	newJob := newJobData{
		id:           utils.GetNewUUID(),
		traceId:      traceIdFrom(request),
		isFileIngest: true,
		fileName:     fileName,
		filePath:     filePath,
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}
