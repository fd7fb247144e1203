package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/FlashRAG/internal/api"
	"github.com/akolanti/FlashRAG/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status: string(job.Status),
	}
	if job.JobType == jobModel.JobTypeIngest {
		result.IngestResponse = toIngestResponse(job.JobPayload)
	} else {
		result.QueryResponse = toQueryResponse(job.JobPayload)
	}

	return api.JobResponse{
		Id:        job.Id,
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

func toQueryResponse(payload jobModel.JobPayload) *api.QueryResponse {
	if payload.Question == "" && len(payload.Results) == 0 {
		return nil
	}
	return &api.QueryResponse{
		Question: payload.Question,
		Results:  payload.Results,
	}
}

func toIngestResponse(payload jobModel.JobPayload) *api.IngestResponse {
	if payload.Report == nil {
		return nil
	}
	return &api.IngestResponse{Report: payload.Report}
}

func BadRequest(id string, message string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: message,
			Retry:   false,
		},
	}
}
