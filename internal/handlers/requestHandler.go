package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/FlashRAG/internal/api"
	"github.com/akolanti/FlashRAG/pkg/logger_i"
)

var logRH *logger_i.Logger

type newJobData struct {
	id           string
	question     string
	topK         int
	filter       map[string]any
	traceId      string
	isFileIngest bool
	fileName     string
	filePath     string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// QueryHandler accepts a question, queues a retrieval job and returns the
// job id for status polling.
func QueryHandler(w http.ResponseWriter, request *http.Request) {

	if validateContext(request.Context()) {

		var requestData api.QueryRequest
		defer func(Body io.ReadCloser) {
			if err := Body.Close(); err != nil {
				logRH.Error("Couldn't close the query handler reader", "error", err)
			}
		}(request.Body)
		if err := json.NewDecoder(request.Body).Decode(&requestData); err != nil || !ValidateQueryRequest(requestData) {
			logRH.Warn("Bad Query Request", "error", err)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
			return
		}

		queueQueryJob(request, w, requestData)
		return
	}
	logRH.Warn("Invalid Context by request ", request.RemoteAddr)
}

// PostIngestHandler receives a flashcard export via multipart/form-data,
// saves it to a temporary directory and queues an ingestion job. The
// original filename is kept as the source_file identity so re-uploading
// the same export overwrites its chunks instead of duplicating them.
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
			return
		}

		const maxUploadSize = 32 << 20 //32mb
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		fileReader, fileMetadata, err := r.FormFile("file")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		sourceName := r.FormValue("file_name")
		if sourceName == "" {
			sourceName = fileMetadata.Filename
		}

		tempName := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
		tempFilePath := filepath.Join(targetDir, tempName)
		destinationFileWriter, err := os.Create(tempFilePath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, sourceName, "Storage error")
			return
		}
		defer destinationFileWriter.Close()

		if _, err := io.Copy(destinationFileWriter, fileReader); err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, sourceName, "Write error")
			return
		}

		queueIngestJob(r, w, sourceName, tempFilePath)
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// GetStatusHandler retrieves the current state of a job by id.
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		idString := getURLParam(r, "id")
		result, isFound := validateId(idString, traceIdFrom(r))

		logRH.Debug("Get Status Request", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapterResponse(result))
	}
}
