package handlers

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocQA/internal/adapter"
	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/job"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/pipeline"
	"github.com/akolanti/DocQA/internal/rag/qa"
	"github.com/akolanti/DocQA/internal/rag/vectorindex"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service      *job.Service
	documents    docModel.DocumentStore
	qaService    qa.Service
	pipeline     pipeline.Service
	index        *vectorindex.Store
	embedderName string
}

type HandlerConfig struct {
	JobService   *job.Service
	Documents    docModel.DocumentStore
	QAService    qa.Service
	Pipeline     pipeline.Service
	Index        *vectorindex.Store
	EmbedderName string
}

func InitHandlers(cfg HandlerConfig) {
	once.Do(func() {
		handlerInstance = &JobHandler{
			service:      cfg.JobService,
			documents:    cfg.Documents,
			qaService:    cfg.QAService,
			pipeline:     cfg.Pipeline,
			index:        cfg.Index,
			embedderName: cfg.EmbedderName,
		}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting handlers")
	})

}

// CreateNewJob queues document processing and returns the job id to poll.
func CreateNewJob(documentId string, jobType jobModel.JobType, traceId string) string {
	jobId := utils.GetNewUUID()
	logJH.With("traceId", traceId, "job id", jobId)
	logJH.Info("To create new job")
	handlerInstance.pushToJobChannel(jobId, documentId, jobType, traceId)
	return jobId
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(jobId string, documentId string, jobType jobModel.JobType, traceId string) {

	_job := jobModel.Job{}
	_job.Id = jobId
	_job.DocumentId = documentId
	_job.CreatedTime = time.Now()
	_job.TraceId = traceId
	_job.Status = jobModel.JobStatusQueued
	_job.JobType = jobType
	_job.CurrentStep = jobModel.ProcessInit

	//metrics
	metrics.IncrementJobsInQueue()

	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if err := h.service.JobStore.SaveJob(ctxC, _job); err != nil {
		logJH.Error("Failed to record queued job", "err", err)
	}

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new job")

	//document processing involves batch embedding calls which take time,
	//so every queued document nudges the dispatcher; extra workers retire
	//once they sit idle
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1) //after sending a request increment counter
	if accurateCount%config.RequestsPerNewWorkerCount == 0 || jobType == jobModel.JobTypeProcess {
		metrics.StartDispatcherSignalCount() //metrics
		logJH.Debug("Worker count ", accurateCount)
		h.service.DispatcherChannel <- true
	}
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a processing job using its ID.
// @Tags         Job Status
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Job ID "
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		//use chi get the url id
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, r.Context().Value(config.TRACE_ID_KEY).(string))

		logRH.Debug("Get Status Request:", "URL path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}
