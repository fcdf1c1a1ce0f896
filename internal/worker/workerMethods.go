package worker

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	jobmodel "github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/internal/pipeline"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.JobExecutionTimeout)
	defer cancel()
	logger.With("trace Id ", job.TraceId)
	logger.Debug("Processing job:", "job Id:", job.Id)

	saveJobState(ctx, job, jobmodel.JobStatusRunning)

	var err error
	if job.JobType == jobmodel.JobTypeReprocess {
		err = _pipelineService.Reprocess(ctx, job.DocumentId)
	} else {
		err = _pipelineService.Process(ctx, job.DocumentId)
	}

	job.EndTime = time.Now()
	if err != nil {
		job.CurrentStep = jobmodel.Error
		job.Error = toJobError(err)
		saveJobState(ctx, job, jobmodel.JobStatusError)
		return
	}
	job.CurrentStep = jobmodel.Complete
	saveJobState(ctx, job, jobmodel.JobStatusComplete)
}

func removeWorker(reason string) {

	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()

}

// toJobError keeps the public job record free of internal error text except
// for pipeline failures the caller can act on.
func toJobError(err error) jobmodel.JobError {
	switch {
	case errors.Is(err, pipeline.ErrDocumentNotFound):
		return jobmodel.JobError{Code: http.StatusNotFound, Message: "Document not found", Retry: false}
	case errors.Is(err, pipeline.ErrAlreadyProcessing):
		return jobmodel.JobError{Code: http.StatusConflict, Message: "Document is already being processed", Retry: true}
	default:
		return jobmodel.JobError{Code: http.StatusInternalServerError, Message: "Processing failed", Retry: true}
	}
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update status in Redis", "err", err)
	}
}
