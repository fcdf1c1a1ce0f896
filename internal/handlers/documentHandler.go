package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/DocQA/internal/adapter"
	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/rag/extract"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

var logRH *logger_i.Logger

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	return
}

// UploadDocumentHandler godoc
// @Summary      Upload a document
// @Description  Receives a file via multipart/form-data, stages it, records the document as pending, and queues a processing job.
// @Tags         Documents
// @Accept       multipart/form-data
// @Produce      json
// @Param        title     formData  string  false  "Display title, defaults to the file name"
// @Param        document  formData  file    true   "The PDF, DOCX, TXT or Markdown file to upload"
// @Success      202  {object}  api.InitJobResponse  "Accepted, poll the status URL"
// @Failure      400  {object}  api.JobResponse "Bad Request - unsupported type or file too large"
// @Failure      500  {object}  api.JobResponse "Internal Server Error - Storage or Write Error"
// @Router       /documents [post]
func UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {

		targetDir, errString := getTargetDirectory()
		if errString != "" {
			logRH.Error("Couldn't get target directory :", "err", errString)
			WriteErrorResponse(w, http.StatusInternalServerError, "", errString)
			return
		}

		//ParseMultipartForm alone only bounds the in-memory buffer and spills
		//bigger bodies to disk, so the hard cap goes on the body reader
		r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize)
		if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "File too large or bad request")
			return
		}

		fileReader, fileMetadata, err := r.FormFile("document")
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "", "Could not retrieve file")
			return
		}
		defer fileReader.Close()

		title := r.FormValue("title")
		if title == "" {
			title = fileMetadata.Filename
		}

		mimeType := fileMetadata.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = mime.TypeByExtension(filepath.Ext(fileMetadata.Filename))
		}
		if !extract.Supported(mimeType) {
			logRH.Warn("Rejected upload", "fileName", fileMetadata.Filename, "mimeType", mimeType)
			WriteErrorResponse(w, http.StatusBadRequest, "", "Unsupported file type")
			return
		}

		filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), fileMetadata.Filename)
		tempFilePath := filepath.Join(targetDir, filename)
		destinationFileWriter, err := os.Create(tempFilePath)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, title, "Storage error")
			return
		}
		defer destinationFileWriter.Close()

		written, err := io.Copy(destinationFileWriter, fileReader)
		if err != nil {
			WriteErrorResponse(w, http.StatusInternalServerError, title, "Write error")
			return
		}

		doc := docModel.Document{
			Id:               utils.GetNewUUID(),
			Title:            title,
			FileName:         fileMetadata.Filename,
			FileType:         mimeType,
			FileSize:         written,
			FilePath:         tempFilePath,
			ProcessingStatus: docModel.StatusPending,
			CreatedAt:        time.Now().UTC(),
		}

		traceId := r.Context().Value(config.TRACE_ID_KEY).(string)
		if err := handlerInstance.documents.SaveDocument(r.Context(), doc); err != nil {
			logRH.Error("Couldn't record document", "err", err)
			WriteErrorResponse(w, http.StatusInternalServerError, doc.Id, "Storage error")
			return
		}

		jobId := CreateNewJob(doc.Id, jobModel.JobTypeProcess, traceId)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(jobId, doc.Id))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// GetDocumentHandler godoc
// @Summary      Get document metadata
// @Description  Returns the document record including its processing status and chunk count.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.JobResponse "Document not found"
// @Router       /documents/{id} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")
		doc, found := handlerInstance.documents.GetDocument(r.Context(), documentId)
		if !found {
			WriteErrorResponse(w, http.StatusNotFound, documentId, "Document not found")
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
	}
}

// ReprocessHandler godoc
// @Summary      Reprocess a document
// @Description  Queues a fresh extract-chunk-embed-index run for a previously uploaded document.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      202  {object}  api.InitJobResponse "Accepted, poll the status URL"
// @Failure      404  {object}  api.JobResponse "Document not found"
// @Router       /documents/{id}/reprocess [post]
func ReprocessHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")
		if _, found := handlerInstance.documents.GetDocument(r.Context(), documentId); !found {
			WriteErrorResponse(w, http.StatusNotFound, documentId, "Document not found")
			return
		}
		traceId := r.Context().Value(config.TRACE_ID_KEY).(string)
		jobId := CreateNewJob(documentId, jobModel.JobTypeReprocess, traceId)
		writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(jobId, documentId))
	}
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document
// @Description  Removes the document record, its chunks, its vector index and the staged file.
// @Tags         Documents
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  api.JobResponse "Document not found"
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")
		if _, found := handlerInstance.documents.GetDocument(r.Context(), documentId); !found {
			WriteErrorResponse(w, http.StatusNotFound, documentId, "Document not found")
			return
		}
		if err := handlerInstance.pipeline.Delete(r.Context(), documentId); err != nil {
			writePipelineError(w, documentId, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, map[string]string{"id": documentId, "status": "deleted"})
	}
}
