package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/akolanti/DocQA/internal/adapter"
	"github.com/akolanti/DocQA/internal/adapter/utils"
	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/data/store"
	"github.com/akolanti/DocQA/internal/pipeline"
	"github.com/akolanti/DocQA/internal/rag/qa"
)

// decodeBody reads a JSON request body into target and always closes it.
func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body reader :", err)
		}
	}(r.Body)

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		logRH.Warn("Bad request body", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return false
	}
	return true
}

func writeQAError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, qa.ErrDocumentNotFound):
		WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
	case errors.Is(err, qa.ErrDocumentNotReady):
		WriteErrorResponse(w, http.StatusConflict, id, "Document is not yet processed")
	case errors.Is(err, qa.ErrInvalidRating):
		WriteErrorResponse(w, http.StatusBadRequest, id, "Rating must be between 1 and 5")
	case errors.Is(err, store.ErrInteractionNotFound):
		WriteErrorResponse(w, http.StatusNotFound, id, "Interaction not found")
	default:
		logRH.Error("Request failed", "id", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal error")
	}
}

func writePipelineError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, pipeline.ErrDocumentNotFound):
		WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
	case errors.Is(err, pipeline.ErrAlreadyProcessing):
		WriteErrorResponse(w, http.StatusConflict, id, "Document is already being processed")
	default:
		logRH.Error("Request failed", "id", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal error")
	}
}

// AskHandler godoc
// @Summary      Ask a question about a document
// @Description  Runs retrieval over the document's chunks and answers with cited sources and a confidence score.
// @Tags         QA
// @Accept       json
// @Produce      json
// @Param        id       path      string          true  "Document ID"
// @Param        request  body      api.AskRequest  true  "The question"
// @Success      200      {object}  api.AnswerResponse
// @Failure      400      {object}  api.JobResponse "Empty question"
// @Failure      404      {object}  api.JobResponse "Document not found"
// @Failure      409      {object}  api.JobResponse "Document not yet processed"
// @Router       /documents/{id}/ask [post]
func AskHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")

		var requestData api.AskRequest
		if !decodeBody(w, r, &requestData) {
			return
		}
		if strings.TrimSpace(requestData.Question) == "" {
			WriteErrorResponse(w, http.StatusBadRequest, documentId, "question is required")
			return
		}

		opts := qa.AskOptions{MaxChunks: requestData.MaxChunks, ContextWindow: requestData.ContextWindow}
		answer, err := handlerInstance.qaService.Ask(r.Context(), documentId, requestData.Question, opts)
		if err != nil {
			writeQAError(w, documentId, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToAnswerResponse(answer))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// SummaryHandler godoc
// @Summary      Summarize a document
// @Description  Generates a brief, comprehensive or key_points summary from the document's chunks.
// @Tags         QA
// @Accept       json
// @Produce      json
// @Param        id       path      string              true   "Document ID"
// @Param        request  body      api.SummaryRequest  false  "Summary type and length"
// @Success      200      {object}  api.SummaryResponse
// @Failure      404      {object}  api.JobResponse "Document not found"
// @Failure      409      {object}  api.JobResponse "Document not yet processed"
// @Router       /documents/{id}/summary [post]
func SummaryHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")

		var requestData api.SummaryRequest
		if !decodeBody(w, r, &requestData) {
			return
		}
		summaryType := qa.SummaryType(requestData.SummaryType)
		if summaryType == "" {
			summaryType = qa.SummaryComprehensive
		}

		summary, err := handlerInstance.qaService.Summarize(r.Context(), documentId, summaryType, requestData.MaxLength)
		if err != nil {
			writeQAError(w, documentId, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToSummaryResponse(documentId, summary, string(summaryType)))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// ConceptsHandler godoc
// @Summary      Extract key concepts
// @Description  Pulls the main concepts out of a processed document with short descriptions and importance scores.
// @Tags         QA
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.ConceptsResponse
// @Failure      404  {object}  api.JobResponse "Document not found"
// @Failure      409  {object}  api.JobResponse "Document not yet processed"
// @Router       /documents/{id}/concepts [post]
func ConceptsHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")

		concepts, err := handlerInstance.qaService.ExtractConcepts(r.Context(), documentId, 0)
		if err != nil {
			writeQAError(w, documentId, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToConceptsResponse(documentId, concepts))
	}
}

// SearchHandler godoc
// @Summary      Search passages
// @Description  Runs semantic search over a document's chunks and returns the matching passages with scores.
// @Tags         QA
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Document ID"
// @Param        request  body      api.SearchRequest  true  "Query, optional max results and threshold"
// @Success      200      {object}  api.SearchResponse
// @Failure      400      {object}  api.JobResponse "Empty query"
// @Failure      404      {object}  api.JobResponse "Document not found"
// @Router       /documents/{id}/search [post]
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")

		var requestData api.SearchRequest
		if !decodeBody(w, r, &requestData) {
			return
		}
		if strings.TrimSpace(requestData.Query) == "" {
			WriteErrorResponse(w, http.StatusBadRequest, documentId, "query is required")
			return
		}

		passages, err := handlerInstance.qaService.SearchPassages(r.Context(), documentId, requestData.Query, requestData.MaxResults, requestData.Threshold)
		if err != nil {
			writeQAError(w, documentId, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToSearchResponse(documentId, requestData.Query, passages))
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}

// HistoryHandler godoc
// @Summary      Get question history
// @Description  Lists the most recent question and answer interactions for a document, oldest first within the returned window.
// @Tags         QA
// @Produce      json
// @Param        id     path      string  true   "Document ID"
// @Param        limit  query     int     false  "Max interactions to return"
// @Success      200    {object}  api.HistoryResponse
// @Failure      404    {object}  api.JobResponse "Document not found"
// @Router       /documents/{id}/history [get]
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		documentId := utils.GetChiURLParam(r, "id")

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				WriteErrorResponse(w, http.StatusBadRequest, documentId, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		interactions, err := handlerInstance.qaService.History(r.Context(), documentId, limit)
		if err != nil {
			writeQAError(w, documentId, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(documentId, interactions))
	}
}

// RatingHandler godoc
// @Summary      Rate an answer
// @Description  Attaches a 1 to 5 rating and optional feedback to a previously returned answer.
// @Tags         QA
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Interaction ID"
// @Param        request  body      api.RatingRequest  true  "Rating and optional feedback"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  api.JobResponse "Rating out of range"
// @Failure      404      {object}  api.JobResponse "Interaction not found"
// @Router       /interactions/{id}/rating [post]
func RatingHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		interactionId := utils.GetChiURLParam(r, "id")

		var requestData api.RatingRequest
		if !decodeBody(w, r, &requestData) {
			return
		}

		err := handlerInstance.qaService.RateAnswer(r.Context(), interactionId, requestData.Rating, requestData.Feedback)
		if err != nil {
			writeQAError(w, interactionId, err)
			return
		}
		writeJsonResponse(w, http.StatusOK, map[string]string{"id": interactionId, "status": "rated"})
		return
	}
	logRH.Warn("Invalid Context by request ", r.RemoteAddr)
}
