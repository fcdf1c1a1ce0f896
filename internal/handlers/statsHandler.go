package handlers

import (
	"net/http"

	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/config"
)

// StatsHandler godoc
// @Summary      Corpus statistics
// @Description  Reports document counts by status plus aggregate vector index totals.
// @Tags         Stats
// @Produce      json
// @Success      200  {object}  api.StatsResponse
// @Router       /stats [get]
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r.Context()) {
		docs, err := handlerInstance.documents.ListDocuments(r.Context())
		if err != nil {
			logRH.Error("Couldn't list documents", "error", err)
			WriteErrorResponse(w, http.StatusInternalServerError, "", "Internal error")
			return
		}

		byStatus := make(map[string]int)
		for _, doc := range docs {
			byStatus[string(doc.ProcessingStatus)]++
		}

		indexedDocs, indexedVectors, err := handlerInstance.index.AggregateStats()
		if err != nil {
			logRH.Warn("Couldn't read index stats", "error", err)
		}

		writeJsonResponse(w, http.StatusOK, api.StatsResponse{
			TotalDocuments:     len(docs),
			DocumentsByStatus:  byStatus,
			IndexedDocuments:   indexedDocs,
			IndexedVectors:     indexedVectors,
			EmbeddingBackend:   handlerInstance.embedderName,
			EmbeddingDimension: config.EmbeddingDimension,
		})
	}
}
