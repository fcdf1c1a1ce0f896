package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/DocQA/internal/api"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/internal/domain/jobModel"
	"github.com/akolanti/DocQA/internal/rag/qa"
)

func ToInitJobResponse(id string, documentId string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:         id,
		DocumentId: documentId,
		StatusURL:  fmt.Sprintf("status/%s", id), //pass "status/job.Id"
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
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
	}

	return api.JobResponse{
		Id:         job.Id,
		DocumentId: job.DocumentId,
		StartTime:  job.CreatedTime,
		EndTime:    job.EndTime,
		Error:      errorPtr,
		Result:     result,
	}
}

func ToDocumentResponse(doc docModel.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:               doc.Id,
		Title:            doc.Title,
		FileName:         doc.FileName,
		FileType:         doc.FileType,
		FileSize:         doc.FileSize,
		ProcessingStatus: string(doc.ProcessingStatus),
		ErrorMessage:     doc.ErrorMessage,
		ChunkCount:       doc.ChunkCount,
		CreatedAt:        doc.CreatedAt,
		ProcessedAt:      doc.ProcessedAt,
	}
}

func ToAnswerResponse(answer qa.Answer) api.AnswerResponse {
	sources := make([]api.SourceResponse, len(answer.Sources))
	for i, src := range answer.Sources {
		sources[i] = api.SourceResponse{
			ChunkId:        src.ChunkId,
			PageNumber:     src.PageNumber,
			ContentPreview: src.ContentPreview,
			RelevanceScore: src.RelevanceScore,
		}
	}
	return api.AnswerResponse{
		InteractionId:   answer.InteractionId,
		DocumentId:      answer.DocumentId,
		Answer:          answer.Answer,
		ConfidenceScore: answer.ConfidenceScore,
		Sources:         sources,
		ChunksUsed:      answer.ChunksUsed,
		ProcessingTime:  answer.ProcessingTime,
	}
}

func ToSummaryResponse(documentId string, summary string, summaryType string) api.SummaryResponse {
	return api.SummaryResponse{
		DocumentId:  documentId,
		Summary:     summary,
		SummaryType: summaryType,
		GeneratedAt: time.Now().UTC(),
	}
}

func ToConceptsResponse(documentId string, concepts []qa.Concept) api.ConceptsResponse {
	out := make([]api.ConceptResponse, len(concepts))
	for i, c := range concepts {
		out[i] = api.ConceptResponse{
			Concept:     c.Concept,
			Description: c.Description,
			Importance:  c.Importance,
		}
	}
	return api.ConceptsResponse{
		DocumentId:  documentId,
		KeyConcepts: out,
		GeneratedAt: time.Now().UTC(),
	}
}

func ToSearchResponse(documentId string, query string, passages []qa.Passage) api.SearchResponse {
	out := make([]api.PassageResponse, len(passages))
	for i, p := range passages {
		out[i] = api.PassageResponse{
			Content:        p.Content,
			Preview:        p.Preview,
			PageNumber:     p.PageNumber,
			ChunkIndex:     p.ChunkIndex,
			RelevanceScore: p.RelevanceScore,
		}
	}
	return api.SearchResponse{
		Query:      query,
		DocumentId: documentId,
		Passages:   out,
		TotalFound: len(out),
	}
}

func ToHistoryResponse(documentId string, interactions []docModel.QAInteraction) api.HistoryResponse {
	out := make([]api.InteractionResponse, len(interactions))
	for i, interaction := range interactions {
		out[i] = api.InteractionResponse{
			Id:              interaction.Id,
			Question:        interaction.Question,
			Answer:          interaction.Answer,
			ConfidenceScore: interaction.ConfidenceScore,
			ChunksUsed:      interaction.ChunksUsed,
			ProcessingTime:  interaction.ProcessingTime,
			UserRating:      interaction.UserRating,
			CreatedAt:       interaction.CreatedAt,
		}
	}
	return api.HistoryResponse{DocumentId: documentId, Interactions: out}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
