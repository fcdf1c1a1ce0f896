package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id         string            `json:"id" example:"job_cz109"`
	DocumentId string            `json:"document_id,omitempty" example:"doc_550"`
	Result     Result            `json:"result"`
	Error      *JobOutgoingError `json:"error,omitempty"`
	StartTime  time.Time         `json:"start_time"`
	EndTime    time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type Result struct {
	Status      string `json:"status"`
	CurrentStep string `json:"current_step,omitempty"`
}

type InitJobResponse struct {
	Id         string `json:"id"`
	DocumentId string `json:"document_id"`
	StatusURL  string `json:"status_url"`
}

type DocumentResponse struct {
	Id               string    `json:"id"`
	Title            string    `json:"title"`
	FileName         string    `json:"file_name"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	ProcessingStatus string    `json:"processing_status"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	ChunkCount       int       `json:"chunk_count"`
	CreatedAt        time.Time `json:"created_at"`
	ProcessedAt      time.Time `json:"processed_at,omitempty"`
}

type SourceResponse struct {
	ChunkId        string  `json:"chunk_id"`
	PageNumber     int     `json:"page_number"`
	ContentPreview string  `json:"content_preview"`
	RelevanceScore float32 `json:"relevance_score"`
}

type AnswerResponse struct {
	InteractionId   string           `json:"interaction_id"`
	DocumentId      string           `json:"document_id"`
	Answer          string           `json:"answer"`
	ConfidenceScore float32          `json:"confidence_score"`
	Sources         []SourceResponse `json:"sources"`
	ChunksUsed      int              `json:"chunks_used"`
	ProcessingTime  float64          `json:"processing_time"`
}

type SummaryResponse struct {
	DocumentId  string    `json:"document_id"`
	Summary     string    `json:"summary"`
	SummaryType string    `json:"summary_type"`
	GeneratedAt time.Time `json:"generated_at"`
}

type ConceptResponse struct {
	Concept     string  `json:"concept"`
	Description string  `json:"description"`
	Importance  float64 `json:"importance"`
}

type ConceptsResponse struct {
	DocumentId  string            `json:"document_id"`
	KeyConcepts []ConceptResponse `json:"key_concepts"`
	GeneratedAt time.Time         `json:"generated_at"`
}

type PassageResponse struct {
	Content        string  `json:"content"`
	Preview        string  `json:"preview"`
	PageNumber     int     `json:"page_number"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float32 `json:"relevance_score"`
}

type SearchResponse struct {
	Query      string            `json:"query"`
	DocumentId string            `json:"document_id"`
	Passages   []PassageResponse `json:"passages"`
	TotalFound int               `json:"total_found"`
}

type InteractionResponse struct {
	Id              string    `json:"id"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	ConfidenceScore float32   `json:"confidence_score"`
	ChunksUsed      int       `json:"chunks_used"`
	ProcessingTime  float64   `json:"processing_time"`
	UserRating      int       `json:"user_rating,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type HistoryResponse struct {
	DocumentId   string                `json:"document_id"`
	Interactions []InteractionResponse `json:"interactions"`
}

type StatsResponse struct {
	TotalDocuments     int            `json:"total_documents"`
	DocumentsByStatus  map[string]int `json:"documents_by_status"`
	IndexedDocuments   int            `json:"indexed_documents"`
	IndexedVectors     int            `json:"indexed_vectors"`
	EmbeddingBackend   string         `json:"embedding_backend"`
	EmbeddingDimension int            `json:"embedding_dimension"`
}

// requests---------------------

type AskRequest struct {
	Question      string `json:"question" validate:"required"`
	MaxChunks     int    `json:"max_chunks,omitempty" example:"5"`
	ContextWindow int    `json:"context_window,omitempty" example:"4000"`
}

type SummaryRequest struct {
	SummaryType string `json:"summary_type,omitempty" example:"comprehensive"`
	MaxLength   int    `json:"max_length,omitempty" example:"500"`
}

type SearchRequest struct {
	Query      string  `json:"query" validate:"required"`
	MaxResults int     `json:"max_results,omitempty" example:"10"`
	Threshold  float32 `json:"threshold,omitempty" example:"0.7"`
}

type RatingRequest struct {
	Rating   int    `json:"rating" validate:"required" example:"4"`
	Feedback string `json:"feedback,omitempty"`
}

type JobStatusRequest struct {
	JobId string `json:"job_id" validate:"required"`
}
