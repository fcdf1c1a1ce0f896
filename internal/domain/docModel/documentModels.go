package docModel

import (
	"context"
	"time"
)

type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Document is the logical record for one uploaded file. Only the processing
// pipeline mutates it; the QA side treats it as read-only.
type Document struct {
	Id               string           `json:"id"`
	Title            string           `json:"title"`
	FileName         string           `json:"file_name"`
	FileType         string           `json:"file_type"` //MIME type as declared at upload
	FileSize         int64            `json:"file_size"`
	FilePath         string           `json:"file_path,omitempty"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	ChunkCount       int              `json:"chunk_count"`
	CreatedAt        time.Time        `json:"created_at"`
	ProcessedAt      time.Time        `json:"processed_at,omitempty"`
}

// Chunk is one page-tagged slice of a document's extracted text. Chunks for a
// document are totally ordered by ChunkIndex with no gaps.
type Chunk struct {
	Id         string `json:"chunk_id"`
	DocumentId string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
	TokenCount int    `json:"token_count"`
	PageNumber int    `json:"page_number"`
}

// QAInteraction records one answered question. Immutable after creation
// except for the user rating.
type QAInteraction struct {
	Id              string    `json:"id"`
	DocumentId      string    `json:"document_id"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	ConfidenceScore float32   `json:"confidence_score"`
	ChunksUsed      int       `json:"chunks_used"`
	ProcessingTime  float64   `json:"processing_time"` //seconds
	UserRating      int       `json:"user_rating,omitempty"`
	Feedback        string    `json:"feedback,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type DocumentStore interface {
	SaveDocument(ctx context.Context, doc Document) error
	GetDocument(ctx context.Context, documentId string) (Document, bool)
	ListDocuments(ctx context.Context) ([]Document, error)
	DeleteDocument(ctx context.Context, documentId string) error
	SaveChunks(ctx context.Context, documentId string, chunks []Chunk) error
	GetChunks(ctx context.Context, documentId string) ([]Chunk, error)
	DeleteChunks(ctx context.Context, documentId string) error
}

type InteractionStore interface {
	SaveInteraction(ctx context.Context, interaction QAInteraction) error
	ListInteractions(ctx context.Context, documentId string, limit int) ([]QAInteraction, error)
	UpdateRating(ctx context.Context, interactionId string, rating int, feedback string) error
}
