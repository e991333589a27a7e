package dto

import "github.com/google/uuid"

// IngestDocumentRequest submits one content item for indexing. Chunking
// and embedding happen asynchronously.
type IngestDocumentRequest struct {
	CanonicalID  string                 `json:"canonical_id" validate:"required"`
	URL          string                 `json:"url"`
	Name         string                 `json:"name" validate:"required"`
	Content      string                 `json:"content" validate:"required"`
	SchemaObject map[string]interface{} `json:"schema_object"`
}

type IngestDocumentResponse struct {
	Accepted bool `json:"accepted"`
}

// IngestDocumentMessage is the queue payload handed to the ingest worker.
type IngestDocumentMessage struct {
	TenantId     uuid.UUID              `json:"tenant_id"`
	CanonicalID  string                 `json:"canonical_id"`
	URL          string                 `json:"url"`
	Name         string                 `json:"name"`
	Content      string                 `json:"content"`
	SchemaObject map[string]interface{} `json:"schema_object"`
}

// ArchiveAskMessage is the queue payload for persisting a finished
// request's log row.
type ArchiveAskMessage struct {
	TenantId     uuid.UUID `json:"tenant_id"`
	RequestId    string    `json:"request_id"`
	Query        string    `json:"query"`
	Tool         string    `json:"tool"`
	Status       string    `json:"status"`
	Degradations []string  `json:"degradations"`
	ResultCount  int       `json:"result_count"`
	DurationMs   int64     `json:"duration_ms"`
}
