package store

import "gorm.io/datatypes"

// Candidate is one retrieved unit of tenant content under consideration
// for the answer. CanonicalID is the dedupe identity across backends.
type Candidate struct {
	CanonicalID   string         `json:"canonical_id"`
	URL           string         `json:"url"`
	Name          string         `json:"name"`
	ContentChunk  string         `json:"content_chunk,omitempty"`
	SchemaObject  datatypes.JSON `json:"schema_object,omitempty"`
	Tenant        string         `json:"tenant"`
	Backend       string         `json:"backend,omitempty"`
	RetrievalRank int            `json:"retrieval_rank"`

	// Ranking output. Score is meaningless until Scored is true; unscored
	// candidates sort after every scored one.
	Score       int    `json:"score"`
	Scored      bool   `json:"scored"`
	Description string `json:"description,omitempty"`
	SendQuery   string `json:"query,omitempty"` // backend-optimized follow-up query
}

// Turn is one prior exchange of the conversation, read-only input to
// decontextualization.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
