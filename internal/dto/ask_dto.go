package dto

// TurnDTO is one prior exchange of the conversation, oldest first.
type TurnDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type AskOptions struct {
	// QueryFanout expands the query into keyword sub-queries before
	// retrieval. Off by default; costs one extra model call.
	QueryFanout bool `json:"query_fanout"`
}

type AskRequest struct {
	Query    string     `json:"query" validate:"required"`
	TenantID string     `json:"tenant_id" validate:"required"`
	History  []TurnDTO  `json:"history" validate:"dive"`
	Options  AskOptions `json:"options"`
}
