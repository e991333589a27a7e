package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Tenant struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Slug       string    // opaque external identifier, unique
	Name       string
	ApiKeyHash string // bcrypt hash of the tenant API key
	Backends   string // retrieval backends in priority order, comma separated
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// BackendNames splits the configured backend list, preserving priority order.
func (t *Tenant) BackendNames() []string {
	if t.Backends == "" {
		return nil
	}
	parts := strings.Split(t.Backends, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
