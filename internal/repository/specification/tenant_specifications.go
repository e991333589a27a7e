package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BySlug struct {
	Slug string
}

func (s BySlug) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("slug = ?", s.Slug)
}

type ByTenantID struct {
	TenantID uuid.UUID
}

func (s ByTenantID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ?", s.TenantID)
}

// ByTenantOrGlobal matches tenant-specific rows plus global defaults.
type ByTenantOrGlobal struct {
	TenantID uuid.UUID
}

func (s ByTenantOrGlobal) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("tenant_id = ? OR tenant_id IS NULL", s.TenantID)
}

type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}
