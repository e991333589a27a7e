package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tenant struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Slug       string         `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name       string         `gorm:"type:varchar(255);not null"`
	ApiKeyHash string         `gorm:"type:varchar(255);not null"`
	Backends   string         `gorm:"type:varchar(255);not null;default:'vector'"`
	IsActive   bool           `gorm:"default:true"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Tenant) TableName() string {
	return "tenants"
}
