package catalog

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"asksite-be/internal/pkg/logger"
	"asksite-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Catalog resolves tool sets and prompt templates per tenant, falling
// back to compiled-in defaults when the tenant has no rows. Lookups are
// cached in memory to keep the pipeline hot path off the database.
type Catalog struct {
	repo   contract.CatalogRepository
	cache  *cache.Cache
	logger logger.ILogger
}

func NewCatalog(repo contract.CatalogRepository, log logger.ILogger) *Catalog {
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &Catalog{
		repo:   repo,
		cache:  c,
		logger: log,
	}
}

// Tools returns the enabled tool set for a tenant in presentation order.
func (c *Catalog) Tools(ctx context.Context, tenantId uuid.UUID) ([]ToolDefault, error) {
	key := "tools:" + tenantId.String()
	if x, found := c.cache.Get(key); found {
		return x.([]ToolDefault), nil
	}

	rows, err := c.repo.FindTools(ctx, tenantId)
	if err != nil {
		c.logger.Warn("catalog", "tool lookup failed, using defaults", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"error":     err.Error(),
		})
		return DefaultTools, nil
	}

	tools := DefaultTools
	if len(rows) > 0 {
		disabled := make(map[string]bool)
		described := make(map[string]string)
		for _, row := range rows {
			if !row.Enabled {
				disabled[row.Key] = true
			}
			if row.Description != "" {
				described[row.Key] = row.Description
			}
		}
		tools = make([]ToolDefault, 0, len(DefaultTools))
		for _, t := range DefaultTools {
			if disabled[t.Key] {
				continue
			}
			if d, ok := described[t.Key]; ok {
				t.Description = d
			}
			tools = append(tools, t)
		}
	}

	c.cache.Set(key, tools, cache.DefaultExpiration)
	return tools, nil
}

// Prompt renders the template for key with the given data, preferring a
// tenant override over the compiled-in default.
func (c *Catalog) Prompt(ctx context.Context, tenantId uuid.UUID, key string, data interface{}) (string, error) {
	text := c.promptTemplate(ctx, tenantId, key)
	if text == "" {
		return "", fmt.Errorf("unknown prompt template: %s", key)
	}

	tmpl, err := template.New(key).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse prompt template %s: %w", key, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template %s: %w", key, err)
	}
	return buf.String(), nil
}

func (c *Catalog) promptTemplate(ctx context.Context, tenantId uuid.UUID, key string) string {
	cacheKey := "prompt:" + tenantId.String() + ":" + key
	if x, found := c.cache.Get(cacheKey); found {
		return x.(string)
	}

	text := DefaultPrompts[key]
	row, err := c.repo.FindPrompt(ctx, tenantId, key)
	if err != nil {
		c.logger.Warn("catalog", "prompt lookup failed, using default", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"key":       key,
			"error":     err.Error(),
		})
		return text
	}
	if row != nil && row.Template != "" {
		text = row.Template
	}

	c.cache.Set(cacheKey, text, cache.DefaultExpiration)
	return text
}

// Invalidate drops all cached rows for a tenant.
func (c *Catalog) Invalidate(tenantId uuid.UUID) {
	c.cache.Delete("tools:" + tenantId.String())
	for key := range DefaultPrompts {
		c.cache.Delete("prompt:" + tenantId.String() + ":" + key)
	}
}
