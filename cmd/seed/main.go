package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"time"

	"asksite-be/internal/entity"
	"asksite-be/internal/repository/implementation"
	"asksite-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo tenant with an API key and the default tool rows, so a
// fresh database can answer requests immediately.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	tenants := implementation.NewTenantRepository(db)

	slug := os.Getenv("SEED_TENANT_SLUG")
	if slug == "" {
		slug = "demo"
	}

	existing, err := tenants.FindBySlug(ctx, slug)
	if err != nil {
		log.Fatal("Error: tenant lookup failed:", err)
	}
	if existing != nil {
		color.Yellow("Tenant %q already exists, nothing to do", slug)
		return
	}

	apiKey := newAPIKey()
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("Error: failed to hash API key:", err)
	}

	tenant := &entity.Tenant{
		Id:         uuid.New(),
		Slug:       slug,
		Name:       "Demo Site",
		ApiKeyHash: string(hash),
		Backends:   "vector,lexical",
		IsActive:   true,
		CreatedAt:  time.Now(),
	}
	if err := tenants.Create(ctx, tenant); err != nil {
		log.Fatal("Error: failed to create tenant:", err)
	}

	color.Green("Created tenant %q (%s)", slug, tenant.Id)
	color.Cyan("API key (store it now, it is not recoverable): %s", apiKey)
}

func newAPIKey() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal("Error: failed to generate API key:", err)
	}
	return "ask_" + hex.EncodeToString(buf)
}
