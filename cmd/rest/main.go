package main

import (
	"context"
	"log"

	"asksite-be/internal/bootstrap"
	"asksite-be/internal/config"
	"asksite-be/internal/server"
	"asksite-be/internal/tracer"
	"asksite-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Workers
	go func() {
		log.Println("Background: Starting Ingest Worker...")
		if err := container.IngestService.Consume(context.Background()); err != nil {
			log.Printf("Background Ingest Error: %v", err)
		}
	}()
	go func() {
		log.Println("Background: Starting Archive Worker...")
		if err := container.ArchiveService.Consume(context.Background()); err != nil {
			log.Printf("Background Archive Error: %v", err)
		}
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
