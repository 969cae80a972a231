package main

import (
	"context"
	"log"

	"flowcast/adapters/postgres"
	"flowcast/app"
	"flowcast/internal/config"
	"flowcast/internal/migration"
	"flowcast/ui"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.NewRunner().Run(context.Background(), db); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}

	postRepo := postgres.NewPostRepository(db)
	sessionRepo := postgres.NewFlowSessionRepository(db)
	flowService := app.NewFlowService(postRepo, sessionRepo, appConfig.Flow.PostLimit)

	server := ui.NewServer(flowService)
	log.Printf("Starting Flowcast API on port %s", appConfig.Server.Port)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
