package main

import (
	"context"
	"log"

	"flowcast/adapters/postgres"
	"flowcast/app"
	"flowcast/internal/config"
	"flowcast/internal/errors"
	"flowcast/internal/migration"
	"flowcast/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	postRepo := postgres.NewPostRepository(db)
	sessionRepo := postgres.NewFlowSessionRepository(db)
	flowService := app.NewFlowService(postRepo, sessionRepo, appConfig.Flow.PostLimit)

	uiApp, err := ui.NewApp(ui.Config{Port: appConfig.Server.Port}, flowService, postRepo, sessionRepo)
	if err != nil {
		log.Fatalf("Failed to create UI app: %v", err)
	}

	log.Printf("Starting Flowcast on port %s", appConfig.Server.Port)
	log.Fatal(uiApp.Start(":" + appConfig.Server.Port))
}
