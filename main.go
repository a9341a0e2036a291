package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"screener/api"
	"screener/config"
	"screener/database"
	"screener/middleware"
	"screener/models"
	"screener/repository"
	"screener/services"

	"gorm.io/gorm"
)

func main() {
	config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	responseRepo, closeRepo := openResponseRepository(ctx)
	defer closeRepo()
	log.Println("INFO: [Main] Response repository initialized.")

	qcfg := config.AppConfig.Questionnaire
	bank := services.NewStaticQuestionBank(qcfg.Sections, qcfg.QuestionsPerSection, qcfg.Questions)

	// Completion callbacks of submissions are delivered on this loop.
	foreground := services.NewSerialExecutor(64)
	go foreground.Run(ctx)
	defer foreground.Stop()

	sessionManager := services.NewSessionManager(qcfg, bank, responseRepo, services.GoExecutor{}, foreground)
	responseService := services.NewResponseService(qcfg, bank, responseRepo)
	log.Println("INFO: [Main] Services initialized.")

	apiHandler := api.NewAPIHandler(sessionManager, responseService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies(nil)
	r.Use(middleware.Logger())
	r.Use(middleware.Cors())
	api.RegisterRoutes(r, apiHandler)
	log.Println("INFO: [Main] Routes registered.")

	serverPort := ":" + config.AppConfig.Server.Port
	if config.AppConfig.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

// openResponseRepository picks the storage backend named by database.driver.
func openResponseRepository(ctx context.Context) (repository.ResponseRepository, func()) {
	switch config.AppConfig.Database.Driver {
	case "memory":
		log.Println("INFO: [Main] Using in-memory response storage; data is lost on restart.")
		return repository.NewMemoryResponseRepository(), func() {}
	case "postgres":
		repo, err := repository.NewPGResponseRepository(ctx, config.AppConfig.Database.DSN)
		if err != nil {
			log.Fatalf("FATAL: [Main] Failed to initialize postgres storage: %v", err)
		}
		return repo, repo.Close
	case "sqlite":
		db, err := database.Init()
		if err != nil {
			log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
		}
		runMigrations(db)
		return repository.NewResponseRepository(db), func() {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
	default:
		log.Fatalf("FATAL: [Main] Unknown database driver '%s' (want sqlite, postgres or memory).", config.AppConfig.Database.Driver)
		return nil, nil
	}
}

func runMigrations(db *gorm.DB) {
	log.Println("INFO: [Main] Running database migrations...")
	if err := db.AutoMigrate(&models.ResponseRecord{}); err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	log.Println("INFO: [Main] Database migration completed.")
}
