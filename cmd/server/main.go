package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"storybook-backend/internal/config"
	"storybook-backend/internal/database"
	"storybook-backend/internal/generation"
	"storybook-backend/internal/handlers"
	"storybook-backend/internal/imagegen"
	"storybook-backend/internal/middleware"
	"storybook-backend/internal/notify"
	"storybook-backend/internal/services"
	"storybook-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	imageClient := imagegen.NewClient(cfg.ImageAPIBaseURL, cfg.ImageAPIKey)

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)
	notifier := notify.NewService(cfg.SlackWebhookURL)

	var dbClient *supabase.DatabaseClient
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set. Database operations and migrations will be skipped.")
	} else {
		dbClient, err = supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize database client: %v", err)
		} else {
			defer dbClient.Close()

			migrator, err := database.NewMigrator(cfg.DatabaseURL)
			if err != nil {
				log.Printf("Warning: Failed to initialize migrator: %v", err)
			} else {
				defer migrator.Close()
				if err := migrator.Run(); err != nil {
					log.Printf("Warning: Migration failed: %v", err)
				} else {
					log.Println("Migrations completed successfully")
				}
			}
		}
	}

	// Services require a working database; handlers guard against nil.
	var (
		sendService       *services.SendService
		pushService       *services.PushService
		reviewService     *services.ReviewService
		generationService *services.GenerationService
		bundleService     *services.BundleService
	)
	if dbClient != nil {
		runner := generation.NewRunner(imageClient, storageClient, dbClient)
		sendService = services.NewSendService(dbClient, realtimeClient, notifier)
		pushService = services.NewPushService(dbClient, realtimeClient)
		reviewService = services.NewReviewService(dbClient, realtimeClient, notifier)
		generationService = services.NewGenerationService(dbClient, runner, imageClient, storageClient, realtimeClient, notifier)
		bundleService = services.NewBundleService(dbClient, storageClient)
	} else {
		log.Println("Warning: Services not available without a database connection.")
	}

	projectsHandler := handlers.NewProjectsHandler(dbClient, storageClient)
	pagesHandler := handlers.NewPagesHandler(dbClient)
	charactersHandler := handlers.NewCharactersHandler(dbClient)
	generateHandler := handlers.NewGenerateHandler(generationService)
	feedbackHandler := handlers.NewFeedbackHandler(dbClient)
	sendHandler := handlers.NewSendHandler(sendService)
	pushHandler := handlers.NewPushHandler(pushService)
	reviewHandler := handlers.NewReviewHandler(dbClient, reviewService)
	downloadHandler := handlers.NewDownloadHandler(bundleService)

	router := gin.Default()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", handlers.HealthHandler)

	// Admin API
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	api.POST("/projects", projectsHandler.CreateProject)
	api.GET("/projects", projectsHandler.ListProjects)
	api.GET("/projects/:project_id", projectsHandler.GetProject)
	api.DELETE("/projects/:project_id", projectsHandler.DeleteProject)

	api.POST("/projects/:project_id/manuscript", pagesHandler.ParseManuscript)
	api.GET("/projects/:project_id/pages", pagesHandler.ListPages)
	api.PATCH("/pages/:page_id", pagesHandler.UpdatePage)
	api.PUT("/pages/:page_id/illustration-type", pagesHandler.SetIllustrationType)

	api.POST("/projects/:project_id/characters", charactersHandler.CreateCharacter)
	api.GET("/projects/:project_id/characters", charactersHandler.ListCharacters)
	api.PATCH("/characters/:character_id", charactersHandler.UpdateCharacter)
	api.DELETE("/characters/:character_id", charactersHandler.DeleteCharacter)

	api.POST("/projects/:project_id/generate", generateHandler.StartBatch)
	api.GET("/batches/:batch_id", generateHandler.BatchStatus)
	api.POST("/batches/:batch_id/cancel", generateHandler.CancelBatch)
	api.POST("/batches/:batch_id/retry", generateHandler.RetryBatch)
	api.POST("/pages/:page_id/generate", generateHandler.GeneratePage)
	api.POST("/pages/:page_id/generate-sketch", generateHandler.GenerateSketch)
	api.POST("/pages/:page_id/regeneration-decision", generateHandler.DecideRegeneration)
	api.POST("/characters/:character_id/generate", generateHandler.GenerateCharacter)

	api.POST("/pages/:page_id/feedback/reply", feedbackHandler.ReplyToPageFeedback)
	api.PUT("/pages/:page_id/feedback/reply", feedbackHandler.EditPageReply)
	api.DELETE("/pages/:page_id/feedback/reply", feedbackHandler.DeletePageReply)
	api.POST("/characters/:character_id/feedback/reply", feedbackHandler.ReplyToCharacterFeedback)
	api.PUT("/characters/:character_id/feedback/reply", feedbackHandler.EditCharacterReply)
	api.DELETE("/characters/:character_id/feedback/reply", feedbackHandler.DeleteCharacterReply)

	api.POST("/projects/:project_id/send", sendHandler.Send)
	api.POST("/projects/:project_id/begin-character-generation", sendHandler.BeginCharacterGeneration)
	api.POST("/projects/:project_id/complete-character-generation", sendHandler.CompleteCharacterGeneration)
	api.POST("/projects/:project_id/regenerate-characters", sendHandler.RegenerateCharacters)
	api.POST("/projects/:project_id/approve-characters", sendHandler.ApproveCharacters)
	api.POST("/projects/:project_id/approve-illustrations", sendHandler.ApproveIllustrations)

	api.POST("/projects/:project_id/push/pages", pushHandler.PushPages)
	api.POST("/projects/:project_id/push/characters", pushHandler.PushCharacters)

	api.GET("/projects/:project_id/download", downloadHandler.DownloadBundle)

	// Customer review portal, authenticated by the opaque review token.
	// The resolver stays a nil interface when the database is not
	// configured; a typed-nil client would slip past the middleware guard.
	var resolver middleware.ProjectResolver
	if dbClient != nil {
		resolver = dbClient
	}
	review := router.Group("/api/v1/review/:review_token")
	review.Use(middleware.ReviewTokenMiddleware(resolver))

	review.GET("", reviewHandler.GetProject)
	review.POST("/submit", reviewHandler.SubmitReview)
	review.POST("/pages/:page_id/follow-up", reviewHandler.PageFollowUp)
	review.POST("/characters/:character_id/follow-up", reviewHandler.CharacterFollowUp)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
