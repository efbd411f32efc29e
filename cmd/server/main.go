package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"estatescout/internal/browser"
	"estatescout/internal/config"
	"estatescout/internal/handler"
	"estatescout/internal/media"
	"estatescout/internal/repository"
	"estatescout/internal/search"
	"estatescout/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	log.Printf("EstateScout")
	log.Printf("Version: %s", Version)
	log.Printf("Build Time: %s", BuildTime)
	log.Printf("Git Commit: %s", GitCommit)
	log.Println("")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// Initialize database connection
	store, err := repository.NewPostgresStore(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	log.Println("✅ Connected to PostgreSQL database")

	// Search is a required capability; fail fast on a missing credential.
	tavilyClient, err := search.NewTavilyClient(&cfg.Tavily)
	if err != nil {
		log.Fatalf("Failed to initialize search provider: %v", err)
	}
	log.Println("✅ Tavily search client initialized")

	// Generative capability is optional; every stage carries a fallback.
	var generator service.Generator
	if cfg.OpenAI.Enabled {
		client := service.NewOpenAIClient(&cfg.OpenAI)
		generator = client
		log.Printf("✅ OpenAI client initialized")
		log.Printf("   - API Base: %s", cfg.OpenAI.APIBase)
		log.Printf("   - Chat model: %s", cfg.OpenAI.ChatModel)
		log.Printf("   - Chat Temperature: %.2f", cfg.OpenAI.ChatTemperature)
		log.Printf("   - Chat MaxTokens: %d", cfg.OpenAI.ChatMaxTokens)
	} else {
		log.Println("⚠️  OpenAI is disabled - extraction and drafting use deterministic fallbacks")
		log.Println("   Set OPENAI_API_KEY environment variable to enable AI features")
	}

	uploaderClient := media.NewCloudinaryUploader(&cfg.Cloudinary)
	chromeBrowser := browser.NewChromeBrowser(cfg.Browser.Headless)

	if err := os.MkdirAll(filepath.Join(cfg.Pipeline.DataDir, "listings"), 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize pipeline stages
	pipeline := service.NewPipeline(
		store,
		service.NewIntentClassifier(generator),
		service.NewCriteriaExtractor(generator),
		service.NewCurrencyResolver(generator),
		service.NewListingRetriever(tavilyClient, generator),
		service.NewVisualVerifier(chromeBrowser, uploaderClient, cfg.Server.FrontendURL, cfg.Pipeline.DataDir, cfg.Browser.SettleSeconds),
		service.NewDossierAssembler(generator, cfg.Pipeline.DataDir),
		service.NewSearchCache(store, time.Duration(cfg.Pipeline.CacheTTLHours)*time.Hour),
		service.PipelineOptions{
			FrontendURL:    cfg.Server.FrontendURL,
			DefaultResults: cfg.Pipeline.DefaultResults,
			MaxResults:     cfg.Pipeline.MaxResults,
		},
	)

	log.Println("✅ Services initialized")

	// Initialize handlers
	chatHandler := handler.NewChatHandler(pipeline)
	listingsHandler := handler.NewListingsHandler(store, cfg.Server.FrontendURL)

	// Setup Gin router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.AllowedOrigins}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":                "healthy",
			"service":               "estatescout",
			"version":               Version,
			"database_connected":    store.Ping() == nil,
			"openai_configured":     cfg.OpenAI.Enabled,
			"tavily_configured":     cfg.TavilyConfigured(),
			"cloudinary_configured": cfg.Cloudinary.Enabled,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// API routes
	api := router.Group("/api")
	{
		api.POST("/chat", chatHandler.Chat)
		api.GET("/listings", listingsHandler.Listings)
		api.GET("/preferences", listingsHandler.Preferences)
	}

	// Dossier artifacts (screenshots, lease drafts, info sheets)
	router.Static("/data", cfg.Pipeline.DataDir)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Starting server on %s", addr)
	log.Printf("📝 Chat endpoint: http://localhost:%d/api/chat", cfg.Server.Port)

	// Graceful shutdown
	go func() {
		if err := router.Run(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	log.Println("✅ Server stopped")
}
