package main

import (
	"net/http"
	"strings"

	"github.com/Aashish23092/tax-advisor/client"
	"github.com/Aashish23092/tax-advisor/config"
	"github.com/Aashish23092/tax-advisor/handler"
	"github.com/Aashish23092/tax-advisor/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()
	config.SetupLogging(cfg)

	// Oracle stays a nil interface when no key is configured.
	var oracle service.Oracle
	if openaiClient := client.NewOpenAIClient(cfg); openaiClient != nil {
		oracle = openaiClient
	}

	// Initialize service layer
	pdfProcessor := service.NewPDFProcessor()
	enhancer := service.NewEnhancer(oracle, cfg.OracleCharBudget, cfg.EnhanceText)
	extractionService := service.NewExtractionService(pdfProcessor, enhancer, cfg.ExtractTimeout, cfg.BatchConcurrency)
	engine := service.NewDialogueEngine(oracle, service.NewThresholdEvaluator(nil))
	advisorService := service.NewAdvisorService(service.NewSessionStore(cfg.SessionTTL), engine)

	// Initialize handler layer
	documentHandler := handler.NewDocumentHandler(extractionService, cfg.MaxFileSize)
	advisorHandler := handler.NewAdvisorHandler(advisorService, extractionService, cfg.MaxFileSize)

	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := NewRouter(documentHandler, advisorHandler, oracle != nil)

	// Start server
	log.Info().Str("port", cfg.ServerPort).Bool("oracle", oracle != nil).Msg("starting tax advisor service")
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

// NewRouter wires the HTTP routes.
func NewRouter(documentHandler *handler.DocumentHandler, advisorHandler *handler.AdvisorHandler, oracleEnabled bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), handler.RequestLogger())

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Tax Advisor",
			"oracle":  oracleEnabled,
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		documents := api.Group("/documents")
		{
			documents.POST("/extract", documentHandler.Extract)
			documents.POST("/extract-multiple", documentHandler.ExtractMultiple)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", advisorHandler.CreateSession)
			sessions.POST("/:id/documents", advisorHandler.UploadDocument)
			sessions.POST("/:id/turns", advisorHandler.Turn)
			sessions.GET("/:id/questions", advisorHandler.Questions)
			sessions.DELETE("/:id", advisorHandler.DeleteSession)
		}
	}

	return router
}
