package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"crmserver/billing"
	"crmserver/database"
	"crmserver/internal/config"
	"crmserver/matching"
	"crmserver/server/handlers"
	"crmserver/server/middleware"
	"crmserver/server/services"
)

// Version версия сервера
const Version = "1.0.0"

// Server HTTP сервер базы контактов с проверкой на дубликаты
type Server struct {
	db     *database.ContactsDB
	config *config.Config

	contactService  *services.ContactService
	matchingService *services.MatchingService
	importService   *services.ImportService
	reviewService   *services.ReviewService

	contactHandler  *handlers.ContactHandler
	matchingHandler *handlers.MatchingHandler
	importHandler   *handlers.ImportHandler
	reviewHandler   *handlers.ReviewHandler
	systemHandler   *handlers.SystemHandler

	events       chan string
	httpServer   *http.Server
	shutdownChan chan struct{}
}

// NewServer создает новый сервер со всеми сервисами и обработчиками
func NewServer(db *database.ContactsDB, cfg *config.Config) *Server {
	detector := matching.NewDuplicateDetector()
	events := make(chan string, cfg.EventsBufferSize)

	var billingClient *billing.Client
	if cfg.BillingEnabled() {
		billingClient = billing.NewClient(cfg.BillingAPIKey, cfg.BillingBaseURL, cfg.BillingRequestInterval)
		log.Printf("Клиент биллинга настроен: %s, интервал запросов %v", cfg.BillingBaseURL, cfg.BillingRequestInterval)
	}

	s := &Server{
		db:           db,
		config:       cfg,
		events:       events,
		shutdownChan: make(chan struct{}),
	}

	// Сервисы
	s.contactService = services.NewContactService(db)
	s.matchingService = services.NewMatchingService(db, detector)
	s.importService = services.NewImportService(db, detector, events)
	s.reviewService = services.NewReviewService(db)

	// Обработчики
	s.contactHandler = handlers.NewContactHandler(s.contactService)
	s.matchingHandler = handlers.NewMatchingHandler(s.matchingService)
	s.importHandler = handlers.NewImportHandler(s.importService, billingClient, cfg.UploadsDir)
	s.reviewHandler = handlers.NewReviewHandler(s.reviewService)
	s.systemHandler = handlers.NewSystemHandler(db, Version)

	return s
}

// buildHTTPHandler создает gin router со всеми middleware и маршрутами
func (s *Server) buildHTTPHandler() http.Handler {
	// Режим Gin: release по умолчанию, переопределяется через GIN_MODE
	if ginMode := os.Getenv("GIN_MODE"); ginMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.GinRequestIDMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinGzipMiddleware())
	router.Use(middleware.GinLoggerMiddleware())
	router.Use(gin.Recovery())

	s.registerRoutes(router)

	return router
}

// registerRoutes регистрирует все маршруты API
func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.systemHandler.HandleHealth)

	api := router.Group("/api")
	{
		api.GET("/stats", s.systemHandler.HandleStats)

		contacts := api.Group("/contacts")
		{
			contacts.GET("", s.contactHandler.HandleList)
			contacts.POST("", s.contactHandler.HandleCreate)
			contacts.GET("/export", s.contactHandler.HandleExport)
			contacts.GET("/:id", s.contactHandler.HandleGet)
			contacts.PUT("/:id", s.contactHandler.HandleUpdate)
			contacts.DELETE("/:id", s.contactHandler.HandleDelete)
		}

		match := api.Group("/matching")
		{
			match.POST("/compare", s.matchingHandler.HandleCompare)
			match.POST("/check", s.matchingHandler.HandleCheck)
		}

		imports := api.Group("/import")
		{
			imports.POST("/upload", s.importHandler.HandleUpload)
			imports.POST("/billing-sync", s.importHandler.HandleBillingSync)
			imports.GET("/tasks/:id", s.importHandler.HandleTaskStatus)
			imports.GET("/sessions", s.importHandler.HandleListSessions)
			imports.GET("/sessions/:id", s.importHandler.HandleGetSession)
		}

		reviews := api.Group("/reviews")
		{
			reviews.GET("", s.reviewHandler.HandleList)
			reviews.GET("/stats", s.reviewHandler.HandleStats)
			reviews.POST("/:id/approve", s.reviewHandler.HandleApprove)
			reviews.POST("/:id/reject", s.reviewHandler.HandleReject)
		}
	}
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	handler := s.buildHTTPHandler()

	addr := fmt.Sprintf(":%s", s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // Экспорт больших баз в Excel может занять время
		IdleTimeout:  120 * time.Second,
	}

	// Фоновый логгер событий импорта
	go s.drainEvents()

	log.Printf("Сервер запускается на порту %s", s.config.Port)
	log.Printf("API доступно по адресу: http://localhost%s", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// drainEvents пишет события импорта в лог до остановки сервера
func (s *Server) drainEvents() {
	for {
		select {
		case msg := <-s.events:
			log.Printf("[import] %s", msg)
		case <-s.shutdownChan:
			return
		}
	}
}

// Shutdown останавливает HTTP сервер gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	log.Println("Initiating graceful shutdown...")

	close(s.shutdownChan)

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}

	log.Println("Graceful shutdown completed")
	return nil
}
