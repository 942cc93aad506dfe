package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anurag-05-cmd/StakeInNature/config"
	"github.com/anurag-05-cmd/StakeInNature/handlers"
	"github.com/anurag-05-cmd/StakeInNature/middleware"
	"github.com/anurag-05-cmd/StakeInNature/services"
	"github.com/anurag-05-cmd/StakeInNature/wallet"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize the ledger adapter
	ledger, err := services.NewEthereumLedger(cfg.RPCURL, cfg.ContractAddress, cfg.OperatorKey, cfg.ConfirmTimeout)
	if err != nil {
		log.Fatalf("Failed to connect to ledger: %v", err)
	}
	defer ledger.Close()

	// 3. Initialize services
	locks := services.NewAccountLocks()
	scorer := services.NewGeminiScorer(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ScorerTimeout)
	sessions := services.NewSessionService(ledger, cfg.PollInterval)
	claimService := services.NewClaimService(ledger, locks)
	validationService := services.NewValidationService(scorer, ledger, sessions, locks)

	sessions.Start()
	defer sessions.Stop()

	// The wallet stream feeds account changes into the session machine.
	accountStream := wallet.NewBroadcaster()
	unsubscribe := accountStream.Subscribe(sessions.OnAccountChange)
	defer unsubscribe()

	// 4. Initialize handlers
	claimHandler := handlers.NewClaimHandler(claimService)
	evidenceHandler := handlers.NewEvidenceHandler(validationService)
	ledgerHandler := handlers.NewLedgerHandler(ledger, sessions, locks)
	healthHandler := handlers.NewHealthHandler(ledger)

	// 5. Setup routes
	router := setupRoutes(claimHandler, evidenceHandler, ledgerHandler, healthHandler)

	// 6. Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	log.Printf("StakeInNature validation server started on port %s", cfg.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	log.Println("Server exiting")
}

func setupRoutes(
	claimHandler *handlers.ClaimHandler,
	evidenceHandler *handlers.EvidenceHandler,
	ledgerHandler *handlers.LedgerHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit())

	// Health check
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API routes
	router.POST("/claim", claimHandler.Claim)
	router.POST("/evidence", evidenceHandler.Submit)
	router.POST("/ledger", ledgerHandler.Handle)

	return router
}
