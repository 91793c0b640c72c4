package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docstore-backend/internal/blob"
	"docstore-backend/internal/blob/fsblob"
	"docstore-backend/internal/blob/memblob"
	"docstore-backend/internal/blob/miniostore"
	"docstore-backend/internal/config"
	"docstore-backend/internal/events"
	bulkHandler "docstore-backend/internal/handler/http/bulk"
	folderHandler "docstore-backend/internal/handler/http/folder"
	storageHandler "docstore-backend/internal/handler/http/storage"
	"docstore-backend/internal/middleware"
	"docstore-backend/internal/policy"
	"docstore-backend/internal/quota"
	"docstore-backend/internal/repository/memory"
	bulkService "docstore-backend/internal/service/bulk"
	folderService "docstore-backend/internal/service/folder"
	storageService "docstore-backend/internal/service/storage"
	"docstore-backend/pkg/logger"
	"docstore-backend/pkg/signature"
)

func main() {
	// 1. Load config and logging
	cfg := config.Load()
	logger.InitDefault()
	defer logger.Sync()

	// 2. Content store backend
	blobStore, err := newBlobStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize blob store: %v", err)
	}
	log.Printf("✅ Blob store ready (%s)", blobStore.Type())

	// 3. Metadata repositories
	fileRepo := memory.NewFileRepository()
	folderRepo := memory.NewFolderRepository()
	bulkRepo := memory.NewBulkOperationRepository()

	// 4. Policies, quota and events
	registry := policy.NewRegistry()
	for _, p := range policy.DefaultPolicies() {
		registry.Register(p)
	}
	ledger := quota.NewLedger(cfg.QuotaDefaultBytes, cfg.QuotaMaxFileSize)
	notifier := events.NewNotifier()

	// 5. Services
	storageSvc := storageService.NewService(
		fileRepo, folderRepo, blobStore, registry, ledger, notifier,
		signature.NewSigner(cfg.SignatureSecret),
		storageService.Config{
			MultipartChunkSize: cfg.MultipartChunkSize,
			DownloadURLTTL:     cfg.DownloadURLTTL,
		})
	folderSvc := folderService.NewService(folderRepo, fileRepo, storageSvc, notifier)
	bulkProc := bulkService.NewProcessor(bulkRepo, storageSvc, notifier)

	// 6. Router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "storage-service",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	storageHdlr := storageHandler.NewHandler(storageSvc)

	public := router.Group("/v1/storage")
	storageHdlr.RegisterPublicRoutes(public)

	v1 := router.Group("/v1/storage")
	v1.Use(middleware.Identity())
	{
		storageHdlr.RegisterRoutes(v1)
		folderHandler.NewHandler(folderSvc).RegisterRoutes(v1)
		bulkHandler.NewHandler(bulkProc).RegisterRoutes(v1)
	}

	// 7. Lifecycle sweep ticker
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go runSweeper(sweepCtx, storageSvc, cfg.SweepInterval)

	// 8. Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Storage Service starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopSweep()
	bulkProc.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func newBlobStore(cfg *config.Config) (blob.Store, error) {
	switch cfg.BlobBackend {
	case "minio":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return miniostore.New(ctx, cfg.Minio)
	case "fs":
		return fsblob.New(cfg.FSRoot)
	case "memory":
		return memblob.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.BlobBackend)
	}
}

func runSweeper(ctx context.Context, svc *storageService.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.RunLifecycleSweep(ctx); err != nil {
				logger.Error("lifecycle sweep failed", zap.Error(err))
			}
		}
	}
}
