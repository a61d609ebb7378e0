package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fcmanager/internal/api"
	"fcmanager/internal/app/service"
	"fcmanager/internal/app/worker"
	"fcmanager/internal/common/security"
	"fcmanager/internal/domain/repository"
	"fcmanager/internal/platform/config"
	"fcmanager/internal/platform/database"
	"fcmanager/internal/platform/firecrawl"
	"fcmanager/internal/platform/logging"
	"fcmanager/internal/platform/queue"

	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	config.Load()

	// 2. Logging
	if err := logging.Init(config.AppConfig.LogDevelopment); err != nil {
		panic(err)
	}
	defer logging.Sync()

	// 3. Initialize JWT
	security.InitJWT()

	// 4. Database
	database.Connect()
	defer database.Close()
	if err := database.InitSchema(context.Background()); err != nil {
		logging.L.Fatal("Schema initialization failed", zap.Error(err))
	}

	// 5. Redis (cleanup lock)
	queue.ConnectRedis()
	defer queue.CloseRedis()

	// 6. Repositories
	accountRepo := repository.NewPgAccountRepository(database.DB)
	profileRepo := repository.NewPgProfileRepository(database.DB)
	taskRepo := repository.NewPgTaskRepository(database.DB)

	// 7. Crawl gateway
	crawlGateway := firecrawl.NewClient(
		config.AppConfig.FirecrawlAPIURL,
		config.AppConfig.FirecrawlAPIKey,
		time.Duration(config.AppConfig.FirecrawlTimeoutSecs)*time.Second,
	)

	// 8. Services
	authService := service.NewAuthService(accountRepo)
	accountService := service.NewAccountService(accountRepo, profileRepo, taskRepo, database.DB)
	profileService := service.NewProfileService(profileRepo)
	taskService := service.NewTaskService(taskRepo, accountRepo, crawlGateway, database.DB)

	// 9. Cleanup worker (as a goroutine)
	cleanupWorker := worker.NewCleanupWorker(queue.RDB, accountService)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go cleanupWorker.Start(workerCtx)

	// 10. Router & HTTP server
	router := api.NewRouter(authService, accountService, profileService, taskService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 11. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logging.L.Info("Server starting", zap.String("port", config.AppConfig.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.L.Fatal("Could not listen", zap.String("port", config.AppConfig.APIPort), zap.Error(err))
		}
	}()

	<-stop // Wait for interrupt signal

	logging.L.Info("Shutting down server")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.L.Fatal("Server shutdown failed", zap.Error(err))
	}

	logging.L.Info("Server and worker stopped gracefully")
}
