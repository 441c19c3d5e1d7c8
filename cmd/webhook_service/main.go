package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/acidburn132/SGVP-x-Wati/internal/platform/config"
	"github.com/acidburn132/SGVP-x-Wati/internal/platform/logger"
	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/adapters/directory"
	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/adapters/docstore"
	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/adapters/fetcher"
	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/adapters/gateway"
	"github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/app"
	webhookhttp "github.com/acidburn132/SGVP-x-Wati/internal/webhook_service/transport/http"
)

const serviceName = "webhook_service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Webhook service starting...", "port", cfg.ServerPort)

	ctx := context.Background()

	sheetsSvc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.SheetsCredentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		appLogger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.SheetsSpreadsheetID)

	driveSvc, err := drive.NewService(ctx,
		option.WithCredentialsFile(cfg.DriveCredentialsFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		appLogger.Error("Failed to initialize Google Drive client", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Google Drive client initialized", "folder_id", cfg.DriveFolderID)

	dir := directory.NewSheetsDirectory(sheetsSvc, cfg.SheetsSpreadsheetID, cfg.SheetsPhoneColumn, appLogger)
	locator := docstore.NewDriveLocator(driveSvc, cfg.DriveFolderID, appLogger)
	docFetcher := fetcher.NewHTTPFetcher(appLogger, cfg.TempDir, &http.Client{
		Timeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
	})
	dispatcher := gateway.NewWatiClient(appLogger, cfg.WatiBaseURL, cfg.WatiAuthToken, nil)

	pipeline := app.NewPipeline(dir, locator, docFetcher, dispatcher, cfg.SheetsEnrollmentColumn, appLogger)

	validate := validator.New()
	webhookHandler := webhookhttp.NewWebhookHandler(pipeline, appLogger, validate)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(5 * time.Minute)) // pipeline runs a full download within the request

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Webhook service is healthy"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhook", func(webhookRouter chi.Router) {
		webhookHandler.RegisterRoutes(webhookRouter)
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.ServerPort), Handler: r}
	appLogger.Info(fmt.Sprintf("Webhook server listening on port %d", cfg.ServerPort))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Webhook service stopped")
}
