package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/legallense/docpipeline/internal/gcp"
	"github.com/legallense/docpipeline/internal/services"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("Signed URL service exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	uploadsBucket := gcp.GetEnv("GCS_BUCKET", "")
	if uploadsBucket == "" {
		return fmt.Errorf("GCS_BUCKET environment variable must be set")
	}

	storageClient, err := gcp.NewStorageClient(ctx)
	if err != nil {
		return err
	}
	gcsSigner, err := services.NewGCSSigner(storageClient, uploadsBucket)
	if err != nil {
		return err
	}
	signer := services.NewSigner(gcsSigner)

	router := chi.NewRouter()
	router.Post("/get-signed-url", signer.HandleSignedURL)

	port := gcp.GetEnv("PORT", "8080")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Signed URL service listening.", "port", port, "uploadsBucket", uploadsBucket)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("Shutting down.", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
