package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/legallense/docpipeline/internal/models"
	"github.com/legallense/docpipeline/internal/store"
)

const signedURLExpiry = 30 * time.Minute

// URLSigner issues a write-capable upload URL for a filename and returns it
// together with the GCS path the upload will land at.
type URLSigner interface {
	SignUpload(ctx context.Context, filename string) (url, gcsPath string, err error)
}

// GCSSigner issues V4 pre-signed PUT URLs for the uploads bucket.
type GCSSigner struct {
	client *storage.Client
	bucket string
}

func NewGCSSigner(client *storage.Client, bucket string) (*GCSSigner, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSSigner: bucket must be set")
	}
	return &GCSSigner{client: client, bucket: bucket}, nil
}

func (s *GCSSigner) SignUpload(ctx context.Context, filename string) (string, string, error) {
	object := fmt.Sprintf("uploads/%s", filename)
	url, err := s.client.Bucket(s.bucket).SignedURL(object, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		Expires:     time.Now().Add(signedURLExpiry),
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to sign upload URL for %s: %w", object, err)
	}
	return url, store.Locator(s.bucket, object), nil
}

// Signer is the HTTP surface for upload URL issuance.
type Signer struct {
	signer URLSigner
}

func NewSigner(signer URLSigner) *Signer {
	return &Signer{signer: signer}
}

// HandleSignedURL issues a time-bounded upload URL for the requested
// filename.
func (s *Signer) HandleSignedURL(w http.ResponseWriter, r *http.Request) {
	var req models.SignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not parse JSON body"})
		return
	}
	if req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filename required"})
		return
	}

	url, gcsPath, err := s.signer.SignUpload(r.Context(), req.Filename)
	if err != nil {
		slog.Error("Failed to issue signed URL", "filename", req.Filename, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, models.SignedURLResponse{URL: url, GCSPath: gcsPath})
}
