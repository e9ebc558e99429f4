package models

// These structs define the JSON payloads for HTTP requests and responses
// between the pipeline services.

// ProcessRequest is the input for the processor service's main endpoint.
type ProcessRequest struct {
	FileID  string `json:"file_id"`
	OwnerID string `json:"owner_id"`
	GCSPath string `json:"gcs_path"`
}

// ProcessResponse is returned by the processor service. PageCount is only
// meaningful when Status is "success".
type ProcessResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	PageCount int    `json:"page_count,omitempty"`
}

// ProcessByIDRequest is the payload of the ingest trigger's downstream
// notification. The processor resolves the rest from the upload record.
type ProcessByIDRequest struct {
	DocID string `json:"doc_id"`
}

// SignedURLRequest is the input for the signed-url service.
type SignedURLRequest struct {
	Filename string `json:"filename"`
}

// SignedURLResponse carries a time-bounded PUT URL and the GCS path the
// upload will land at.
type SignedURLResponse struct {
	URL     string `json:"url"`
	GCSPath string `json:"gcs_path"`
}
