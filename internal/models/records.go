package models

import "time"

// Upload record lifecycle. A record reaches "completed" or "failed" and then
// never transitions again.
const (
	StatusUploaded      = "uploaded"
	StatusTextExtracted = "text_extracted"
	StatusProcessing    = "processing"
	StatusCompleted     = "completed"
	StatusFailed        = "failed"
)

// UploadRecord tracks a single uploaded file through the pipeline in Firestore.
// ResultID is set if and only if Status is "completed".
type UploadRecord struct {
	Status              string    `firestore:"status,omitempty"`
	SourceLocator       string    `firestore:"sourceLocator,omitempty"`
	TextPreviewLocator  string    `firestore:"textPreviewLocator,omitempty"`
	ResultID            string    `firestore:"resultId,omitempty"`
	ErrorMessage        string    `firestore:"errorMessage,omitempty"`
	ProcessingCompleted time.Time `firestore:"processingCompletedAt,omitempty"`
}

// ResultRecord holds the derived artifacts for a processed file. It exists
// only in a terminal success state; a failed run never produces one.
type ResultRecord struct {
	FileID              string    `firestore:"fileId,omitempty"`
	OwnerID             string    `firestore:"ownerId,omitempty"`
	SummaryText         string    `firestore:"summaryText,omitempty"`
	FullTextLocator     string    `firestore:"fullTextLocator,omitempty"`
	EntitiesLocator     string    `firestore:"entitiesLocator,omitempty"`
	PageCount           int       `firestore:"pageCount,omitempty"`
	EntitiesCount       int       `firestore:"entitiesCount,omitempty"`
	ProcessorVersion    string    `firestore:"processorVersion,omitempty"`
	Status              string    `firestore:"status,omitempty"`
	ProcessingTimestamp time.Time `firestore:"processingTimestamp,omitempty"`
}
