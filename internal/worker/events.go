package worker

// IngestRequestPayload is the message published to the ingest.request topic
// when a document is uploaded. One message means one full pipeline run.
type IngestRequestPayload struct {
	IngestionID   string `json:"ingestion_id"`
	Path          string `json:"path"`
	FileName      string `json:"file_name"`
	CorrelationID string `json:"correlation_id"`
}
