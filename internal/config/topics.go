package config

const (
	// TopicIngestRequest is the NSQ topic for full-document ingestion runs.
	// One message is published per uploaded PDF; a single worker processes
	// the whole pipeline for that ingestion.
	TopicIngestRequest = "ingest.request"
)
