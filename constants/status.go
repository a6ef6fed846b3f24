package constants

// UploadStatus is the canonical status for rows in uploads.
type UploadStatus string

// Stable values (store these exact strings in DB).
const (
	UploadStatusReceived  UploadStatus = "RECEIVED"  // saved, not evaluated yet
	UploadStatusRunning   UploadStatus = "RUNNING"   // evaluation in progress
	UploadStatusEvaluated UploadStatus = "EVALUATED" // latest feedback stored
	UploadStatusFailed    UploadStatus = "FAILED"    // last evaluation failed
)
