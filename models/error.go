package models

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// HealthCheckResponse is returned by the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}

// SyncStatusResponse describes the synchronization state exposed to UI clients
type SyncStatusResponse struct {
	Online       bool `json:"online"`
	QueueLength  int  `json:"queueLength"`
	CachedCount  int  `json:"cachedCount"`
	OfflineCount int  `json:"offlineCount"`
}
