package domain

import "time"

// VerdictEvent is the notification emitted after a submission has been validated.
// It never carries file contents.
type VerdictEvent struct {
	ID             string    `json:"id"`
	DocTypeID      string    `json:"doc_type_id"`
	Outcome        Outcome   `json:"outcome"`
	FileNames      []string  `json:"file_names"`
	WordCount      int       `json:"word_count"`
	NeedsServerOCR bool      `json:"needs_server_ocr,omitempty"`
	Error          string    `json:"error,omitempty"`
	ValidatedAt    time.Time `json:"validated_at"`
}
