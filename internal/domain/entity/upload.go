package entity

import (
	"time"

	"github.com/garyjia/fintel-ai/internal/domain/workflow"
)

// UploadItem is one file submitted for simulated extraction.
// Accuracy is meaningful only once Status is COMPLETED.
type UploadItem struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Status      workflow.State `json:"status"`
	Progress    int            `json:"progress"`
	Accuracy    int            `json:"accuracy,omitempty"`
	SizeBytes   int64          `json:"size_bytes,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Pages       int            `json:"pages,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// IsSettled returns true once the item reached a terminal state
func (u *UploadItem) IsSettled() bool {
	return u.Status.IsTerminal()
}

// FileMeta describes a file offered for upload
type FileMeta struct {
	Name        string `json:"name"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
	Pages       int    `json:"pages"`
}

// SeedUpload is an upload row shown to every new session
type SeedUpload struct {
	Name     string         `yaml:"name"`
	AgeMins  int            `yaml:"age_mins"`
	Status   workflow.State `yaml:"status"`
	Progress int            `yaml:"progress"`
	Accuracy int            `yaml:"accuracy"`
}
