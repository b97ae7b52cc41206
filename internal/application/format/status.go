package format

import "github.com/garyjia/fintel-ai/internal/domain/workflow"

// UploadStatus returns the icon and text shown for an upload's state.
// Pending items read as "Processing".
func UploadStatus(s workflow.State) Badge {
	switch s {
	case workflow.StateCompleted:
		return Badge{Label: "Completed", Icon: "CheckCircle", Tone: "success"}
	case workflow.StateFailed:
		return Badge{Label: "Error", Icon: "AlertCircle", Tone: "destructive"}
	default:
		return Badge{Label: "Processing", Icon: "Clock", Tone: "warning"}
	}
}
