package event

// Type identifies the type of domain event
type Type string

const (
	TypeUploadSubmitted         Type = "upload.submitted"
	TypeUploadSettled           Type = "upload.settled"
	TypeUploadFailed            Type = "upload.failed"
	TypeChatMessageSent         Type = "chat.message_sent"
	TypeChatReplyProduced       Type = "chat.reply_produced"
	TypeReportGenerationStarted Type = "report.generation_started"
	TypeReportDownloaded        Type = "report.downloaded"
	TypeSettingsSaved           Type = "settings.saved"
	TypeHSNImported             Type = "hsn.imported"
	TypeNotificationCreated     Type = "notification.created"
	TypeSessionClosed           Type = "session.closed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeUploadSubmitted,
		TypeUploadSettled,
		TypeUploadFailed,
		TypeChatMessageSent,
		TypeChatReplyProduced,
		TypeReportGenerationStarted,
		TypeReportDownloaded,
		TypeSettingsSaved,
		TypeHSNImported,
		TypeNotificationCreated,
		TypeSessionClosed:
		return true
	default:
		return false
	}
}

// AllTypes lists every event type
func AllTypes() []Type {
	return []Type{
		TypeUploadSubmitted,
		TypeUploadSettled,
		TypeUploadFailed,
		TypeChatMessageSent,
		TypeChatReplyProduced,
		TypeReportGenerationStarted,
		TypeReportDownloaded,
		TypeSettingsSaved,
		TypeHSNImported,
		TypeNotificationCreated,
		TypeSessionClosed,
	}
}
