package entity

import (
	"fmt"
	"regexp"
)

// APIKey is a configured integration key. Only the masked form leaves the service.
type APIKey struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description" yaml:"description"`
	Masked      string `json:"masked" yaml:"masked"`
}

// LearningSettings are the continuous learning toggles
type LearningSettings struct {
	ActiveLearning     bool `json:"active_learning" yaml:"active_learning"`
	AutoModelUpdates   bool `json:"auto_model_updates" yaml:"auto_model_updates"`
	FieldLevelFeedback bool `json:"field_level_feedback" yaml:"field_level_feedback"`
}

// NotificationSettings are the alert preferences
type NotificationSettings struct {
	HighRiskAnomalies bool `json:"high_risk_anomalies" yaml:"high_risk_anomalies"`
	DailyDigest       bool `json:"daily_digest" yaml:"daily_digest"`
	WeeklyReports     bool `json:"weekly_reports" yaml:"weekly_reports"`
	VendorRiskChanges bool `json:"vendor_risk_changes" yaml:"vendor_risk_changes"`
}

// Settings is the editable state of the settings view
type Settings struct {
	APIKeys       []APIKey             `json:"api_keys" yaml:"api_keys"`
	Learning      LearningSettings     `json:"learning" yaml:"learning"`
	Notifications NotificationSettings `json:"notifications" yaml:"notifications"`
	LearningStats []Insight            `json:"learning_stats" yaml:"learning_stats"`
}

// SettingsUpdate carries the fields a save may change. Nil sections are left untouched.
type SettingsUpdate struct {
	APIKeys       map[string]string     `json:"api_keys"`
	Learning      *LearningSettings     `json:"learning"`
	Notifications *NotificationSettings `json:"notifications"`
}

var hsnCodePattern = regexp.MustCompile(`^\d{4,8}$`)

// HSNMapping maps an HSN/SAC code to its GST rate
type HSNMapping struct {
	Code        string `json:"code" yaml:"code"`
	Description string `json:"description" yaml:"description"`
	Rate        int    `json:"rate" yaml:"rate"`
	UpdatedOn   string `json:"updated_on" yaml:"updated_on"`
}

// Validate checks code shape and that the rate is a GST slab
func (h *HSNMapping) Validate() error {
	if !hsnCodePattern.MatchString(h.Code) {
		return NewValidationError("code", fmt.Sprintf("%q must be 4 to 8 digits", h.Code))
	}
	switch h.Rate {
	case 0, 5, 12, 18, 28:
	default:
		return NewValidationError("rate", fmt.Sprintf("%d is not a GST slab", h.Rate))
	}
	return nil
}

// HSNCatalog is the mapping table plus the size of the full code book
type HSNCatalog struct {
	TotalCodes int          `json:"total_codes"`
	Badge      string       `json:"badge"`
	Mappings   []HSNMapping `json:"mappings"`
}
