package entity

import (
	"fmt"
	"strings"
)

// ReportType is the kind of a listed report
type ReportType string

const (
	ReportTypeSummary  ReportType = "summary"
	ReportTypeDetailed ReportType = "detailed"
	ReportTypeAudit    ReportType = "audit"
)

// IsValid checks if the type is one of the defined constants
func (t ReportType) IsValid() bool {
	return t == ReportTypeSummary || t == ReportTypeDetailed || t == ReportTypeAudit
}

// ReportStatus tells whether a report can be downloaded
type ReportStatus string

const (
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusGenerating ReportStatus = "generating"
)

// ReportRecord is a read-only fixture row
type ReportRecord struct {
	ID            string       `json:"id" yaml:"id"`
	Title         string       `json:"title" yaml:"title"`
	Description   string       `json:"description" yaml:"description"`
	Type          ReportType   `json:"type" yaml:"type"`
	Period        string       `json:"period" yaml:"period"`
	GeneratedDate string       `json:"generated_date" yaml:"generated_date"`
	Status        ReportStatus `json:"status" yaml:"status"`
}

// Validate checks the closed enums of the row
func (r *ReportRecord) Validate() error {
	if r.ID == "" {
		return NewValidationError("id", "is required")
	}
	if !r.Type.IsValid() {
		return NewValidationError("type", fmt.Sprintf("unknown value %q", r.Type))
	}
	if r.Status != ReportStatusReady && r.Status != ReportStatusGenerating {
		return NewValidationError("status", fmt.Sprintf("unknown value %q", r.Status))
	}
	return nil
}

// Insight is a headline figure card
type Insight struct {
	Title  string `json:"title" yaml:"title"`
	Value  string `json:"value" yaml:"value"`
	Detail string `json:"detail" yaml:"detail"`
	Tone   string `json:"tone" yaml:"tone"`
}

// ReportFormat is a download format
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ParseReportFormat normalises and validates a requested format
func ParseReportFormat(s string) (ReportFormat, error) {
	switch f := ReportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ReportFormatPDF, ReportFormatXLSX:
		return f, nil
	default:
		return "", NewValidationError("format", fmt.Sprintf("unsupported value %q", s))
	}
}

var (
	generateTypes  = []string{"summary", "detailed", "audit", "vendor", "anomaly"}
	generateRanges = []string{"7", "30", "90", "custom"}
	generateScopes = []string{"all", "high-risk", "select"}
	generateRisks  = []string{"all", "high", "medium", "low"}
)

// GenerateReportRequest holds the "Generate New Report" form
type GenerateReportRequest struct {
	Type      string `json:"type"`
	DateRange string `json:"date_range"`
	Vendors   string `json:"vendors"`
	RiskLevel string `json:"risk_level"`
}

// WithDefaults fills blank selections with the form's initial values
func (r GenerateReportRequest) WithDefaults() GenerateReportRequest {
	if strings.TrimSpace(r.Type) == "" {
		r.Type = "summary"
	}
	if strings.TrimSpace(r.DateRange) == "" {
		r.DateRange = "30"
	}
	if strings.TrimSpace(r.Vendors) == "" {
		r.Vendors = "all"
	}
	if strings.TrimSpace(r.RiskLevel) == "" {
		r.RiskLevel = "all"
	}
	return r
}

// Validate rejects blank or unknown selections
func (r *GenerateReportRequest) Validate() error {
	checks := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"type", r.Type, generateTypes},
		{"date_range", r.DateRange, generateRanges},
		{"vendors", r.Vendors, generateScopes},
		{"risk_level", r.RiskLevel, generateRisks},
	}
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			return NewValidationError(c.field, "is required")
		}
		if !contains(c.allowed, c.value) {
			return NewValidationError(c.field, fmt.Sprintf("unknown value %q", c.value))
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
