package entity

import "fmt"

// AnomalyCategory is the closed set of anomaly kinds
type AnomalyCategory string

const (
	CategoryDuplicate  AnomalyCategory = "duplicate"
	CategoryGST        AnomalyCategory = "gst"
	CategoryHSN        AnomalyCategory = "hsn"
	CategoryArithmetic AnomalyCategory = "arithmetic"
	CategoryPrice      AnomalyCategory = "price"
)

// AnomalyCategories lists categories in display order
var AnomalyCategories = []AnomalyCategory{
	CategoryDuplicate,
	CategoryGST,
	CategoryHSN,
	CategoryPrice,
	CategoryArithmetic,
}

// IsValid checks if the category is one of the defined constants
func (c AnomalyCategory) IsValid() bool {
	switch c {
	case CategoryDuplicate, CategoryGST, CategoryHSN, CategoryArithmetic, CategoryPrice:
		return true
	default:
		return false
	}
}

// Severity is the three-level anomaly severity
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IsValid checks if the severity is one of the defined constants
func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// AnomalyRecord is a read-only fixture row
type AnomalyRecord struct {
	ID          int             `json:"id" yaml:"id"`
	Category    AnomalyCategory `json:"category" yaml:"category"`
	Vendor      string          `json:"vendor" yaml:"vendor"`
	InvoiceNo   string          `json:"invoice_no" yaml:"invoice_no"`
	Severity    Severity        `json:"severity" yaml:"severity"`
	Description string          `json:"description" yaml:"description"`
	Amount      string          `json:"amount" yaml:"amount"`
	Date        string          `json:"date" yaml:"date"`
}

// Validate checks the closed enums of the row
func (a *AnomalyRecord) Validate() error {
	if !a.Category.IsValid() {
		return NewValidationError("category", fmt.Sprintf("unknown value %q", a.Category))
	}
	if !a.Severity.IsValid() {
		return NewValidationError("severity", fmt.Sprintf("unknown value %q", a.Severity))
	}
	if a.InvoiceNo == "" {
		return NewValidationError("invoice_no", "is required")
	}
	return nil
}

// RiskyVendor is an entry of the anomaly center's top risky vendor list
type RiskyVendor struct {
	Name      string  `json:"name" yaml:"name"`
	RiskScore float64 `json:"risk_score" yaml:"risk_score"`
	Anomalies int     `json:"anomalies" yaml:"anomalies"`
}

// Validate checks the risk score range
func (r *RiskyVendor) Validate() error {
	return validateRiskScore(r.RiskScore)
}

func validateRiskScore(score float64) error {
	if score < 0 || score > 1 {
		return NewValidationError("risk_score", fmt.Sprintf("%.2f must be between 0.0 and 1.0", score))
	}
	return nil
}
