package entity

import "fmt"

// Trend is the direction of a vendor's recent anomaly activity
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// IsValid checks if the trend is one of the defined constants
func (t Trend) IsValid() bool {
	return t == TrendUp || t == TrendDown || t == TrendStable
}

// VendorRecord is a read-only fixture row. TotalSpend keeps the rupee display string.
type VendorRecord struct {
	ID            int     `json:"id" yaml:"id"`
	Name          string  `json:"name" yaml:"name"`
	TotalInvoices int     `json:"total_invoices" yaml:"total_invoices"`
	TotalSpend    string  `json:"total_spend" yaml:"total_spend"`
	AvgAccuracy   int     `json:"avg_accuracy" yaml:"avg_accuracy"`
	RiskScore     float64 `json:"risk_score" yaml:"risk_score"`
	AnomalyCount  int     `json:"anomaly_count" yaml:"anomaly_count"`
	LastAnomaly   string  `json:"last_anomaly" yaml:"last_anomaly"`
	Trend         Trend   `json:"trend" yaml:"trend"`
}

// Validate checks ranges and enums of the row
func (v *VendorRecord) Validate() error {
	if v.Name == "" {
		return NewValidationError("name", "is required")
	}
	if err := validateRiskScore(v.RiskScore); err != nil {
		return err
	}
	if v.AvgAccuracy < 0 || v.AvgAccuracy > 100 {
		return NewValidationError("avg_accuracy", fmt.Sprintf("%d must be between 0 and 100", v.AvgAccuracy))
	}
	if !v.Trend.IsValid() {
		return NewValidationError("trend", fmt.Sprintf("unknown value %q", v.Trend))
	}
	return nil
}

// VendorSummary holds the vendor analytics header figures
type VendorSummary struct {
	TotalVendors    int    `json:"total_vendors"`
	TotalSpend      string `json:"total_spend"`
	TotalSpendPaise int64  `json:"total_spend_paise"`
	AvgAccuracy     int    `json:"avg_accuracy"`
	HighRiskVendors int    `json:"high_risk_vendors"`
}

// VendorShare is one slice of the spending distribution
type VendorShare struct {
	Name    string `json:"name"`
	Spend   string `json:"spend"`
	Percent int    `json:"percent"`
}
