package format

import "fmt"

// RiskLevel is the ordinal reading of a risk score
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskBand splits [0,1] into three levels: below Medium is low,
// below High is medium, everything else is high.
type RiskBand struct {
	Medium float64 `mapstructure:"medium" json:"medium"`
	High   float64 `mapstructure:"high" json:"high"`
}

// InvoiceRiskBand colours the explorer's risk score column
func InvoiceRiskBand() RiskBand {
	return RiskBand{Medium: 0.3, High: 0.6}
}

// VendorRiskBand drives the vendor risk badge
func VendorRiskBand() RiskBand {
	return RiskBand{Medium: 0.4, High: 0.7}
}

// Validate checks that the thresholds are ordered and inside [0,1]
func (b RiskBand) Validate() error {
	if b.Medium < 0.0 || b.Medium > 1.0 {
		return fmt.Errorf("Medium must be between 0.0 and 1.0, got %.2f", b.Medium)
	}
	if b.High < 0.0 || b.High > 1.0 {
		return fmt.Errorf("High must be between 0.0 and 1.0, got %.2f", b.High)
	}
	if b.Medium >= b.High {
		return fmt.Errorf("Medium (%.2f) must be less than High (%.2f)", b.Medium, b.High)
	}
	return nil
}

// Classify returns the level of score
func (b RiskBand) Classify(score float64) RiskLevel {
	switch {
	case score < b.Medium:
		return RiskLow
	case score < b.High:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// RiskPolicy holds the two independently configured bands
type RiskPolicy struct {
	Invoice RiskBand `mapstructure:"invoice" json:"invoice"`
	Vendor  RiskBand `mapstructure:"vendor" json:"vendor"`
}

// DefaultRiskPolicy returns the stock thresholds
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{Invoice: InvoiceRiskBand(), Vendor: VendorRiskBand()}
}

func (p RiskPolicy) Validate() error {
	if err := p.Invoice.Validate(); err != nil {
		return fmt.Errorf("invoice band: %w", err)
	}
	if err := p.Vendor.Validate(); err != nil {
		return fmt.Errorf("vendor band: %w", err)
	}
	return nil
}

var riskTone = map[RiskLevel]string{
	RiskLow:    "success",
	RiskMedium: "warning",
	RiskHigh:   "destructive",
}

// InvoiceRiskTone returns the text colour class for an invoice risk score
func (p RiskPolicy) InvoiceRiskTone(score float64) string {
	return "text-" + riskTone[p.Invoice.Classify(score)]
}

// VendorRiskBadge returns the Low/Medium/High Risk badge of a vendor
func (p RiskPolicy) VendorRiskBadge(score float64) Badge {
	switch p.Vendor.Classify(score) {
	case RiskHigh:
		return Badge{Variant: "destructive", Label: "High Risk"}
	case RiskMedium:
		return Badge{Variant: "secondary", Label: "Medium Risk"}
	default:
		return Badge{Variant: "outline", Label: "Low Risk", Tone: "success"}
	}
}

// IsHighRiskVendor reports whether score falls in the vendor band's high level
func (p RiskPolicy) IsHighRiskVendor(score float64) bool {
	return p.Vendor.Classify(score) == RiskHigh
}
