package entity

import "fmt"

// InvoiceStatus is the compliance verdict of an invoice
type InvoiceStatus string

const (
	InvoiceStatusCompliant InvoiceStatus = "compliant"
	InvoiceStatusWarning   InvoiceStatus = "warning"
	InvoiceStatusError     InvoiceStatus = "error"
)

// IsValid checks if the status is one of the defined constants
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusCompliant, InvoiceStatusWarning, InvoiceStatusError:
		return true
	default:
		return false
	}
}

// InvoiceRecord is a read-only fixture row of the invoice explorer
type InvoiceRecord struct {
	ID           int           `json:"id" yaml:"id"`
	InvoiceNo    string        `json:"invoice_no" yaml:"invoice_no"`
	Vendor       string        `json:"vendor" yaml:"vendor"`
	Date         string        `json:"date" yaml:"date"`
	Amount       string        `json:"amount" yaml:"amount"`
	VendorGSTIN  string        `json:"vendor_gstin" yaml:"vendor_gstin"`
	CompanyGSTIN string        `json:"company_gstin" yaml:"company_gstin"`
	Accuracy     int           `json:"accuracy" yaml:"accuracy"`
	RiskScore    float64       `json:"risk_score" yaml:"risk_score"`
	Flags        []string      `json:"flags" yaml:"flags"`
	Status       InvoiceStatus `json:"status" yaml:"status"`
}

// Validate checks ranges and enums of the row
func (i *InvoiceRecord) Validate() error {
	if i.InvoiceNo == "" {
		return NewValidationError("invoice_no", "is required")
	}
	if err := validateRiskScore(i.RiskScore); err != nil {
		return err
	}
	if !i.Status.IsValid() {
		return NewValidationError("status", fmt.Sprintf("unknown value %q", i.Status))
	}
	return nil
}

// InvoiceFilter narrows the explorer listing
type InvoiceFilter struct {
	Query  string
	Status InvoiceStatus
}

// AuditTrailEntry is one step of an invoice's processing history
type AuditTrailEntry struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// ComplianceCheck is one row of the compliance tab
type ComplianceCheck struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Passed bool   `json:"passed"`
}

// InvoiceDetail is an invoice plus the views derived from it
type InvoiceDetail struct {
	Invoice    InvoiceRecord     `json:"invoice"`
	Compliance []ComplianceCheck `json:"compliance"`
	AuditTrail []AuditTrailEntry `json:"audit_trail"`
}
