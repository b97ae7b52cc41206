// Package format maps fixture values to display metadata and computes the
// derived figures shown next to them. Every function here is pure.
package format

import (
	"strings"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// Badge is the visual treatment of a status-like value
type Badge struct {
	Variant string `json:"variant"`
	Label   string `json:"label"`
	Icon    string `json:"icon,omitempty"`
	Tone    string `json:"tone,omitempty"`
}

// CategoryMeta is the display metadata of an anomaly category
type CategoryMeta struct {
	Icon      string `json:"icon"`
	Label     string `json:"label"`
	StatLabel string `json:"stat_label"`
}

var categoryMeta = map[entity.AnomalyCategory]CategoryMeta{
	entity.CategoryDuplicate:  {Icon: "Copy", Label: "Duplicate Invoice", StatLabel: "Duplicates"},
	entity.CategoryGST:        {Icon: "BadgeAlert", Label: "Invalid GST", StatLabel: "Invalid GST"},
	entity.CategoryHSN:        {Icon: "Shield", Label: "HSN Mismatch", StatLabel: "HSN Mismatches"},
	entity.CategoryArithmetic: {Icon: "Calculator", Label: "Arithmetic Error", StatLabel: "Arithmetic Errors"},
	entity.CategoryPrice:      {Icon: "DollarSign", Label: "Price Outlier", StatLabel: "Price Outliers"},
}

// Category returns the icon and labels of c. Unknown categories report false.
func Category(c entity.AnomalyCategory) (CategoryMeta, bool) {
	meta, ok := categoryMeta[c]
	return meta, ok
}

var severityVariant = map[entity.Severity]string{
	entity.SeverityHigh:   "destructive",
	entity.SeverityMedium: "secondary",
	entity.SeverityLow:    "outline",
}

// SeverityBadge returns the badge for s; the label is the upper-cased severity
func SeverityBadge(s entity.Severity) (Badge, bool) {
	variant, ok := severityVariant[s]
	if !ok {
		return Badge{}, false
	}
	return Badge{Variant: variant, Label: strings.ToUpper(string(s))}, true
}

var invoiceStatusBadge = map[entity.InvoiceStatus]Badge{
	entity.InvoiceStatusCompliant: {Variant: "default", Label: "Compliant", Icon: "CheckCircle"},
	entity.InvoiceStatusWarning:   {Variant: "secondary", Label: "Warning", Icon: "AlertTriangle"},
	entity.InvoiceStatusError:     {Variant: "destructive", Label: "Error", Icon: "XCircle"},
}

// InvoiceStatusBadge returns the explorer badge of an invoice status
func InvoiceStatusBadge(s entity.InvoiceStatus) (Badge, bool) {
	b, ok := invoiceStatusBadge[s]
	return b, ok
}

var reportTypeLabel = map[entity.ReportType]string{
	entity.ReportTypeSummary:  "Summary",
	entity.ReportTypeDetailed: "Detailed",
	entity.ReportTypeAudit:    "Audit Trail",
}

// ReportTypeBadge returns the outline badge shown next to a report title
func ReportTypeBadge(t entity.ReportType) (Badge, bool) {
	label, ok := reportTypeLabel[t]
	if !ok {
		return Badge{}, false
	}
	return Badge{Variant: "outline", Label: label, Icon: "FileText"}, true
}

// TrendIcon returns the icon and tone for a vendor trend. Stable has no icon.
func TrendIcon(t entity.Trend) Badge {
	switch t {
	case entity.TrendUp:
		return Badge{Icon: "TrendingUp", Tone: "destructive"}
	case entity.TrendDown:
		return Badge{Icon: "TrendingDown", Tone: "success"}
	default:
		return Badge{}
	}
}

// AccuracyIndicator flags vendor accuracy: check at 95 and above, warning below 90
func AccuracyIndicator(accuracy int) Badge {
	switch {
	case accuracy >= 95:
		return Badge{Icon: "CheckCircle", Tone: "success"}
	case accuracy < 90:
		return Badge{Icon: "AlertTriangle", Tone: "warning"}
	default:
		return Badge{}
	}
}
