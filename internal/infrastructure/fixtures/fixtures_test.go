package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/workflow"
)

func TestLoad(t *testing.T) {
	set, err := Load()
	require.NoError(t, err)

	assert.Len(t, set.Invoices, 4)
	assert.Len(t, set.Anomalies, 5)
	assert.Len(t, set.Vendors, 5)
	assert.Len(t, set.Reports, 4)
	assert.Len(t, set.RiskyVendors, 3)
	assert.Len(t, set.Dashboard.Stats, 4)
	assert.Len(t, set.Dashboard.RiskCategories, 3)
	assert.Len(t, set.HSN.Mappings, 3)
	assert.Equal(t, 1245, set.HSN.TotalCodes)

	assert.Equal(t, "INV-23110", set.Invoices[1].InvoiceNo)
	assert.Equal(t, "₹1,25,500.00", set.Invoices[1].Amount)
	assert.Equal(t, []string{"Invalid GST", "Price Outlier"}, set.Invoices[1].Flags)
	assert.Empty(t, set.Invoices[2].Flags)

	assert.Equal(t, entity.CategoryHSN, set.Anomalies[2].Category)
	assert.Equal(t, "Billed 18% GST, expected 12% for HSN 998312", set.Anomalies[2].Description)
	assert.Equal(t, "Line item totals don't match invoice total", set.Anomalies[4].Description)

	assert.Equal(t, "Total Invoices Processed", set.Dashboard.Stats[0].Title)
	assert.InDelta(t, 12.5, set.Dashboard.Stats[0].Trend.Value, 0.0001)
	assert.False(t, set.Dashboard.Stats[1].Trend.IsPositive)
	assert.Equal(t, 75, set.Dashboard.RiskGauge.Score)

	assert.Equal(t, entity.ReportStatusGenerating, set.Reports[3].Status)
	assert.Equal(t, "Current week's compliance status and flagged invoices", set.Reports[3].Description)

	require.Len(t, set.Uploads, 2)
	assert.Equal(t, workflow.StateCompleted, set.Uploads[0].Status)
	assert.Equal(t, 65, set.Uploads[1].Progress)

	assert.False(t, set.Settings.Learning.FieldLevelFeedback)
	assert.False(t, set.Settings.Notifications.VendorRiskChanges)
	assert.Len(t, set.Settings.APIKeys, 3)
}

func TestParse_RejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"severity", "anomalies:\n  - {id: 1, category: gst, invoice_no: X, severity: critical}\n"},
		{"category", "anomalies:\n  - {id: 1, category: fraud, invoice_no: X, severity: low}\n"},
		{"vendor risk", "vendors:\n  - {id: 1, name: V, risk_score: 1.2, trend: up}\n"},
		{"invoice status", "invoices:\n  - {id: 1, invoice_no: X, risk_score: 0.1, status: unknown}\n"},
		{"gstin", "invoices:\n  - {id: 1, invoice_no: X, risk_score: 0.1, status: error, vendor_gstin: 27abc, company_gstin: 29ADANI1234F1ZX}\n"},
		{"report type", "reports:\n  - {id: \"1\", type: weekly, status: ready}\n"},
		{"hsn rate", "hsn:\n  mappings:\n    - {code: \"998312\", rate: 7}\n"},
		{"upload status", "uploads:\n  - {name: a.pdf, status: PROCESSING}\n"},
		{"unknown key", "invoicez: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_ValidationErrorIsTyped(t *testing.T) {
	_, err := Parse([]byte("vendors:\n  - {id: 1, name: V, risk_score: -0.5, trend: up}\n"))
	require.Error(t, err)
	assert.True(t, entity.IsValidationError(err))
}
