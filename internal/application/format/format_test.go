package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/workflow"
)

func sampleVendors() []entity.VendorRecord {
	return []entity.VendorRecord{
		{Name: "TechNova Pvt Ltd", TotalSpend: "₹45,50,000", AvgAccuracy: 89, RiskScore: 0.83},
		{Name: "ABC Traders", TotalSpend: "₹32,40,000", AvgAccuracy: 94, RiskScore: 0.52},
		{Name: "Global Supplies Inc", TotalSpend: "₹87,90,000", AvgAccuracy: 97, RiskScore: 0.12},
		{Name: "Metro Logistics", TotalSpend: "₹28,70,000", AvgAccuracy: 91, RiskScore: 0.35},
		{Name: "Office Supplies Co", TotalSpend: "₹15,80,000", AvgAccuracy: 96, RiskScore: 0.18},
	}
}

func TestCategory(t *testing.T) {
	tests := []struct {
		category entity.AnomalyCategory
		icon     string
		label    string
	}{
		{entity.CategoryDuplicate, "Copy", "Duplicate Invoice"},
		{entity.CategoryGST, "BadgeAlert", "Invalid GST"},
		{entity.CategoryHSN, "Shield", "HSN Mismatch"},
		{entity.CategoryArithmetic, "Calculator", "Arithmetic Error"},
		{entity.CategoryPrice, "DollarSign", "Price Outlier"},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			meta, ok := Category(tt.category)
			require.True(t, ok)
			assert.Equal(t, tt.icon, meta.Icon)
			assert.Equal(t, tt.label, meta.Label)

			again, _ := Category(tt.category)
			assert.Equal(t, meta, again)
		})
	}

	_, ok := Category("fraud")
	assert.False(t, ok)
}

func TestSeverityBadge(t *testing.T) {
	tests := []struct {
		severity entity.Severity
		variant  string
		label    string
	}{
		{entity.SeverityHigh, "destructive", "HIGH"},
		{entity.SeverityMedium, "secondary", "MEDIUM"},
		{entity.SeverityLow, "outline", "LOW"},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			first, ok := SeverityBadge(tt.severity)
			require.True(t, ok)
			second, _ := SeverityBadge(tt.severity)

			assert.Equal(t, tt.variant, first.Variant)
			assert.Equal(t, tt.label, first.Label)
			assert.Equal(t, first, second)
		})
	}

	_, ok := SeverityBadge("critical")
	assert.False(t, ok)
}

func TestRiskBands_AreIndependent(t *testing.T) {
	policy := DefaultRiskPolicy()

	tests := []struct {
		score       float64
		invoiceTone string
		vendorLabel string
	}{
		{0.0, "text-success", "Low Risk"},
		{0.29, "text-success", "Low Risk"},
		{0.3, "text-warning", "Low Risk"},
		{0.35, "text-warning", "Low Risk"},
		{0.4, "text-warning", "Medium Risk"},
		{0.59, "text-warning", "Medium Risk"},
		{0.6, "text-destructive", "Medium Risk"},
		{0.69, "text-destructive", "Medium Risk"},
		{0.7, "text-destructive", "High Risk"},
		{1.0, "text-destructive", "High Risk"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.invoiceTone, policy.InvoiceRiskTone(tt.score), "invoice tone for %.2f", tt.score)
		assert.Equal(t, tt.vendorLabel, policy.VendorRiskBadge(tt.score).Label, "vendor badge for %.2f", tt.score)
	}
}

func TestRiskBand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		band    RiskBand
		wantErr bool
	}{
		{"invoice default", InvoiceRiskBand(), false},
		{"vendor default", VendorRiskBand(), false},
		{"medium negative", RiskBand{Medium: -0.1, High: 0.5}, true},
		{"high above one", RiskBand{Medium: 0.1, High: 1.5}, true},
		{"inverted", RiskBand{Medium: 0.7, High: 0.4}, true},
		{"equal", RiskBand{Medium: 0.5, High: 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.band.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	bad := RiskPolicy{Invoice: InvoiceRiskBand(), Vendor: RiskBand{Medium: 0.9, High: 0.1}}
	assert.ErrorContains(t, bad.Validate(), "vendor band")
}

func TestParseINR(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"₹45,50,000", 455000000, false},
		{"₹1,25,500.00", 12550000, false},
		{"₹54,980.00", 5498000, false},
		{" 1,000.5 ", 100050, false},
		{"-₹10", 0, true},
		{"₹-10", -1000, false},
		{"", 0, true},
		{"₹", 0, true},
		{"₹12.345", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseINR(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatINR(t *testing.T) {
	assert.Equal(t, "₹1,25,500.00", FormatINR(12550000))
	assert.Equal(t, "₹54,980.00", FormatINR(5498000))
	assert.Equal(t, "₹999.05", FormatINR(99905))
	assert.Equal(t, "₹1,00,00,000.00", FormatINR(1000000000))
	assert.Equal(t, "-₹12.00", FormatINR(-1200))
	assert.Equal(t, "₹45,50,000", FormatINRWhole(455000000))
	assert.Equal(t, "₹0", FormatINRWhole(0))
}

func TestFormatINR_RoundTrip(t *testing.T) {
	for _, s := range []string{"₹1,25,500.00", "₹89,200.00", "₹43,750.00", "₹28,450.00"} {
		paise, err := ParseINR(s)
		require.NoError(t, err)
		assert.Equal(t, s, FormatINR(paise))
	}
}

func TestSpendShares(t *testing.T) {
	shares, err := SpendShares(sampleVendors())
	require.NoError(t, err)

	got := make([]int, len(shares))
	sum := 0
	for i, s := range shares {
		got[i] = s.Percent
		sum += s.Percent
	}
	assert.Equal(t, []int{22, 15, 42, 14, 8}, got)
	assert.InDelta(t, 100, sum, float64(len(shares)-1))
}

func TestSpendShares_Empty(t *testing.T) {
	shares, err := SpendShares(nil)
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestSpendShares_BadAmount(t *testing.T) {
	_, err := SpendShares([]entity.VendorRecord{{Name: "Broken", TotalSpend: "n/a"}})
	assert.ErrorContains(t, err, "Broken")
}

func TestSummarizeVendors(t *testing.T) {
	summary, err := SummarizeVendors(sampleVendors(), DefaultRiskPolicy())
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalVendors)
	assert.Equal(t, "₹2.10Cr", summary.TotalSpend)
	assert.Equal(t, int64(2103000000), summary.TotalSpendPaise)
	assert.Equal(t, 93, summary.AvgAccuracy)
	assert.Equal(t, 1, summary.HighRiskVendors)
}

func TestAverageAccuracy(t *testing.T) {
	assert.Equal(t, 0, AverageAccuracy(nil))
	assert.Equal(t, 93, AverageAccuracy([]int{89, 94, 97, 91, 96}))
	assert.Equal(t, 96, AverageAccuracy([]int{95, 96}))
}

func TestDisplayHelpers(t *testing.T) {
	b, ok := InvoiceStatusBadge(entity.InvoiceStatusError)
	require.True(t, ok)
	assert.Equal(t, Badge{Variant: "destructive", Label: "Error", Icon: "XCircle"}, b)

	rb, ok := ReportTypeBadge(entity.ReportTypeAudit)
	require.True(t, ok)
	assert.Equal(t, "Audit Trail", rb.Label)

	assert.Equal(t, "TrendingUp", TrendIcon(entity.TrendUp).Icon)
	assert.Equal(t, "", TrendIcon(entity.TrendStable).Icon)

	assert.Equal(t, "success", AccuracyIndicator(95).Tone)
	assert.Equal(t, "", AccuracyIndicator(90).Tone)
	assert.Equal(t, "warning", AccuracyIndicator(89).Tone)

	assert.Equal(t, "Processing", UploadStatus(workflow.StatePending).Label)
	assert.Equal(t, "Completed", UploadStatus(workflow.StateCompleted).Label)
	assert.Equal(t, "Error", UploadStatus(workflow.StateFailed).Label)
}
