package format

import (
	"fmt"
	"math"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

// TotalSpend sums the vendors' spend strings, in paise
func TotalSpend(vendors []entity.VendorRecord) (int64, error) {
	var total int64
	for _, v := range vendors {
		amount, err := ParseINR(v.TotalSpend)
		if err != nil {
			return 0, fmt.Errorf("vendor %s: %w", v.Name, err)
		}
		total += amount
	}
	return total, nil
}

// SpendShares returns each vendor's share of total spend, each rounded on its own.
// The shares therefore sum to 100 only within ±(len(vendors)-1).
func SpendShares(vendors []entity.VendorRecord) ([]entity.VendorShare, error) {
	total, err := TotalSpend(vendors)
	if err != nil {
		return nil, err
	}

	shares := make([]entity.VendorShare, 0, len(vendors))
	for _, v := range vendors {
		amount, _ := ParseINR(v.TotalSpend)
		percent := 0
		if total > 0 {
			percent = int(math.Round(float64(amount) / float64(total) * 100))
		}
		shares = append(shares, entity.VendorShare{Name: v.Name, Spend: v.TotalSpend, Percent: percent})
	}
	return shares, nil
}

// AverageAccuracy returns the rounded mean of values, 0 for an empty slice
func AverageAccuracy(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}

// VendorAccuracies extracts the average accuracy column
func VendorAccuracies(vendors []entity.VendorRecord) []int {
	out := make([]int, len(vendors))
	for i, v := range vendors {
		out[i] = v.AvgAccuracy
	}
	return out
}

// SummarizeVendors computes the vendor analytics header
func SummarizeVendors(vendors []entity.VendorRecord, policy RiskPolicy) (entity.VendorSummary, error) {
	total, err := TotalSpend(vendors)
	if err != nil {
		return entity.VendorSummary{}, err
	}

	highRisk := 0
	for _, v := range vendors {
		if policy.IsHighRiskVendor(v.RiskScore) {
			highRisk++
		}
	}

	return entity.VendorSummary{
		TotalVendors:    len(vendors),
		TotalSpend:      FormatCrores(total),
		TotalSpendPaise: total,
		AvgAccuracy:     AverageAccuracy(VendorAccuracies(vendors)),
		HighRiskVendors: highRisk,
	}, nil
}
