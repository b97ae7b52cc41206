// Package fixtures holds the static sample datasets of the dashboard.
package fixtures

import (
	"bytes"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/pkg/utils"
)

//go:embed fixtures.yaml
var embedded []byte

// HSN is the mapping table plus the size of the full code book
type HSN struct {
	TotalCodes int                 `yaml:"total_codes"`
	Mappings   []entity.HSNMapping `yaml:"mappings"`
}

// Set is every fixture dataset. A Set is read-only after Load.
type Set struct {
	Dashboard      entity.Dashboard       `yaml:"dashboard"`
	Invoices       []entity.InvoiceRecord `yaml:"invoices"`
	Anomalies      []entity.AnomalyRecord `yaml:"anomalies"`
	RiskyVendors   []entity.RiskyVendor   `yaml:"risky_vendors"`
	Vendors        []entity.VendorRecord  `yaml:"vendors"`
	Reports        []entity.ReportRecord  `yaml:"reports"`
	ReportInsights []entity.Insight       `yaml:"report_insights"`
	HSN            HSN                    `yaml:"hsn"`
	Settings       entity.Settings        `yaml:"settings"`
	Uploads        []entity.SeedUpload    `yaml:"uploads"`
}

// Load decodes and validates the embedded datasets
func Load() (*Set, error) {
	return Parse(embedded)
}

// Parse decodes a fixture document. Unknown keys are rejected.
func Parse(data []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var set Set
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks the closed enums and ranges of every row
func (s *Set) Validate() error {
	for i := range s.Invoices {
		if err := s.Invoices[i].Validate(); err != nil {
			return fmt.Errorf("invoice %d: %w", i, err)
		}
		for _, gstin := range []string{s.Invoices[i].VendorGSTIN, s.Invoices[i].CompanyGSTIN} {
			if err := utils.ValidateGSTIN(gstin); err != nil {
				return fmt.Errorf("invoice %d: %w", i, entity.NewValidationError("gstin", err.Error()))
			}
		}
	}
	for i := range s.Anomalies {
		if err := s.Anomalies[i].Validate(); err != nil {
			return fmt.Errorf("anomaly %d: %w", i, err)
		}
	}
	for i := range s.RiskyVendors {
		if err := s.RiskyVendors[i].Validate(); err != nil {
			return fmt.Errorf("risky vendor %d: %w", i, err)
		}
	}
	for i := range s.Vendors {
		if err := s.Vendors[i].Validate(); err != nil {
			return fmt.Errorf("vendor %d: %w", i, err)
		}
	}
	for i := range s.Reports {
		if err := s.Reports[i].Validate(); err != nil {
			return fmt.Errorf("report %d: %w", i, err)
		}
	}
	for i := range s.HSN.Mappings {
		if err := s.HSN.Mappings[i].Validate(); err != nil {
			return fmt.Errorf("hsn mapping %d: %w", i, err)
		}
	}
	for i, c := range s.Dashboard.RiskCategories {
		if !c.Category.IsValid() {
			return fmt.Errorf("risk category %d: %w", i,
				entity.NewValidationError("category", fmt.Sprintf("unknown value %q", c.Category)))
		}
	}
	for i, u := range s.Uploads {
		if !u.Status.IsValid() {
			return fmt.Errorf("upload %d: %w", i,
				entity.NewValidationError("status", fmt.Sprintf("unknown value %q", u.Status)))
		}
		if u.Progress < 0 || u.Progress > 100 {
			return fmt.Errorf("upload %d: %w", i,
				entity.NewValidationError("progress", fmt.Sprintf("%d must be between 0 and 100", u.Progress)))
		}
	}
	return nil
}
