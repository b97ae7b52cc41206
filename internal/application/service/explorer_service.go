package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/fintel-ai/internal/application/format"
	"github.com/garyjia/fintel-ai/internal/application/port"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
)

const flaggedForReview = "This invoice has been flagged for manual review"

// InvoiceRow is an explorer table row with its display treatment
type InvoiceRow struct {
	entity.InvoiceRecord
	RiskLevel format.RiskLevel `json:"risk_level"`
	RiskTone  string           `json:"risk_tone"`
	Badge     format.Badge     `json:"badge"`
}

// InvoiceDetailView is the detail dialog: the row plus its compliance and audit tabs
type InvoiceDetailView struct {
	InvoiceRow
	Compliance []entity.ComplianceCheck `json:"compliance"`
	AuditTrail []entity.AuditTrailEntry `json:"audit_trail"`
}

// ExplorerService serves the invoice explorer
type ExplorerService struct {
	invoices port.InvoiceRepository
	exporter port.SpreadsheetExporter
	policy   format.RiskPolicy
	logger   Logger
}

// NewExplorerService creates a new ExplorerService
func NewExplorerService(invoices port.InvoiceRepository, exporter port.SpreadsheetExporter, policy format.RiskPolicy, logger Logger) *ExplorerService {
	return &ExplorerService{
		invoices: invoices,
		exporter: exporter,
		policy:   policy,
		logger:   orNop(logger),
	}
}

// ParseInvoiceFilter validates the status selection. Empty and "all" mean any status.
func ParseInvoiceFilter(query, status string) (entity.InvoiceFilter, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "all" {
		status = ""
	}
	f := entity.InvoiceFilter{Query: strings.TrimSpace(query), Status: entity.InvoiceStatus(status)}
	if f.Status != "" && !f.Status.IsValid() {
		return entity.InvoiceFilter{}, entity.NewValidationError("status", fmt.Sprintf("unknown value %q", status))
	}
	return f, nil
}

// Search returns matching invoices in id order
func (s *ExplorerService) Search(ctx context.Context, filter entity.InvoiceFilter) ([]InvoiceRow, error) {
	invoices, err := s.invoices.Search(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to search invoices", "query", filter.Query, "error", err)
		return nil, err
	}

	rows := make([]InvoiceRow, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, s.row(inv))
	}
	return rows, nil
}

// Detail returns one invoice with its compliance checks and audit trail
func (s *ExplorerService) Detail(ctx context.Context, invoiceNo string) (*InvoiceDetailView, error) {
	inv, err := s.invoices.GetByNumber(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}

	return &InvoiceDetailView{
		InvoiceRow: s.row(*inv),
		Compliance: ComplianceChecks(*inv),
		AuditTrail: AuditTrail(*inv),
	}, nil
}

// Export renders the filtered invoices as an XLSX workbook
func (s *ExplorerService) Export(ctx context.Context, filter entity.InvoiceFilter) ([]byte, error) {
	invoices, err := s.invoices.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	data, err := s.exporter.ExportInvoices(invoices)
	if err != nil {
		s.logger.Error("Failed to export invoices", "error", err)
		return nil, fmt.Errorf("export invoices: %w", err)
	}
	s.logger.Info("Invoices exported", "rows", len(invoices))
	return data, nil
}

func (s *ExplorerService) row(inv entity.InvoiceRecord) InvoiceRow {
	badge, _ := format.InvoiceStatusBadge(inv.Status)
	return InvoiceRow{
		InvoiceRecord: inv,
		RiskLevel:     s.policy.Invoice.Classify(inv.RiskScore),
		RiskTone:      s.policy.InvoiceRiskTone(inv.RiskScore),
		Badge:         badge,
	}
}

// ComplianceChecks gives one failed check per flag, or a single passed check
func ComplianceChecks(inv entity.InvoiceRecord) []entity.ComplianceCheck {
	if len(inv.Flags) == 0 {
		return []entity.ComplianceCheck{{Title: "All compliance checks passed", Passed: true}}
	}
	checks := make([]entity.ComplianceCheck, 0, len(inv.Flags))
	for _, flag := range inv.Flags {
		checks = append(checks, entity.ComplianceCheck{Title: flag, Detail: flaggedForReview})
	}
	return checks
}

// AuditTrail lists the processing steps; anomaly detection appears only for flagged invoices
func AuditTrail(inv entity.InvoiceRecord) []entity.AuditTrailEntry {
	trail := []entity.AuditTrailEntry{
		{Title: "File Uploaded", Detail: "by Finance Team • 10:20 AM"},
		{Title: "Data Extracted", Detail: fmt.Sprintf("Accuracy: %d%% • 10:21 AM", inv.Accuracy)},
		{Title: "GST Validated", Detail: "10:22 AM"},
	}
	if len(inv.Flags) > 0 {
		trail = append(trail, entity.AuditTrailEntry{Title: "Anomalies Detected", Detail: "10:23 AM"})
	}
	return trail
}
