package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/fintel-ai/internal/application/dispatcher"
	"github.com/garyjia/fintel-ai/internal/application/jobrunner"
	"github.com/garyjia/fintel-ai/internal/application/scheduler"
	"github.com/garyjia/fintel-ai/internal/domain/entity"
	"github.com/garyjia/fintel-ai/internal/domain/event"
	"github.com/garyjia/fintel-ai/internal/domain/workflow"
)

var testStart = time.Date(2025, 10, 25, 10, 20, 0, 0, time.UTC)

var testInvoices = []entity.InvoiceRecord{
	{ID: 1, InvoiceNo: "INV-23109", Vendor: "ABC Traders", Accuracy: 98, RiskScore: 0.15,
		Flags: []string{"Duplicate", "HSN Mismatch"}, Status: entity.InvoiceStatusWarning},
	{ID: 2, InvoiceNo: "INV-23110", Vendor: "TechNova Pvt Ltd", Accuracy: 94, RiskScore: 0.72,
		Flags: []string{"Invalid GST", "Price Outlier"}, Status: entity.InvoiceStatusError},
	{ID: 3, InvoiceNo: "INV-23111", Vendor: "Global Supplies Inc", Accuracy: 99, RiskScore: 0.08,
		Flags: []string{}, Status: entity.InvoiceStatusCompliant},
}

var testVendors = []entity.VendorRecord{
	{ID: 1, Name: "TechNova Pvt Ltd", TotalSpend: "₹45,50,000", AvgAccuracy: 89, RiskScore: 0.83, Trend: entity.TrendUp},
	{ID: 2, Name: "ABC Traders", TotalSpend: "₹32,40,000", AvgAccuracy: 94, RiskScore: 0.52, Trend: entity.TrendDown},
	{ID: 3, Name: "Global Supplies Inc", TotalSpend: "₹87,90,000", AvgAccuracy: 97, RiskScore: 0.12, Trend: entity.TrendStable},
	{ID: 4, Name: "Metro Logistics", TotalSpend: "₹28,70,000", AvgAccuracy: 91, RiskScore: 0.35, Trend: entity.TrendDown},
	{ID: 5, Name: "Office Supplies Co", TotalSpend: "₹15,80,000", AvgAccuracy: 96, RiskScore: 0.18, Trend: entity.TrendStable},
}

type mockInvoiceRepo struct{}

func (mockInvoiceRepo) Search(_ context.Context, f entity.InvoiceFilter) ([]entity.InvoiceRecord, error) {
	out := []entity.InvoiceRecord{}
	for _, inv := range testInvoices {
		q := strings.ToLower(f.Query)
		if q != "" && !strings.Contains(strings.ToLower(inv.InvoiceNo), q) && !strings.Contains(strings.ToLower(inv.Vendor), q) {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (mockInvoiceRepo) GetByNumber(_ context.Context, no string) (*entity.InvoiceRecord, error) {
	for _, inv := range testInvoices {
		if inv.InvoiceNo == no {
			cp := inv
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("invoice %s: %w", no, entity.ErrNotFound)
}

type mockAnomalyRepo struct {
	err error
}

func (m mockAnomalyRepo) List(_ context.Context, c entity.AnomalyCategory) ([]entity.AnomalyRecord, error) {
	all := []entity.AnomalyRecord{
		{ID: 1, Category: entity.CategoryDuplicate, InvoiceNo: "INV-23109", Severity: entity.SeverityHigh},
		{ID: 2, Category: entity.CategoryGST, InvoiceNo: "INV-23110", Severity: entity.SeverityHigh},
		{ID: 3, Category: entity.CategoryGST, InvoiceNo: "INV-23112", Severity: entity.SeverityLow},
	}
	out := []entity.AnomalyRecord{}
	for _, a := range all {
		if c == "" || a.Category == c {
			out = append(out, a)
		}
	}
	return out, m.err
}

func (m mockAnomalyRepo) CountByCategory(context.Context) (map[entity.AnomalyCategory]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return map[entity.AnomalyCategory]int{
		entity.CategoryDuplicate: 1, entity.CategoryGST: 2, entity.CategoryHSN: 0,
		entity.CategoryPrice: 0, entity.CategoryArithmetic: 0,
	}, nil
}

type mockVendorRepo struct{}

func (mockVendorRepo) List(context.Context) ([]entity.VendorRecord, error) {
	return append([]entity.VendorRecord(nil), testVendors...), nil
}

type mockReportRepo struct{}

var testReports = []entity.ReportRecord{
	{ID: "1", Title: "Monthly Compliance Summary - October 2025", Type: entity.ReportTypeSummary, Status: entity.ReportStatusReady},
	{ID: "3", Title: "Vendor Audit Trail - September 2025", Type: entity.ReportTypeAudit, Status: entity.ReportStatusReady},
	{ID: "4", Title: "Weekly Compliance Report", Type: entity.ReportTypeSummary, Status: entity.ReportStatusGenerating},
}

func (mockReportRepo) List(context.Context) ([]entity.ReportRecord, error) {
	return append([]entity.ReportRecord(nil), testReports...), nil
}

func (mockReportRepo) GetByID(_ context.Context, id string) (*entity.ReportRecord, error) {
	for _, r := range testReports {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("report %s: %w", id, entity.ErrNotFound)
}

type mockHSNRepo struct {
	mu       sync.Mutex
	mappings []entity.HSNMapping
}

func (m *mockHSNRepo) List(context.Context) ([]entity.HSNMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.HSNMapping(nil), m.mappings...), nil
}

func (m *mockHSNRepo) Upsert(_ context.Context, in []entity.HSNMapping) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := 0
outer:
	for _, n := range in {
		for i := range m.mappings {
			if m.mappings[i].Code == n.Code {
				m.mappings[i] = n
				continue outer
			}
		}
		m.mappings = append(m.mappings, n)
		added++
	}
	return added, nil
}

type mockImporter struct {
	rows []entity.HSNMapping
	err  error
}

func (m mockImporter) ParseHSN(string, io.Reader) ([]entity.HSNMapping, error) {
	return m.rows, m.err
}

type mockExporter struct {
	invoices int
	vendors  int
	shares   int
}

func (m *mockExporter) ExportInvoices(inv []entity.InvoiceRecord) ([]byte, error) {
	m.invoices = len(inv)
	return []byte("xlsx"), nil
}

func (m *mockExporter) ExportVendors(v []entity.VendorRecord, s []entity.VendorShare) ([]byte, error) {
	m.vendors, m.shares = len(v), len(s)
	return []byte("xlsx"), nil
}

type mockAlertSender struct {
	mu     sync.Mutex
	alerts []string
}

func (m *mockAlertSender) SendAlert(_ context.Context, title, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, title+": "+message)
	return nil
}

func (m *mockAlertSender) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.alerts...)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// harness wires a registry, dispatcher and notification service on a virtual clock
type harness struct {
	sched    *scheduler.ManualScheduler
	disp     dispatcher.Dispatcher
	registry *SessionRegistry
	notes    *NotificationService
	alerts   *mockAlertSender

	mu     sync.Mutex
	events []*event.Event
}

func newHarness(injector jobrunner.FailureInjector) *harness {
	h := &harness{
		sched:  scheduler.NewManualScheduler(testStart),
		disp:   dispatcher.NewDispatcher(),
		alerts: &mockAlertSender{},
	}
	h.disp.SubscribeAll("recorder", func(_ context.Context, evt *event.Event) error {
		h.mu.Lock()
		h.events = append(h.events, evt)
		h.mu.Unlock()
		return nil
	})
	h.registry = NewSessionRegistry(h.sched, dispatcher.AsPublisher(h.disp), nil, SessionConfig{
		Jobs: jobrunner.DefaultConfig(),
		Seeds: []entity.SeedUpload{
			{Name: "Invoice_ABC_Traders_Oct2025.pdf", AgeMins: 2, Status: workflow.StateCompleted, Progress: 100, Accuracy: 94},
		},
		MaxToasts: 3,
		Injector:  injector,
	}, nil)
	h.notes = NewNotificationService(h.registry, h.disp, h.alerts, &mockLogger{})
	h.notes.Register()
	return h
}

func (h *harness) eventTypes(sessionID string) []event.Type {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []event.Type
	for _, e := range h.events {
		if e.SessionID == sessionID {
			out = append(out, e.Type)
		}
	}
	return out
}
