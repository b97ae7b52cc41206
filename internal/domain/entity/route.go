package entity

// Route identifies a navigable view
type Route string

const (
	RouteDashboard Route = "dashboard"
	RouteUpload    Route = "upload"
	RouteExplorer  Route = "explorer"
	RouteAnomalies Route = "anomalies"
	RouteVendors   Route = "vendors"
	RouteReports   Route = "reports"
	RouteChat      Route = "chat"
	RouteSettings  Route = "settings"
)

// NavItem is a sidebar entry
type NavItem struct {
	Route Route  `json:"route"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

// Navigation is the closed, ordered set of views
var Navigation = []NavItem{
	{RouteDashboard, "Dashboard", "/dashboard", "BarChart3"},
	{RouteUpload, "Upload Invoices", "/upload", "Upload"},
	{RouteExplorer, "Invoice Explorer", "/explorer", "FileSearch"},
	{RouteAnomalies, "Anomaly Center", "/anomalies", "ShieldAlert"},
	{RouteVendors, "Vendor Analytics", "/vendors", "Users"},
	{RouteReports, "Reports", "/reports", "FileSpreadsheet"},
	{RouteChat, "Chat with FINTEL", "/chat", "MessageSquare"},
	{RouteSettings, "Settings", "/settings", "Settings"},
}

// LookupRoute returns the navigation entry for r
func LookupRoute(r Route) (NavItem, bool) {
	for _, item := range Navigation {
		if item.Route == r {
			return item, true
		}
	}
	return NavItem{}, false
}
