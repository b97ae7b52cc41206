package entity

// StatTrend is the period-over-period change shown on a stat card
type StatTrend struct {
	Value      float64 `json:"value" yaml:"value"`
	IsPositive bool    `json:"is_positive" yaml:"is_positive"`
}

// StatCard is one headline figure of the dashboard
type StatCard struct {
	Title   string    `json:"title" yaml:"title"`
	Value   string    `json:"value" yaml:"value"`
	Icon    string    `json:"icon" yaml:"icon"`
	Variant string    `json:"variant" yaml:"variant"`
	Trend   StatTrend `json:"trend" yaml:"trend"`
}

// RiskGauge is the overall compliance score widget
type RiskGauge struct {
	Score int    `json:"score" yaml:"score"`
	Label string `json:"label" yaml:"label"`
}

// RiskCategory is one of the top risk category cards
type RiskCategory struct {
	Title    string          `json:"title" yaml:"title"`
	Count    int             `json:"count" yaml:"count"`
	Caption  string          `json:"caption" yaml:"caption"`
	Icon     string          `json:"icon" yaml:"icon"`
	Tone     string          `json:"tone" yaml:"tone"`
	Category AnomalyCategory `json:"category" yaml:"category"`
}

// Dashboard is the landing view payload
type Dashboard struct {
	Stats          []StatCard     `json:"stats" yaml:"stats"`
	RiskGauge      RiskGauge      `json:"risk_gauge" yaml:"risk_gauge"`
	RiskCategories []RiskCategory `json:"risk_categories" yaml:"risk_categories"`
}
