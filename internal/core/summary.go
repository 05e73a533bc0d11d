package core

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Category string `json:"category"`
	Color    string `json:"color"`
	Icon     string `json:"icon,omitempty"`
	Total    Money  `json:"total"`
}

// DailyTotal is one entry of a trailing daily series.
type DailyTotal struct {
	Date    Date   `json:"date"`
	Weekday string `json:"weekday"`
	Total   Money  `json:"total"`
}

// Summary bundles every derivation shown on the dashboard.
type Summary struct {
	AsOf         Date            `json:"as_of"`
	Total        Money           `json:"total"`
	MonthToDate  Money           `json:"month_to_date"`
	Count        int             `json:"count"`
	ByCategory   []CategoryTotal `json:"by_category"`
	TrailingDays []DailyTotal    `json:"trailing_days"`
}
