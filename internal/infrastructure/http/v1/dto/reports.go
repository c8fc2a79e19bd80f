package dto

// ReportMeta describes what a report body was computed from.
type ReportMeta struct {
	Years   []int             `json:"years"`
	Stores  []string          `json:"stores,omitempty"`
	Period  string            `json:"period,omitempty"`
	Sources map[string]string `json:"sources"`
}

// Report wraps a report payload with its provenance. Data carries the
// engine's result shape unchanged.
type Report struct {
	Meta ReportMeta `json:"meta"`
	Data any        `json:"data"`
}

// DataSourcesResponse reports which snapshot sections came from the
// live backends and which fell back to demo data.
type DataSourcesResponse struct {
	Years   []int             `json:"years"`
	Sources map[string]string `json:"sources"`
}

// AccountClassification is one chart-of-accounts entry with the
// category it maps to. Section and Category are empty for unmapped
// accounts.
type AccountClassification struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Section  string `json:"section,omitempty"`
	Category string `json:"category,omitempty"`
	Label    string `json:"label,omitempty"`
}

// MoveResponse is a journal entry drill-down.
type MoveResponse struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name"`
	Date    string         `json:"date"`
	Partner string         `json:"partner,omitempty"`
	Ref     string         `json:"ref,omitempty"`
	State   string         `json:"state"`
	Lines   []MoveLineItem `json:"lines"`
}

// MoveLineItem is one line of a journal entry drill-down.
type MoveLineItem struct {
	AccountCode string  `json:"accountCode"`
	AccountName string  `json:"accountName,omitempty"`
	Description string  `json:"description,omitempty"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Balance     float64 `json:"balance"`
}
