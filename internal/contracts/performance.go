package contracts

// PerformanceRecord is one extracted showtime of a product page
// ⭐ SSOT: extraction output, consumed by the reconciler
//
// Numeric fields are digit-only strings; "" means the value was not extracted
// and is never replaced with zero.
type PerformanceRecord struct {
	Title        string `json:"title"`
	Date         string `json:"date"` // DD/MM/YYYY
	Time         string `json:"time"` // HH:MM
	Hall         string `json:"hall"`
	SpecialPrice string `json:"special_price"`
	FullPrice    string `json:"full_price"`
	Available    string `json:"available"`
}

// HallEntry maps a vendor hall id to its display name
type HallEntry struct {
	HallID   string `json:"hall_id"`
	HallName string `json:"hall_name"`
}

// StockDateEntry ties a stock id to its hall and end-use date ("DD/MM/YYYY HH:MM[:SS]")
type StockDateEntry struct {
	StockID    string `json:"stock_id"`
	HallID     string `json:"hall_id"`
	EndUseDate string `json:"end_use_date"`
}

// RowDescriptor is one product table row as read by the page-access provider
type RowDescriptor struct {
	StockID  string
	HallID   string
	DateShow string   // raw data-date-show attribute
	Cells    []string // text content of the row cells, hidden cells included

	// Err is set when the provider could not read the row
	Err error
}

// ProductPage is everything the engine needs from one loaded product page
type ProductPage struct {
	URL      string
	Title    string
	HallsRaw string // HTML-escaped JSON array of halls
	DatesRaw string // HTML-escaped JSON array of stock dates
	Rows     []RowDescriptor

	// Missing lists the layout selectors the provider found nothing for
	Missing []string

	// Skipped pages carry no rows and are not audited
	Skipped    bool
	SkipReason string

	// HTML is the raw page, kept for the diagnostics sink
	HTML []byte
}
