package contracts

// LedgerRow is one row of the tickets ledger
// ⭐ SSOT: row identity is RowIndex; data rows start at 2 (row 1 is the header)
type LedgerRow struct {
	RowIndex     int    `json:"row_index"`
	Production   string `json:"production"`
	Hall         string `json:"hall"`
	Date         string `json:"date"` // stored text, expected DD/MM/YYYY
	Organization string `json:"organization"`
	Received     *int   `json:"received"` // nil when the cell is empty
	Sold         *int   `json:"sold"`
	UpdatedAt    string `json:"updated_at"`
}

// FirstLedgerRow is the index of the first data row
const FirstLedgerRow = 2
