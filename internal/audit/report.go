package audit

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/wonny/showaudit/internal/contracts"
	"github.com/wonny/showaudit/internal/registry"
)

// Report summarizes one audit run
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Shows      int       `json:"shows"`
	Pages      int       `json:"pages"`

	Updated   []UpdatedRecord               `json:"updated"`
	Unmatched []contracts.PerformanceRecord `json:"unmatched"`
	Failed    []PageFailure                 `json:"failed"`
	Skipped   []PageFailure                 `json:"skipped"`
	NotFound  []string                      `json:"not_found"` // shows the vendor search did not find
}

// UpdatedRecord is a record written to a ledger row
type UpdatedRecord struct {
	Record   contracts.PerformanceRecord `json:"record"`
	RowIndex int                         `json:"row_index"`
	Sold     int                         `json:"sold"`
}

// PageFailure is a page (or show) that produced no records
type PageFailure struct {
	Show       string `json:"show"`
	URL        string `json:"url,omitempty"`
	Reason     string `json:"reason"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

// Render writes the updated and unmatched tables, followed by failures
func (r *Report) Render(w io.Writer) {
	if len(r.Updated) > 0 {
		fmt.Fprintln(w, "\nUpdated events:")
		t := newTable(w)
		t.AppendHeader(table.Row{"Row", "Title", "Date", "Time", "Hall", "Special", "Full", "Available", "Sold"})
		for _, u := range r.Updated {
			rec := u.Record
			t.AppendRow(table.Row{u.RowIndex, rec.Title, rec.Date, rec.Time, rec.Hall, rec.SpecialPrice, rec.FullPrice, rec.Available, u.Sold})
		}
		t.Render()
	} else {
		fmt.Fprintln(w, "\nNo events were updated.")
	}

	if len(r.Unmatched) > 0 {
		fmt.Fprintf(w, "\n%d events were NOT matched in the ledger:\n", len(r.Unmatched))
		renderRecords(w, r.Unmatched)
	}

	if len(r.Failed) > 0 {
		fmt.Fprintf(w, "\n%d pages failed:\n", len(r.Failed))
		t := newTable(w)
		t.AppendHeader(table.Row{"Show", "URL", "Reason", "Diagnostic"})
		for _, f := range r.Failed {
			t.AppendRow(table.Row{f.Show, f.URL, f.Reason, f.Diagnostic})
		}
		t.Render()
	}

	if len(r.NotFound) > 0 {
		fmt.Fprintf(w, "\nNot found on the vendor site: %v\n", r.NotFound)
	}
}

// RenderRecords writes extracted records as a table
func RenderRecords(w io.Writer, records []contracts.PerformanceRecord) {
	renderRecords(w, records)
}

// RenderMetadata writes the halls and stock dates indexed from a page's hidden inputs
func RenderMetadata(w io.Writer, reg *registry.Registry) {
	fmt.Fprintf(w, "\n%d halls:\n", reg.HallCount())
	t := newTable(w)
	t.AppendHeader(table.Row{"Hall ID", "Name"})
	for _, h := range reg.Halls() {
		t.AppendRow(table.Row{h.HallID, h.HallName})
	}
	t.Render()

	fmt.Fprintf(w, "\n%d stock dates:\n", reg.StockCount())
	t = newTable(w)
	t.AppendHeader(table.Row{"Stock UID", "Hall ID", "End use date"})
	for _, d := range reg.StockDates() {
		t.AppendRow(table.Row{d.StockID, d.HallID, d.EndUseDate})
	}
	t.Render()
}

func renderRecords(w io.Writer, records []contracts.PerformanceRecord) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Title", "Date", "Time", "Hall", "Special", "Full", "Available"})
	for _, rec := range records {
		t.AppendRow(table.Row{rec.Title, rec.Date, rec.Time, rec.Hall, rec.SpecialPrice, rec.FullPrice, rec.Available})
	}
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	return t
}
