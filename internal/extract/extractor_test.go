package extract

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/showaudit/internal/contracts"
	"github.com/wonny/showaudit/internal/registry"
	"github.com/wonny/showaudit/pkg/logger"
)

func cells(first string) []string {
	return []string{first, "", "₪50", "₪90", "12 seats left"}
}

func testRegistry() *registry.Registry {
	return registry.FromEntries(
		[]contracts.HallEntry{
			{HallID: "H1", HallName: "Registry Hall"},
			{HallID: "H2", HallName: "Stock Hall"},
			{HallID: "H3", HallName: ""},
		},
		[]contracts.StockDateEntry{
			{StockID: "S1", HallID: "H2", EndUseDate: "20/04/2025 19:30:00"},
			{StockID: "S3", HallID: "H3", EndUseDate: "bogus"},
		},
	)
}

func TestExtract_EndToEndCellFallback(t *testing.T) {
	e := New(logger.Nop(), FailPage)
	page := &contracts.ProductPage{
		Title: "Concert X",
		Rows: []contracts.RowDescriptor{
			{Cells: cells("15/03/2025 20:00 Main Hall")},
		},
	}

	got, err := e.ExtractPage(page)
	require.NoError(t, err)

	want := []contracts.PerformanceRecord{{
		Title:        "Concert X",
		Date:         "15/03/2025",
		Time:         "20:00",
		Hall:         "Main Hall",
		SpecialPrice: "50",
		FullPrice:    "90",
		Available:    "12",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractPage() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_MalformedHiddenJSONFallsBack(t *testing.T) {
	e := New(logger.Nop(), FailPage)
	page := &contracts.ProductPage{
		Title:    "Concert X",
		HallsRaw: `[{&quot;d_hall_id&quot;:&quot;H1&quot;,&quot;hall_area_name&quot;:&quot;Trunc`,
		DatesRaw: `[{"stock_uid":"S1"`,
		Rows: []contracts.RowDescriptor{
			{StockID: "S1", HallID: "H1", Cells: cells("15/03/2025 20:00 Main Hall")},
		},
	}

	got, err := e.ExtractPage(page)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Main Hall", got[0].Hall)
	assert.Equal(t, "15/03/2025", got[0].Date)
	assert.Equal(t, "20:00", got[0].Time)
}

func TestResolveHall_Precedence(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name string
		row  contracts.RowDescriptor
		want string
	}{
		{
			name: "row hall id wins over stock and cell",
			row:  contracts.RowDescriptor{HallID: "H1", StockID: "S1", Cells: cells("15/03/2025 20:00 Cell Hall")},
			want: "Registry Hall",
		},
		{
			name: "unknown row hall id falls to stock hall",
			row:  contracts.RowDescriptor{HallID: "H404", StockID: "S1", Cells: cells("15/03/2025 20:00 Cell Hall")},
			want: "Stock Hall",
		},
		{
			name: "stock hall without name falls to cell",
			row:  contracts.RowDescriptor{StockID: "S3", Cells: cells("15/03/2025 20:00 Cell Hall")},
			want: "Cell Hall",
		},
		{
			name: "empty registry name falls to cell",
			row:  contracts.RowDescriptor{HallID: "H3", Cells: cells("15/03/2025 20:00 Cell Hall")},
			want: "Cell Hall",
		},
		{
			name: "nothing anywhere",
			row:  contracts.RowDescriptor{Cells: cells("15/03/2025 20:00")},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveHall(reg, tt.row))
		})
	}
}

func TestResolveDateTime_Precedence(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		name      string
		row       contracts.RowDescriptor
		wantDate  string
		wantClock string
	}{
		{
			name:      "attribute wins over stock date and cell",
			row:       contracts.RowDescriptor{StockID: "S1", DateShow: "01/05/2025 18:00:00", Cells: cells("15/03/2025 20:00 Hall")},
			wantDate:  "01/05/2025",
			wantClock: "18:00",
		},
		{
			name:      "attribute without space falls to stock date",
			row:       contracts.RowDescriptor{StockID: "S1", DateShow: "01/05/2025", Cells: cells("15/03/2025 20:00 Hall")},
			wantDate:  "20/04/2025",
			wantClock: "19:30",
		},
		{
			name:      "unusable stock date falls to cell",
			row:       contracts.RowDescriptor{StockID: "S3", Cells: cells("15/03/2025 20:00 Hall")},
			wantDate:  "15/03/2025",
			wantClock: "20:00",
		},
		{
			name:      "cell with date only yields nothing",
			row:       contracts.RowDescriptor{Cells: cells("15/03/2025")},
			wantDate:  "",
			wantClock: "",
		},
		{
			name:      "no source at all",
			row:       contracts.RowDescriptor{Cells: cells("")},
			wantDate:  "",
			wantClock: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, clock := resolveDateTime(reg, tt.row)
			assert.Equal(t, tt.wantDate, date)
			assert.Equal(t, tt.wantClock, clock)
		})
	}
}

func TestExtract_SkipsShortRowsAndKeepsOrder(t *testing.T) {
	e := New(logger.Nop(), FailPage)
	rows := []contracts.RowDescriptor{
		{StockID: "S1", Cells: cells("15/03/2025 20:00 A")},
		{StockID: "short", Cells: []string{"15/03/2025 20:00 A", "", "₪50"}},
		{StockID: "S1", Cells: cells("16/03/2025 21:00 B")},
	}

	got, err := e.Extract("Show", registry.Empty(), rows)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// duplicate stock ids stay separate records
	assert.Equal(t, "15/03/2025", got[0].Date)
	assert.Equal(t, "16/03/2025", got[1].Date)
	assert.Equal(t, "Show", got[1].Title)
}

func TestExtract_NumericFieldsEmptyWhenMissing(t *testing.T) {
	e := New(logger.Nop(), FailPage)
	rows := []contracts.RowDescriptor{
		{Cells: []string{"15/03/2025 20:00 A", "", "—", "", "sold out"}},
	}

	got, err := e.Extract("Show", nil, rows)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].SpecialPrice)
	assert.Equal(t, "", got[0].FullPrice)
	assert.Equal(t, "", got[0].Available)
}

func TestExtract_FailPage(t *testing.T) {
	var buf bytes.Buffer
	e := New(logger.NewWithWriter(&buf), FailPage)
	boom := errors.New("stale element")
	rows := []contracts.RowDescriptor{
		{Cells: cells("15/03/2025 20:00 A")},
		{Err: boom},
		{Cells: cells("16/03/2025 20:00 A")},
	}

	got, err := e.Extract("Concert X", registry.Empty(), rows)
	assert.Nil(t, got)

	var perr *PageExtractionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.Row)
	assert.Equal(t, "Concert X", perr.Title)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "Aborting page extraction")
}

func TestExtract_FailRow(t *testing.T) {
	e := New(logger.Nop(), FailRow)
	rows := []contracts.RowDescriptor{
		{Cells: cells("15/03/2025 20:00 A")},
		{Err: errors.New("stale element")},
		{Cells: cells("16/03/2025 20:00 A")},
	}

	got, err := e.Extract("Concert X", registry.Empty(), rows)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestExtract_EmptyPage(t *testing.T) {
	e := New(logger.Nop(), FailPage)
	got, err := e.Extract("Show", registry.Empty(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractPage_UnrecognizedLayout(t *testing.T) {
	tests := []struct {
		name string
		page *contracts.ProductPage
		want string
	}{
		{
			name: "no rows and no hidden inputs",
			page: &contracts.ProductPage{
				Title:    "Concert X",
				HallsRaw: "[]",
				DatesRaw: "[]",
				Missing:  []string{"input.show_hidden_all_halls", "input.show_hidden_all_dates", "tr.tr-product"},
			},
			want: "missing input.show_hidden_all_halls, input.show_hidden_all_dates, tr.tr-product",
		},
		{
			name: "no rows reported by the provider",
			page: &contracts.ProductPage{Title: "Concert X", HallsRaw: "[]", DatesRaw: "[]"},
			want: "no performance rows",
		},
		{
			name: "rows present but hidden input gone",
			page: &contracts.ProductPage{
				Title:   "Concert X",
				Rows:    []contracts.RowDescriptor{{Cells: cells("15/03/2025 20:00 A")}},
				Missing: []string{"input.show_hidden_all_dates"},
			},
			want: "missing input.show_hidden_all_dates",
		},
	}

	for _, mode := range []FailMode{FailPage, FailRow} {
		for _, tt := range tests {
			t.Run(mode.String()+"/"+tt.name, func(t *testing.T) {
				got, err := New(logger.Nop(), mode).ExtractPage(tt.page)
				assert.Nil(t, got)

				var perr *PageExtractionError
				require.True(t, errors.As(err, &perr))
				assert.Equal(t, -1, perr.Row)
				assert.ErrorIs(t, err, ErrLayoutMismatch)
				assert.Contains(t, err.Error(), tt.want)
				assert.NotContains(t, err.Error(), "at row")
			})
		}
	}
}

func TestParseFailMode(t *testing.T) {
	tests := []struct {
		input   string
		want    FailMode
		wantErr bool
	}{
		{"", FailPage, false},
		{"page", FailPage, false},
		{"row", FailRow, false},
		{"sometimes", FailPage, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFailMode(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "row", FailRow.String())
	assert.Equal(t, "page", FailPage.String())
}
