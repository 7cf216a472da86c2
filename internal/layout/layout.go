// Package layout describes the vendor markup the page reader depends on.
// The vendor changes its markup from time to time; a YAML file can override
// the built-in selectors without a rebuild.
package layout

// Layout holds CSS selectors and attribute names of the vendor pages
type Layout struct {
	Product Product `yaml:"product" json:"product"`
	Search  Search  `yaml:"search" json:"search"`
}

// Product describes a product page
type Product struct {
	// Title selectors, tried in order; the first non-empty text wins
	Title []string `yaml:"title" json:"title"`

	HiddenHalls string `yaml:"hidden_halls" json:"hidden_halls"`
	HiddenDates string `yaml:"hidden_dates" json:"hidden_dates"`
	Rows        string `yaml:"rows" json:"rows"`

	StockAttr    string `yaml:"stock_attr" json:"stock_attr"`
	HallAttr     string `yaml:"hall_attr" json:"hall_attr"`
	DateShowAttr string `yaml:"date_show_attr" json:"date_show_attr"`
}

// Search describes the search results page
type Search struct {
	Param      string `yaml:"param" json:"param"`
	EmptyValue string `yaml:"empty_value" json:"empty_value"` // search param value the vendor redirects to when nothing matched
	Links      string `yaml:"links" json:"links"`
	Card       string `yaml:"card" json:"card"` // ancestor of a link whose text also identifies the show
}

// Default returns the markup of the vendor as currently published
func Default() *Layout {
	return &Layout{
		Product: Product{
			Title: []string{
				"div.col-9.col-lg-4 h2.font-weight-600",
				"span.d-none.d-lg-inline strong",
			},
			HiddenHalls:  "input.show_hidden_all_halls",
			HiddenDates:  "input.show_hidden_all_dates",
			Rows:         "table.table-stock tbody tr.tr-product",
			StockAttr:    "data-stock-uid",
			HallAttr:     "data-hall-uid",
			DateShowAttr: "data-date-show",
		},
		Search: Search{
			Param:      "search_key",
			EmptyValue: "-",
			Links:      "a.link-block",
			Card:       "div.categories__item",
		},
	}
}
