// Package models defines data structures for the scraper.
package models

import (
	"strconv"
	"time"
)

// Column names used for every exported table.
const (
	ColumnPageNumber    = "page_number"
	ColumnAlbumTitle    = "album_title"
	ColumnArtistName    = "artist_name"
	ColumnMetascore     = "metascore"
	ColumnUserScore     = "user_score"
	ColumnReleaseDate   = "release_date"
	ColumnSummary       = "summary"
	ColumnAlbumURL      = "album_url"
	ColumnCoverImageURL = "cover_image_url"
	ColumnScrapedAt     = "scraped_at"
)

// Columns is the fixed column set of a single-page table.
var Columns = []string{
	ColumnAlbumTitle,
	ColumnArtistName,
	ColumnMetascore,
	ColumnUserScore,
	ColumnReleaseDate,
	ColumnSummary,
	ColumnAlbumURL,
	ColumnCoverImageURL,
	ColumnScrapedAt,
}

// Album is one entry extracted from a review listing. A nil pointer field
// means the value was missing on the page.
type Album struct {
	Title         string    `json:"album_title"`
	Artist        *string   `json:"artist_name"`
	Metascore     *float64  `json:"metascore"`
	UserScore     *float64  `json:"user_score"`
	ReleaseDate   *string   `json:"release_date"`
	Summary       *string   `json:"summary"`
	URL           *string   `json:"album_url"`
	CoverImageURL *string   `json:"cover_image_url"`
	ScrapedAt     time.Time `json:"scraped_at"`
}

// Row is one table row. PageNumber is only meaningful when the owning table
// is paged.
type Row struct {
	PageNumber int
	Album      *Album
}

// Table is an ordered set of rows sharing one column layout.
type Table struct {
	Paged bool
	Rows  []Row
}

// NewTable returns an empty table with the single-page column layout.
func NewTable() *Table {
	return &Table{}
}

// Append adds albums to the table, preserving their order.
func (t *Table) Append(albums ...*Album) {
	for _, a := range albums {
		t.Rows = append(t.Rows, Row{Album: a})
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Header returns the column names, including page_number for paged tables.
func (t *Table) Header() []string {
	if t != nil && t.Paged {
		return append([]string{ColumnPageNumber}, Columns...)
	}
	out := make([]string, len(Columns))
	copy(out, Columns)
	return out
}

// Cells renders the row as text in header order. Missing values become "".
func (r Row) Cells(paged bool) []string {
	a := r.Album
	cells := make([]string, 0, len(Columns)+1)
	if paged {
		cells = append(cells, strconv.Itoa(r.PageNumber))
	}
	return append(cells,
		a.Title,
		text(a.Artist),
		number(a.Metascore),
		number(a.UserScore),
		text(a.ReleaseDate),
		text(a.Summary),
		text(a.URL),
		text(a.CoverImageURL),
		a.ScrapedAt.Format(time.RFC3339),
	)
}

func text(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func number(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// String returns a pointer to s, for building albums in code.
func String(s string) *string { return &s }

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
