package parser

import (
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-albums/models"
)

// Selectors used against one listing row.
const (
	RowSelector         = "tr"
	TitleSelector       = "a.title h3"
	ArtistSelector      = "div.artist"
	MetascoreSelector   = "div.metascore_w:not(.user)"
	UserScoreSelector   = "div.metascore_w.user"
	ReleaseDateSelector = "div.clamp-details span"
	SummarySelector     = "div.summary"
	DetailLinkSelector  = "a.title"
	ImageSelector       = "img"
)

// SkipReason explains why a row produced no album.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipMissingTitle SkipReason = "missing_title"
	SkipPanic        SkipReason = "extraction_panic"
)

// Extraction is the outcome of ExtractAlbum: either Album is set, or Skip
// names the reason the row was dropped. Invalid lists optional fields whose
// text could not be parsed and were left missing.
type Extraction struct {
	Album   *models.Album
	Skip    SkipReason
	Invalid []string
	Err     error
}

// OK reports whether the row produced an album.
func (e Extraction) OK() bool {
	return e.Album != nil && e.Skip == SkipNone
}

// ExtractAlbum builds an album from one listing row. It never panics; rows
// without a title are reported as skipped.
func ExtractAlbum(row *goquery.Selection, origin string, now time.Time) (out Extraction) {
	defer func() {
		if r := recover(); r != nil {
			out = Extraction{Skip: SkipPanic, Err: fmt.Errorf("extract album: %v", r)}
		}
	}()

	title := ExtractText(row.Find(TitleSelector))
	if title == nil {
		return Extraction{Skip: SkipMissingTitle}
	}

	album := &models.Album{
		Title:       *title,
		Artist:      NormalizeArtist(ExtractText(row.Find(ArtistSelector))),
		ReleaseDate: ExtractText(row.Find(ReleaseDateSelector)),
		Summary:     ExtractText(row.Find(SummarySelector)),
		ScrapedAt:   now,
	}

	var invalid []string
	var errs []error
	if v, err := ExtractNumber(row.Find(MetascoreSelector)); err != nil {
		invalid = append(invalid, models.ColumnMetascore)
		errs = append(errs, fmt.Errorf("%s: %w", models.ColumnMetascore, err))
	} else {
		album.Metascore = v
	}
	if v, err := ExtractNumber(row.Find(UserScoreSelector)); err != nil {
		invalid = append(invalid, models.ColumnUserScore)
		errs = append(errs, fmt.Errorf("%s: %w", models.ColumnUserScore, err))
	} else {
		album.UserScore = v
	}

	if href, ok := row.Find(DetailLinkSelector).First().Attr("href"); ok {
		album.URL = ResolveURL(&href, origin)
	}
	if src, ok := row.Find(ImageSelector).First().Attr("src"); ok && src != "" {
		album.CoverImageURL = &src
	}

	return Extraction{Album: album, Invalid: invalid, Err: errors.Join(errs...)}
}
