// Package listfilter derives filtered and sorted views of a user's list.
package listfilter

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/enthub-api/internal/domain"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DateField selects which timestamp the date sorts use.
type DateField string

const (
	AddedAt   DateField = "addedAt"
	WatchedAt DateField = "watchedAt"
)

// Sort modes.
const (
	SortDateDesc       = "date-desc"
	SortDateAsc        = "date-asc"
	SortTitleAsc       = "title-asc"
	SortTitleDesc      = "title-desc"
	SortRatingDesc     = "rating-desc"
	SortPopularityDesc = "popularity-desc"
	SortYearDesc       = "year-desc"
	SortYearAsc        = "year-asc"
)

const TypeAll = "all"

// SortModes lists every supported sort mode.
var SortModes = []string{
	SortDateDesc, SortDateAsc, SortTitleAsc, SortTitleDesc,
	SortRatingDesc, SortPopularityDesc, SortYearDesc, SortYearAsc,
}

// Engine holds the five filter and sort controls. The zero value of each
// filter means "no filter"; use New for the defaults.
type Engine struct {
	DateField      DateField
	SortBy         string
	TypeFilter     string
	GenreFilter    string
	LanguageFilter string
	StatusFilter   string
}

func New(field DateField) *Engine {
	e := &Engine{DateField: field}
	e.ClearFilters()
	return e
}

// ForKind returns an engine dated by the timestamp that kind records.
func ForKind(kind domain.ListKind) *Engine {
	if kind == domain.ListWatched {
		return New(WatchedAt)
	}
	return New(AddedAt)
}

// FromQuery builds an engine from the sort, type, genre, language and status
// query parameters. Missing parameters keep their defaults.
func FromQuery(field DateField, q url.Values) *Engine {
	e := New(field)
	if v := q.Get("sort"); v != "" {
		e.SortBy = v
	}
	if v := q.Get("type"); v != "" {
		e.TypeFilter = v
	}
	e.GenreFilter = q.Get("genre")
	e.LanguageFilter = q.Get("language")
	e.StatusFilter = q.Get("status")
	return e
}

// ClearFilters resets every control to its default.
func (e *Engine) ClearFilters() {
	e.SortBy = SortDateDesc
	e.TypeFilter = TypeAll
	e.GenreFilter = ""
	e.LanguageFilter = ""
	e.StatusFilter = ""
}

// HasActiveFilters reports whether any control differs from its default.
func (e *Engine) HasActiveFilters() bool {
	return e.SortBy != SortDateDesc ||
		e.TypeFilter != TypeAll ||
		e.GenreFilter != "" ||
		e.LanguageFilter != "" ||
		e.StatusFilter != ""
}

func (e *Engine) AvailableGenres(items []domain.ListEntry) []string {
	var all []string
	for _, it := range items {
		all = append(all, it.Genres...)
	}
	return uniqueSorted(all)
}

func (e *Engine) AvailableLanguages(items []domain.ListEntry) []string {
	var all []string
	for _, it := range items {
		all = append(all, it.OriginalLanguage)
	}
	return uniqueSorted(all)
}

func (e *Engine) AvailableStatuses(items []domain.ListEntry) []string {
	var all []string
	for _, it := range items {
		all = append(all, it.Status)
	}
	return uniqueSorted(all)
}

// FilteredAndSorted applies the type, genre, language and status filters in
// that order and sorts the survivors. items is never modified.
func (e *Engine) FilteredAndSorted(items []domain.ListEntry) []domain.ListEntry {
	out := make([]domain.ListEntry, 0, len(items))
	for _, it := range items {
		if e.keep(it) {
			out = append(out, it)
		}
	}
	if less := e.less(out); less != nil {
		sort.SliceStable(out, less)
	}
	return out
}

func (e *Engine) keep(it domain.ListEntry) bool {
	if e.TypeFilter != TypeAll && it.MediaType != e.TypeFilter {
		return false
	}
	if e.GenreFilter != "" && !contains(it.Genres, e.GenreFilter) {
		return false
	}
	if e.LanguageFilter != "" && it.OriginalLanguage != e.LanguageFilter {
		return false
	}
	if e.StatusFilter != "" && it.Status != e.StatusFilter {
		return false
	}
	return true
}

// less returns the comparator for SortBy, or nil for an unknown mode.
func (e *Engine) less(s []domain.ListEntry) func(i, j int) bool {
	switch e.SortBy {
	case SortDateDesc:
		return func(i, j int) bool { return e.date(s[i]) > e.date(s[j]) }
	case SortDateAsc:
		return func(i, j int) bool { return e.date(s[i]) < e.date(s[j]) }
	case SortTitleAsc, SortTitleDesc:
		c := collate.New(language.Und)
		desc := e.SortBy == SortTitleDesc
		return func(i, j int) bool {
			r := c.CompareString(s[i].Title, s[j].Title)
			if desc {
				return r > 0
			}
			return r < 0
		}
	case SortRatingDesc:
		return func(i, j int) bool { return s[i].VoteAverage > s[j].VoteAverage }
	case SortPopularityDesc:
		return func(i, j int) bool { return s[i].Popularity > s[j].Popularity }
	case SortYearDesc:
		return func(i, j int) bool { return year(s[i].ReleaseDate) > year(s[j].ReleaseDate) }
	case SortYearAsc:
		return func(i, j int) bool { return year(s[i].ReleaseDate) < year(s[j].ReleaseDate) }
	}
	return nil
}

func (e *Engine) date(it domain.ListEntry) int64 {
	if e.DateField == WatchedAt {
		return it.WatchedAt
	}
	return it.AddedAt
}

// year parses the leading digits of the first four characters of a release
// date. Missing or unparsable dates are year 0.
func year(releaseDate string) int {
	if len(releaseDate) > 4 {
		releaseDate = releaseDate[:4]
	}
	n := 0
	for n < len(releaseDate) && releaseDate[n] >= '0' && releaseDate[n] <= '9' {
		n++
	}
	y, err := strconv.Atoi(releaseDate[:n])
	if err != nil {
		return 0
	}
	return y
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := []string{}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
