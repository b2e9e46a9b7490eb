package domain

// ListKind names one of the two per-user lists.
type ListKind string

const (
	ListWatchlist ListKind = "watchlist"
	ListWatched   ListKind = "watched"
)

// Valid reports whether k is a known list.
func (k ListKind) Valid() bool { return k == ListWatchlist || k == ListWatched }

// Media types accepted for list entries.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// ListEntry is one item on a user's watchlist or watched list.
// PK: user_id, SK: tmdb_id. AddedAt (watchlist) and WatchedAt (watched) are
// Unix milliseconds; only the one matching the list is set.
type ListEntry struct {
	EntryID          string   `json:"id" dynamodbav:"entry_id"`
	UserID           string   `json:"userId" dynamodbav:"user_id"`
	TmdbID           int64    `json:"tmdbId" dynamodbav:"tmdb_id"`
	MediaType        string   `json:"mediaType" dynamodbav:"media_type"`
	Title            string   `json:"title" dynamodbav:"title"`
	PosterPath       *string  `json:"posterPath,omitempty" dynamodbav:"poster_path,omitempty"`
	BackdropPath     *string  `json:"backdropPath,omitempty" dynamodbav:"backdrop_path,omitempty"`
	Overview         string   `json:"overview,omitempty" dynamodbav:"overview,omitempty"`
	AddedAt          int64    `json:"addedAt,omitempty" dynamodbav:"added_at,omitempty"`
	WatchedAt        int64    `json:"watchedAt,omitempty" dynamodbav:"watched_at,omitempty"`
	Rating           *float64 `json:"rating,omitempty" dynamodbav:"rating,omitempty"`
	VoteAverage      float64  `json:"voteAverage,omitempty" dynamodbav:"vote_average,omitempty"`
	Popularity       float64  `json:"popularity,omitempty" dynamodbav:"popularity,omitempty"`
	ReleaseDate      string   `json:"releaseDate,omitempty" dynamodbav:"release_date,omitempty"`
	Genres           []string `json:"genres,omitempty" dynamodbav:"genres,omitempty"`
	OriginalLanguage string   `json:"originalLanguage,omitempty" dynamodbav:"original_language,omitempty"`
	Runtime          int      `json:"runtime,omitempty" dynamodbav:"runtime,omitempty"`
	Status           string   `json:"status,omitempty" dynamodbav:"status,omitempty"`
}

// ListStatus reports an item's membership in both lists.
type ListStatus struct {
	InWatchlist bool `json:"inWatchlist"`
	InWatched   bool `json:"inWatched"`
}

// MediaInput carries the fields a caller supplies when adding an item to a list.
type MediaInput struct {
	TmdbID           int64    `json:"tmdbId" validate:"required,gt=0"`
	MediaType        string   `json:"mediaType" validate:"required,oneof=movie tv"`
	Title            string   `json:"title" validate:"required"`
	PosterPath       *string  `json:"posterPath,omitempty"`
	BackdropPath     *string  `json:"backdropPath,omitempty"`
	Overview         string   `json:"overview,omitempty"`
	VoteAverage      float64  `json:"voteAverage,omitempty" validate:"gte=0,lte=10"`
	Popularity       float64  `json:"popularity,omitempty" validate:"gte=0"`
	ReleaseDate      string   `json:"releaseDate,omitempty"`
	Genres           []string `json:"genres,omitempty"`
	OriginalLanguage string   `json:"originalLanguage,omitempty"`
	Runtime          int      `json:"runtime,omitempty" validate:"gte=0"`
	Status           string   `json:"status,omitempty"`
}

// Entry builds a list entry owned by userID from the input.
func (in MediaInput) Entry(entryID, userID string) ListEntry {
	return ListEntry{
		EntryID:          entryID,
		UserID:           userID,
		TmdbID:           in.TmdbID,
		MediaType:        in.MediaType,
		Title:            in.Title,
		PosterPath:       in.PosterPath,
		BackdropPath:     in.BackdropPath,
		Overview:         in.Overview,
		VoteAverage:      in.VoteAverage,
		Popularity:       in.Popularity,
		ReleaseDate:      in.ReleaseDate,
		Genres:           in.Genres,
		OriginalLanguage: in.OriginalLanguage,
		Runtime:          in.Runtime,
		Status:           in.Status,
	}
}
