package tmdb

// Page is one page of a paginated listing.
type Page[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// MediaItem is a movie, show or person as returned by trending and search.
type MediaItem struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title,omitempty"`
	Name             string  `json:"name,omitempty"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ProfilePath      *string `json:"profile_path,omitempty"`
	Overview         string  `json:"overview"`
	MediaType        string  `json:"media_type"`
	VoteAverage      float64 `json:"vote_average"`
	Popularity       float64 `json:"popularity"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	FirstAirDate     string  `json:"first_air_date,omitempty"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language,omitempty"`
	Adult            bool    `json:"adult"`
}

// DisplayTitle is Title for movies and Name for shows and people.
func (m MediaItem) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// Date is ReleaseDate for movies and FirstAirDate for shows.
func (m MediaItem) Date() string {
	if m.ReleaseDate != "" {
		return m.ReleaseDate
	}
	return m.FirstAirDate
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type ProductionCompany struct {
	ID            int64   `json:"id"`
	LogoPath      *string `json:"logo_path"`
	Name          string  `json:"name"`
	OriginCountry string  `json:"origin_country"`
}

type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type CastMember struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
}

type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

type SeasonSummary struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	SeasonNumber int     `json:"season_number"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      string  `json:"air_date"`
	PosterPath   *string `json:"poster_path"`
}

type CollectionRef struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	PosterPath *string `json:"poster_path"`
}

// MediaDetails is a movie or show with credits and videos appended.
type MediaDetails struct {
	MediaItem
	Genres              []Genre             `json:"genres"`
	Runtime             int                 `json:"runtime,omitempty"`
	EpisodeRunTime      []int               `json:"episode_run_time,omitempty"`
	Tagline             string              `json:"tagline,omitempty"`
	Status              string              `json:"status,omitempty"`
	Budget              int64               `json:"budget,omitempty"`
	Revenue             int64               `json:"revenue,omitempty"`
	ProductionCompanies []ProductionCompany `json:"production_companies,omitempty"`
	Seasons             []SeasonSummary     `json:"seasons,omitempty"`
	BelongsToCollection *CollectionRef      `json:"belongs_to_collection,omitempty"`
	Credits             struct {
		Cast []CastMember `json:"cast"`
		Crew []CrewMember `json:"crew"`
	} `json:"credits"`
	Videos struct {
		Results []Video `json:"results"`
	} `json:"videos"`
}

type Collection struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Overview     string      `json:"overview"`
	PosterPath   *string     `json:"poster_path"`
	BackdropPath *string     `json:"backdrop_path"`
	Parts        []MediaItem `json:"parts"`
}

type Person struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Biography          string  `json:"biography"`
	Birthday           *string `json:"birthday"`
	Deathday           *string `json:"deathday"`
	PlaceOfBirth       *string `json:"place_of_birth"`
	ProfilePath        *string `json:"profile_path"`
	KnownForDepartment string  `json:"known_for_department"`
	CombinedCredits    struct {
		Cast []MediaItem `json:"cast"`
		Crew []MediaItem `json:"crew"`
	} `json:"combined_credits"`
}

type Episode struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Overview      string  `json:"overview"`
	EpisodeNumber int     `json:"episode_number"`
	AirDate       string  `json:"air_date"`
	Runtime       int     `json:"runtime"`
	StillPath     *string `json:"still_path"`
	VoteAverage   float64 `json:"vote_average"`
}

type Season struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Overview     string    `json:"overview"`
	SeasonNumber int       `json:"season_number"`
	AirDate      string    `json:"air_date"`
	PosterPath   *string   `json:"poster_path"`
	Episodes     []Episode `json:"episodes"`
}
