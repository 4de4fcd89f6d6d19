package tmdb

import "github.com/popcorn/popcorn/internal/catalog"

// MovieResult is a movie entry from a TMDB list endpoint.
type MovieResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int   `json:"genre_ids"`
}

// ListResponse is the envelope of the category list endpoints.
type ListResponse struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieDetails is the detailed movie info from TMDB.
type MovieDetails struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Runtime          int     `json:"runtime"`
	Status           string  `json:"status"`
	Genres           []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
}

// ErrorResponse is the body TMDB returns on failures.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Success       bool   `json:"success"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ToMovie converts a list entry to the catalog model.
func (r MovieResult) ToMovie() catalog.Movie {
	return catalog.Movie{
		ID:               r.ID,
		Title:            r.Title,
		Overview:         r.Overview,
		PosterPath:       deref(r.PosterPath),
		BackdropPath:     deref(r.BackdropPath),
		ReleaseDate:      r.ReleaseDate,
		OriginalLanguage: r.OriginalLanguage,
		VoteAverage:      r.VoteAverage,
		VoteCount:        r.VoteCount,
		GenreIDs:         r.GenreIDs,
	}
}

// ToMovie converts a detail response to the catalog model. The detail
// endpoint returns genre objects instead of ids.
func (d MovieDetails) ToMovie() catalog.Movie {
	ids := make([]int, len(d.Genres))
	for i, g := range d.Genres {
		ids[i] = g.ID
	}
	return catalog.Movie{
		ID:               d.ID,
		Title:            d.Title,
		Overview:         d.Overview,
		PosterPath:       deref(d.PosterPath),
		BackdropPath:     deref(d.BackdropPath),
		ReleaseDate:      d.ReleaseDate,
		OriginalLanguage: d.OriginalLanguage,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		GenreIDs:         ids,
	}
}
