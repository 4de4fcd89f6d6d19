// Package catalog defines the movie record and the presentation helpers
// shared by the list, favorites and detail views.
package catalog

// Movie is a catalog entry as returned by the remote movie database.
// Records are treated as immutable once fetched; ID is the identity.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids"`
}

// GenreNames maps the movie's genre ids to display names.
// Ids missing from the genre table are skipped.
func (m Movie) GenreNames() []string {
	names := make([]string, 0, len(m.GenreIDs))
	for _, id := range m.GenreIDs {
		if name, ok := GenreName(id); ok {
			names = append(names, name)
		}
	}
	return names
}

// WithID returns a copy of m carrying a different id.
// The genre slice is cloned so the copy shares no state with the original.
func (m Movie) WithID(id int64) Movie {
	cp := m
	cp.ID = id
	if m.GenreIDs != nil {
		cp.GenreIDs = append([]int(nil), m.GenreIDs...)
	}
	return cp
}
