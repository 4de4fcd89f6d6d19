package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed genres.yaml
var genresYAML []byte

// Genre is one entry of the static genre table.
type Genre struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

var (
	genresOnce  sync.Once
	genreList   []Genre
	genreByID   map[int]string
	errGenreMap error
)

func loadGenres() {
	var doc struct {
		Genres []Genre `yaml:"genres"`
	}
	if err := yaml.Unmarshal(genresYAML, &doc); err != nil {
		errGenreMap = fmt.Errorf("failed to parse genre table: %w", err)
		genreByID = map[int]string{}
		return
	}
	genreList = doc.Genres
	genreByID = make(map[int]string, len(doc.Genres))
	for _, g := range doc.Genres {
		genreByID[g.ID] = g.Name
	}
}

// GenreName returns the display name for a genre id.
func GenreName(id int) (string, bool) {
	genresOnce.Do(loadGenres)
	name, ok := genreByID[id]
	return name, ok
}

// Genres returns the full genre table in declaration order.
func Genres() ([]Genre, error) {
	genresOnce.Do(loadGenres)
	if errGenreMap != nil {
		return nil, errGenreMap
	}
	out := make([]Genre, len(genreList))
	copy(out, genreList)
	return out, nil
}
