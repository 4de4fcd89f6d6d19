// Package mock provides a canned catalog used in developer mode.
package mock

import (
	"context"
	"sync"

	"github.com/popcorn/popcorn/internal/catalog"
	"github.com/popcorn/popcorn/internal/metadata/tmdb"
)

const imageBaseURL = "https://image.tmdb.org/t/p"

// TMDBClient is a mock implementation of the TMDB client.
type TMDBClient struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

// NewTMDBClient creates a new mock TMDB client.
func NewTMDBClient() *TMDBClient {
	return &TMDBClient{calls: make(map[string]int)}
}

func (c *TMDBClient) Name() string {
	return "tmdb-mock"
}

func (c *TMDBClient) IsConfigured() bool {
	return true
}

func (c *TMDBClient) Test(ctx context.Context) error {
	return nil
}

func (c *TMDBClient) GetImageURL(path, size string) string {
	return catalog.ImageURL(imageBaseURL, size, path)
}

// FailWith makes every subsequent list and detail call return err.
// Passing nil restores normal behavior.
func (c *TMDBClient) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Calls returns how many times the named operation was invoked.
// Names are "list:<category>" and "movie".
func (c *TMDBClient) Calls(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *TMDBClient) record(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[name]++
	return c.err
}

func (c *TMDBClient) ListMovies(ctx context.Context, category catalog.Category) ([]catalog.Movie, error) {
	if err := c.record("list:" + category.String()); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := mockLists[category]
	out := make([]catalog.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := movieByID(id); ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (c *TMDBClient) GetMovie(ctx context.Context, id int64) (catalog.Movie, error) {
	if err := c.record("movie"); err != nil {
		return catalog.Movie{}, err
	}
	if m, ok := movieByID(id); ok {
		return m, nil
	}
	return catalog.Movie{}, tmdb.ErrMovieNotFound
}

// Movies returns every movie in the mock catalog.
func Movies() []catalog.Movie {
	out := make([]catalog.Movie, len(mockMovies))
	for i, m := range mockMovies {
		out[i] = m.WithID(m.ID)
	}
	return out
}

func movieByID(id int64) (catalog.Movie, bool) {
	for _, m := range mockMovies {
		if m.ID == id {
			return m.WithID(m.ID), true
		}
	}
	return catalog.Movie{}, false
}

var mockLists = map[catalog.Category][]int64{
	catalog.CategoryPopular:    {533535, 912649, 1022789, 693134, 27205, 157336},
	catalog.CategoryTopRated:   {278, 238, 155, 680, 550, 603, 120},
	catalog.CategoryNowPlaying: {912649, 1022789, 533535, 872585, 346698},
}

var mockMovies = []catalog.Movie{
	{ID: 603, Title: "The Matrix", Overview: "Set in the 22nd century, The Matrix tells the story of a computer hacker who joins a group of underground insurgents fighting the vast and powerful computers who now rule the earth.", PosterPath: "/p96dm7sCMn4VYAStA6siNz30G1r.jpg", BackdropPath: "/tlm8UkiQsitc8rSuIAscQDCnP8d.jpg", ReleaseDate: "1999-03-31", OriginalLanguage: "en", VoteAverage: 8.2, VoteCount: 25841, GenreIDs: []int{28, 878}},
	{ID: 550, Title: "Fight Club", Overview: "A ticking-time-bomb insomniac and a slippery soap salesman channel primal male aggression into a shocking new form of therapy.", PosterPath: "/pB8BM7pdSp6B6Ih7QZ4DrQ3PmJK.jpg", BackdropPath: "/5TiwfWEaPSwD20uwXjCTUqpQX70.jpg", ReleaseDate: "1999-10-15", OriginalLanguage: "en", VoteAverage: 8.4, VoteCount: 29913, GenreIDs: []int{18, 53}},
	{ID: 680, Title: "Pulp Fiction", Overview: "A burger-loving hit man, his philosophical partner, a drug-addled gangster's moll and a washed-up boxer converge in this sprawling, comedic crime caper.", PosterPath: "/vQWk5YBFWF4bZaofAbv0tShwBvQ.jpg", BackdropPath: "/96hiUXEuYsu4tcnvlaY8tEMFM0m.jpg", ReleaseDate: "1994-09-10", OriginalLanguage: "en", VoteAverage: 8.5, VoteCount: 27850, GenreIDs: []int{53, 80, 35}},
	{ID: 155, Title: "The Dark Knight", Overview: "Batman raises the stakes in his war on crime. With the help of Lt. Jim Gordon and District Attorney Harvey Dent, Batman sets out to dismantle the remaining criminal organizations that plague the streets.", PosterPath: "/qJ2tW6WMUDux911r6m7haRef0WH.jpg", BackdropPath: "/cfT29Im5VDvjE0RpyKOSdCKZal7.jpg", ReleaseDate: "2008-07-16", OriginalLanguage: "en", VoteAverage: 8.5, VoteCount: 32560, GenreIDs: []int{18, 28, 80, 53}},
	{ID: 278, Title: "The Shawshank Redemption", Overview: "Imprisoned in the 1940s for the double murder of his wife and her lover, upstanding banker Andy Dufresne begins a new life at the Shawshank prison.", PosterPath: "/9cqNxx0GxF0bflZmeSMuL5tnGzr.jpg", BackdropPath: "/zfbjgQE1uSd9wiPTX4VzsLi0rGG.jpg", ReleaseDate: "1994-09-23", OriginalLanguage: "en", VoteAverage: 8.7, VoteCount: 27105, GenreIDs: []int{18, 80}},
	{ID: 238, Title: "The Godfather", Overview: "Spanning the years 1945 to 1955, a chronicle of the fictional Italian-American Corleone crime family.", PosterPath: "/3bhkrj58Vtu7enYsRolD1fZdja1.jpg", BackdropPath: "/tmU7GeKVybMWFButWEGl2M4GeiP.jpg", ReleaseDate: "1972-03-14", OriginalLanguage: "en", VoteAverage: 8.7, VoteCount: 20531, GenreIDs: []int{18, 80}},
	{ID: 27205, Title: "Inception", Overview: "Cobb, a skilled thief who commits corporate espionage by infiltrating the subconscious of his targets, is offered a chance to regain his old life.", PosterPath: "/xlaY2zyzMfkhk0HSC5VUwzoZPU1.jpg", BackdropPath: "/ii8QGacT3MXESqBckQlyrATY0lT.jpg", ReleaseDate: "2010-07-15", OriginalLanguage: "en", VoteAverage: 8.4, VoteCount: 36780, GenreIDs: []int{28, 878, 12}},
	{ID: 157336, Title: "Interstellar", Overview: "The adventures of a group of explorers who make use of a newly discovered wormhole to surpass the limitations on human space travel.", PosterPath: "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg", BackdropPath: "/5XNQBqnBwPA9yT0jZ0p3s8bbLh0.jpg", ReleaseDate: "2014-11-05", OriginalLanguage: "en", VoteAverage: 8.4, VoteCount: 35120, GenreIDs: []int{12, 18, 878}},
	{ID: 120, Title: "The Lord of the Rings: The Fellowship of the Ring", Overview: "Young hobbit Frodo Baggins, after inheriting a mysterious ring from his uncle Bilbo, must leave his home in order to keep it from falling into the hands of its evil creator.", PosterPath: "/6oom5QYQ2yQTMJIbnvbkBL9cHo6.jpg", BackdropPath: "/a0lfia8tk8ifkrve0Tn8wkISUvs.jpg", ReleaseDate: "2001-12-18", OriginalLanguage: "en", VoteAverage: 8.4, VoteCount: 25050, GenreIDs: []int{12, 14, 28}},
	{ID: 693134, Title: "Dune: Part Two", Overview: "Follow the mythic journey of Paul Atreides as he unites with Chani and the Fremen while on a path of revenge against the conspirators who destroyed his family.", PosterPath: "/1pdfLvkbY9ohJlCjQH2CZjjYVvJ.jpg", BackdropPath: "/xOMo8BRK7PfcJv9JCnx7s5hj0PX.jpg", ReleaseDate: "2024-02-27", OriginalLanguage: "en", VoteAverage: 8.1, VoteCount: 6120, GenreIDs: []int{878, 12}},
	{ID: 346698, Title: "Barbie", Overview: "Barbie and Ken are having the time of their lives in the colorful and seemingly perfect world of Barbie Land.", PosterPath: "/iuFNMS8U5cb6xfzi51Dbkovj7vM.jpg", BackdropPath: "/ctMserH8g2SeOAnCw5gFjdQF8mo.jpg", ReleaseDate: "2023-07-19", OriginalLanguage: "en", VoteAverage: 7.0, VoteCount: 9012, GenreIDs: []int{35, 12}},
	{ID: 872585, Title: "Oppenheimer", Overview: "The story of J. Robert Oppenheimer's role in the development of the atomic bomb during World War II.", PosterPath: "/8Gxv8gSFCU0XGDykEGv7zR1n2ua.jpg", BackdropPath: "/7CENyUim29IEsaJhUxIGymCRvPu.jpg", ReleaseDate: "2023-07-19", OriginalLanguage: "en", VoteAverage: 8.1, VoteCount: 10250, GenreIDs: []int{18, 36}},
	{ID: 533535, Title: "Deadpool & Wolverine", Overview: "A listless Wade Wilson toils away in civilian life with his days as the morally flexible mercenary, Deadpool, behind him.", PosterPath: "/8cdWjvZQUExUUTzyp4t6EDMubfO.jpg", BackdropPath: "/ufpeVEM64uZHPpzzeiDNIAdaeOD.jpg", ReleaseDate: "2024-07-24", OriginalLanguage: "en", VoteAverage: 7.7, VoteCount: 5310, GenreIDs: []int{28, 35, 878}},
	{ID: 912649, Title: "Venom: The Last Dance", Overview: "Eddie and Venom are on the run. Hunted by both of their worlds and with the net closing in, the duo are forced into a devastating decision.", PosterPath: "/1RaSkWakWBxxYOWRrqmwo2my5zg.jpg", BackdropPath: "/3V4kLQg0kSqPLctI5ziYWabAZYF.jpg", ReleaseDate: "2024-10-22", OriginalLanguage: "en", VoteAverage: 6.8, VoteCount: 1820, GenreIDs: []int{28, 878, 12}},
	{ID: 1022789, Title: "Inside Out 2", Overview: "Teenager Riley's mind headquarters is undergoing a sudden demolition to make room for something entirely unexpected: new Emotions!", PosterPath: "/vpnVM9B6NMmQpWeZvzLvDESb2QY.jpg", BackdropPath: "/p5ozvmdgsmbWe0H8Xk7Rc8SCwAB.jpg", ReleaseDate: "2024-06-11", OriginalLanguage: "en", VoteAverage: 7.6, VoteCount: 4980, GenreIDs: []int{16, 12, 35, 10751}},
}
