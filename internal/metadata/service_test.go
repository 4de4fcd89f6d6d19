package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/catalog"
	"github.com/popcorn/popcorn/internal/metadata/mock"
)

func newTestService(t *testing.T) (*Service, *mock.TMDBClient) {
	t.Helper()
	logger := zerolog.Nop()
	client := mock.NewTMDBClient()
	svc := NewServiceWithClient(client, &logger)
	t.Cleanup(svc.Close)
	return svc, client
}

func TestService_GetMovie_Caches(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m, err := svc.GetMovie(ctx, 550)
		if err != nil {
			t.Fatalf("GetMovie() error = %v", err)
		}
		if m.Title != "Fight Club" {
			t.Errorf("Title = %q, want Fight Club", m.Title)
		}
	}

	if got := client.Calls("movie"); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestService_GetMovie_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetMovie(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetMovie() error = %v, want ErrNotFound", err)
	}
}

func TestService_ListMovies_SeedsDetailCache(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	movies, err := svc.ListMovies(ctx, catalog.CategoryTopRated)
	if err != nil {
		t.Fatalf("ListMovies() error = %v", err)
	}
	if len(movies) == 0 {
		t.Fatal("ListMovies() returned no movies")
	}

	if _, err := svc.GetMovie(ctx, movies[0].ID); err != nil {
		t.Fatalf("GetMovie() error = %v", err)
	}
	if got := client.Calls("movie"); got != 0 {
		t.Errorf("provider detail calls = %d, want 0", got)
	}
}

func TestService_ListMovies_WrapsErrors(t *testing.T) {
	svc, client := newTestService(t)
	boom := errors.New("boom")
	client.FailWith(boom)

	_, err := svc.ListMovies(context.Background(), catalog.CategoryPopular)
	if !errors.Is(err, boom) {
		t.Errorf("ListMovies() error = %v, want wrapped boom", err)
	}
}

func TestService_NewMovieView(t *testing.T) {
	svc, _ := newTestService(t)
	view := svc.NewMovieView(catalog.Movie{
		ID:               1,
		PosterPath:       "/p.jpg",
		ReleaseDate:      "2024-03-05",
		OriginalLanguage: "fr",
		GenreIDs:         []int{35},
	})

	if view.PosterURL != "https://image.tmdb.org/t/p/w342/p.jpg" {
		t.Errorf("PosterURL = %q", view.PosterURL)
	}
	if view.BackdropURL != "" {
		t.Errorf("BackdropURL = %q, want empty", view.BackdropURL)
	}
	if view.Language != "French" {
		t.Errorf("Language = %q, want French", view.Language)
	}
	if view.ReleaseDisplay != "Tuesday, March 5, 2024" {
		t.Errorf("ReleaseDisplay = %q", view.ReleaseDisplay)
	}
	if len(view.Genres) != 1 || view.Genres[0] != "Comedy" {
		t.Errorf("Genres = %v, want [Comedy]", view.Genres)
	}
}
