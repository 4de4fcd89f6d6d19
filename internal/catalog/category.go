package catalog

import (
	"errors"
	"fmt"
)

// Category selects one of the remote list queries.
type Category string

const (
	CategoryPopular    Category = "popular"
	CategoryTopRated   Category = "top_rated"
	CategoryNowPlaying Category = "now_playing"
)

// ErrUnknownCategory is returned when a category string is not recognized.
var ErrUnknownCategory = errors.New("unknown category")

// Categories lists every supported category in display order.
func Categories() []Category {
	return []Category{CategoryPopular, CategoryTopRated, CategoryNowPlaying}
}

// ParseCategory validates a category string.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryPopular, CategoryTopRated, CategoryNowPlaying:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
}

func (c Category) String() string {
	return string(c)
}
