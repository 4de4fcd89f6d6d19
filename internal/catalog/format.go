package catalog

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Image widths used by the clients.
const (
	ImageSizeCard     = "w185"
	ImageSizePoster   = "w342"
	ImageSizeBackdrop = "w780"
	ImageSizeOriginal = "original"
)

// UnknownDate is shown when a release date cannot be parsed.
const UnknownDate = "Unknown Date"

const (
	isoDate     = "2006-01-02"
	displayDate = "Monday, January 2, 2006"
)

// ImageURL joins the image base URL, a width bucket and an image path.
// An empty path yields an empty URL.
func ImageURL(base, size, path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimRight(base, "/"), size, path)
}

// FormatReleaseDate renders an ISO date as "Tuesday, March 5, 2024".
func FormatReleaseDate(date string) string {
	t, err := time.Parse(isoDate, date)
	if err != nil {
		return UnknownDate
	}
	return t.Format(displayDate)
}

// LanguageName returns the English display name for an ISO 639-1 code,
// or the code itself when it is not recognized.
func LanguageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}
