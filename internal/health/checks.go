package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Item ids registered by Checker.
const (
	ItemCatalog  = "tmdb"
	ItemDatabase = "database"
	ItemMedia    = "media"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CatalogTester is the connectivity check of the movie catalog.
type CatalogTester interface {
	IsConfigured() bool
	Test(ctx context.Context) error
}

// Checker runs the dependency checks and records their outcome.
type Checker struct {
	service  *Service
	db       Pinger
	catalog  CatalogTester
	mediaDir string
}

// NewChecker registers the tracked items on service and returns a checker for them.
func NewChecker(service *Service, db Pinger, catalog CatalogTester, mediaDir string) *Checker {
	service.RegisterItem(CategoryCatalog, ItemCatalog, "Movie catalog")
	service.RegisterItem(CategoryStorage, ItemDatabase, "Database")
	service.RegisterItem(CategoryStorage, ItemMedia, "Media directory")

	return &Checker{service: service, db: db, catalog: catalog, mediaDir: mediaDir}
}

// CheckAll runs every check. It only fails when ctx is done.
func (c *Checker) CheckAll(ctx context.Context) error {
	c.service.Report(CategoryStorage, ItemDatabase, c.db.PingContext(ctx))
	c.service.Report(CategoryStorage, ItemMedia, CheckFolderWritable(c.mediaDir))
	c.CheckCatalog(ctx)
	return ctx.Err()
}

// CheckCatalog tests catalog connectivity. A missing API key is a warning.
func (c *Checker) CheckCatalog(ctx context.Context) {
	if !c.catalog.IsConfigured() {
		c.service.SetWarning(CategoryCatalog, ItemCatalog, "API key not configured")
		return
	}
	c.service.Report(CategoryCatalog, ItemCatalog, c.catalog.Test(ctx))
}

// CheckFolderWritable verifies that path is a directory we can create files
// in, creating it first when missing.
func CheckFolderWritable(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("cannot create folder: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	tempPath := filepath.Join(path, ".popcorn_health_check_"+uuid.NewString()[:8])
	if err := os.WriteFile(tempPath, []byte("health check"), 0o600); err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("folder is read-only: %s", path)
		}
		return fmt.Errorf("cannot write to folder: %w", err)
	}
	if err := os.Remove(tempPath); err != nil {
		return fmt.Errorf("cannot remove test file: %w", err)
	}
	return nil
}
