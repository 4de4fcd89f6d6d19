package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/popcorn/popcorn/internal/favorites"
)

// Service implements profile operations on top of the store and photo storage.
type Service struct {
	store  *Store
	photos *PhotoStore
	logger zerolog.Logger

	// Serializes read-modify-write of one user's document.
	userLocks sync.Map // map[string]*sync.Mutex
}

// NewService creates a profile service.
func NewService(store *Store, photos *PhotoStore, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		photos: photos,
		logger: logger.With().Str("component", "profile").Logger(),
	}
}

func (s *Service) lockUser(userID string) func() {
	v, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get returns the profile for userID.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	return s.store.Get(ctx, userID)
}

// CreateEmpty writes a blank profile for a newly registered account.
func (s *Service) CreateEmpty(ctx context.Context, userID, email string) error {
	return s.store.Save(ctx, User{UserID: userID, Email: email, Favorites: []int64{}})
}

// GetOrDefault returns the stored profile, or a blank one carrying only the
// id and email when none has been written yet.
func (s *Service) GetOrDefault(ctx context.Context, userID, email string) (User, error) {
	u, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrUserNotFound) {
		return User{UserID: userID, Email: email, Favorites: []int64{}}, nil
	}
	return u, err
}

// Delete removes a profile and its photo.
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.photos.Remove(userID); err != nil {
		s.logger.Warn().Err(err).Str("userId", userID).Msg("Failed to remove profile photo")
	}
	return nil
}

// UpdateProfile validates and saves the editable fields. When photo is
// non-nil it is uploaded first and the profile is saved with the new URL;
// if the upload fails nothing is saved.
func (s *Service) UpdateProfile(ctx context.Context, userID, email string, upd Update, photo io.Reader) (User, error) {
	upd = upd.Normalize()
	if err := upd.Validate(); err != nil {
		return User{}, err
	}

	unlock := s.lockUser(userID)
	defer unlock()

	current, err := s.GetOrDefault(ctx, userID, email)
	if err != nil {
		return User{}, err
	}
	next := upd.Apply(current)

	if photo != nil {
		url, err := s.photos.Upload(ctx, userID, photo)
		if err != nil {
			s.logger.Error().Err(err).Str("userId", userID).Msg("Profile photo upload failed")
			return User{}, fmt.Errorf("photo upload failed: %w", err)
		}
		next.ProfilePhotoURL = url
	}

	if err := s.store.Save(ctx, next); err != nil {
		return User{}, err
	}

	s.logger.Info().Str("userId", userID).Bool("photo", photo != nil).Msg("Profile updated")
	return next, nil
}

// ToggleFavorite adds or removes movieID from the user's favorites and
// persists only that field. It returns the new list and whether the id was added.
func (s *Service) ToggleFavorite(ctx context.Context, userID, email string, movieID int64) ([]int64, bool, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	u, err := s.GetOrDefault(ctx, userID, email)
	if err != nil {
		return nil, false, err
	}

	updated, added := favorites.Toggle(u.Favorites, movieID)

	err = s.store.UpdateFavorites(ctx, userID, updated)
	if errors.Is(err, ErrUserNotFound) {
		u.Favorites = updated
		err = s.store.Save(ctx, u)
	}
	if err != nil {
		return nil, false, err
	}

	return updated, added, nil
}
