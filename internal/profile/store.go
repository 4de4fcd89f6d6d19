package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/popcorn/popcorn/internal/favorites"
)

// ErrUserNotFound is returned when no profile exists for a user id.
var ErrUserNotFound = errors.New("user not found")

// Store persists profile documents in the users table.
type Store struct {
	db *sql.DB
}

// NewStore creates a profile store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get loads the profile for userID.
func (s *Store) Get(ctx context.Context, userID string) (User, error) {
	var u User
	var favs string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, email, profile_photo_url, date_of_birth, gender,
			mobile_number, short_bio, favorites
		FROM users WHERE user_id = ?`, userID).
		Scan(&u.UserID, &u.Name, &u.Email, &u.ProfilePhotoURL, &u.DateOfBirth, &u.Gender,
			&u.MobileNumber, &u.ShortBio, &favs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}

	if err := json.Unmarshal([]byte(favs), &u.Favorites); err != nil {
		return User{}, fmt.Errorf("failed to decode favorites: %w", err)
	}
	u.Favorites = favorites.Normalize(u.Favorites)

	return u, nil
}

// Save writes the whole document, creating it if needed.
func (s *Store) Save(ctx context.Context, u User) error {
	if u.UserID == "" {
		return errors.New("user id is required")
	}

	favs, err := encodeFavorites(u.Favorites)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, name, email, profile_photo_url, date_of_birth, gender,
			mobile_number, short_bio, favorites, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			profile_photo_url = excluded.profile_photo_url,
			date_of_birth = excluded.date_of_birth,
			gender = excluded.gender,
			mobile_number = excluded.mobile_number,
			short_bio = excluded.short_bio,
			favorites = excluded.favorites,
			updated_at = CURRENT_TIMESTAMP
	`, u.UserID, u.Name, u.Email, u.ProfilePhotoURL, u.DateOfBirth, u.Gender,
		u.MobileNumber, u.ShortBio, favs)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// UpdateFavorites replaces only the favorites field.
func (s *Store) UpdateFavorites(ctx context.Context, userID string, ids []int64) error {
	favs, err := encodeFavorites(ids)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET favorites = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ?`,
		favs, userID)
	if err != nil {
		return fmt.Errorf("failed to update favorites: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a profile document.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func encodeFavorites(ids []int64) (string, error) {
	b, err := json.Marshal(favorites.Normalize(ids))
	if err != nil {
		return "", fmt.Errorf("failed to encode favorites: %w", err)
	}
	return string(b), nil
}
