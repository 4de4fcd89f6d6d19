package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/popcorn/popcorn/internal/validate"
)

const (
	DefaultTokenTTL   = 24 * time.Hour
	MinPasswordLength = 6
	tokenIssuer       = "popcorn"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// ProfileCreator writes the initial profile document for a new account.
type ProfileCreator interface {
	CreateEmpty(ctx context.Context, userID, email string) error
}

// Account identifies a registered user.
type Account struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Claims represents JWT claims.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token.
func (c *Claims) UserID() string {
	return c.Subject
}

// Service handles account registration and token lifecycle.
type Service struct {
	db        *sql.DB
	profiles  ProfileCreator
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// NewService creates a new auth service. An empty secret is replaced by a
// random one, which invalidates tokens across restarts.
func NewService(db *sql.DB, profiles ProfileCreator, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) (*Service, error) {
	secret := []byte(jwtSecret)

	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}

	return &Service{
		db:        db,
		profiles:  profiles,
		jwtSecret: secret,
		tokenTTL:  tokenTTL,
		logger:    logger.With().Str("component", "auth").Logger(),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateSignUp applies the registration form rules.
func ValidateSignUp(email, password string) error {
	var v validate.Error
	v.Check(validate.Email(email), "email", "Invalid email address")
	v.Check(len(password) >= MinPasswordLength, "password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	return v.Err()
}

// ValidateSignIn applies the login form rules.
func ValidateSignIn(email, password string) error {
	var v validate.Error
	v.Check(validate.Email(email), "email", "Invalid email address")
	v.Check(!validate.Blank(password), "password", "Password cannot be empty")
	return v.Err()
}

// SignUp registers an account and creates its empty profile.
func (s *Service) SignUp(ctx context.Context, email, password string) (Account, error) {
	if err := ValidateSignUp(email, password); err != nil {
		return Account{}, err
	}
	email = normalizeEmail(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, fmt.Errorf("failed to hash password: %w", err)
	}

	acct := Account{UserID: uuid.NewString(), Email: email}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO credentials (user_id, email, password_hash) VALUES (?, ?, ?)`,
		acct.UserID, acct.Email, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, ErrEmailTaken
		}
		return Account{}, fmt.Errorf("failed to save credentials: %w", err)
	}

	if s.profiles != nil {
		if err := s.profiles.CreateEmpty(ctx, acct.UserID, acct.Email); err != nil {
			// Leave no half-registered account behind.
			if _, delErr := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE user_id = ?`, acct.UserID); delErr != nil {
				s.logger.Error().Err(delErr).Str("userId", acct.UserID).Msg("Failed to roll back credentials")
			}
			return Account{}, fmt.Errorf("failed to create profile: %w", err)
		}
	}

	s.logger.Info().Str("userId", acct.UserID).Msg("Account registered")
	return acct, nil
}

// SignIn checks credentials and issues a token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, Account, error) {
	if err := ValidateSignIn(email, password); err != nil {
		return "", Account{}, err
	}
	email = normalizeEmail(email)

	var acct Account
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, password_hash FROM credentials WHERE email = ?`, email).
		Scan(&acct.UserID, &acct.Email, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", Account{}, ErrInvalidCredentials
		}
		return "", Account{}, fmt.Errorf("failed to get credentials: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", Account{}, ErrInvalidCredentials
	}

	token, err := s.GenerateToken(acct)
	if err != nil {
		return "", Account{}, err
	}
	return token, acct, nil
}

// GenerateToken creates a signed token for acct.
func (s *Service) GenerateToken(acct Account) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: acct.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acct.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and rejects expired or revoked ones.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`, claims.ID).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if n > 0 {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// SignOut revokes the token described by claims until it would have expired.
func (s *Service) SignOut(ctx context.Context, claims *Claims) error {
	expires := time.Now().Add(s.tokenTTL)
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?) ON CONFLICT(jti) DO NOTHING`,
		claims.ID, expires.Unix())
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// PurgeRevoked drops revocation records for tokens that have expired anyway.
func (s *Service) PurgeRevoked(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge revoked tokens: %w", err)
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
