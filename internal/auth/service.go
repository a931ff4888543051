package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"trivia-quiz-service/internal/domain"
)

const (
	// DefaultTokenTTL is how long an issued token stays valid.
	DefaultTokenTTL = time.Hour
	// MinPasswordLength is the shortest password Register accepts.
	MinPasswordLength = 8
)

// UserRepository stores accounts. Create returns domain.ErrUserExists for a
// taken username; the finders return domain.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	FindByUsername(ctx context.Context, username string) (domain.User, error)
	FindByID(ctx context.Context, userID string) (domain.User, error)
}

// Claims is the JWT payload handed to clients.
type Claims struct {
	jwt.StandardClaims
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Options struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

// Service registers and logs in users and resolves bearer tokens to identities.
type Service struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewService(users UserRepository, opts Options) *Service {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		users:  users,
		secret: []byte(opts.Secret),
		ttl:    ttl,
		cost:   cost,
		now:    time.Now,
	}
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, username, password string) (domain.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, "", fmt.Errorf("%w: username is required", domain.ErrInvalidCredentials)
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, "", fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidCredentials, MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, "", err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// Login checks the password and returns a fresh token. Unknown users and wrong
// passwords both yield domain.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (domain.User, string, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return domain.User{}, "", err
	}
	return user, token, nil
}

// IssueToken signs an HS256 token for user.
func (s *Service) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := Claims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(s.ttl).Unix(),
			IssuedAt:  now.Unix(),
			Subject:   user.ID,
		},
		ID:       user.ID,
		Username: user.Username,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Resolve maps a bearer token to an identity. A malformed, forged or orphaned
// token resolves to an invalid identity; an expired one is flagged Expired.
// The error is reserved for lookup failures.
func (s *Service) Resolve(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, nil
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors == jwt.ValidationErrorExpired {
			return domain.Identity{UserID: claims.ID, Username: claims.Username, Expired: true}, nil
		}
		return domain.Identity{}, nil
	}
	if !parsed.Valid || claims.ID == "" {
		return domain.Identity{}, nil
	}

	user, err := s.users.FindByID(ctx, claims.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.Identity{}, nil
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{UserID: user.ID, Username: user.Username, Valid: true}, nil
}

// Profile returns the account behind userID.
func (s *Service) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.FindByID(ctx, userID)
}
