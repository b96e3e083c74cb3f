package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/goldvault/backend/internal/model"
	"github.com/goldvault/backend/internal/repository"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const bcryptCost = 12

type UserService struct {
	repo *repository.Repository
}

func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// Register creates a user with a fresh unique referral code. The user row
// and, when the supplied upstream code resolves, the level-1 and level-2
// referral edges are written in a single transaction, so a user never exists
// without the edges commission accumulates on. An unresolvable upstream code
// is kept on the user but creates no edges.
func (s *UserService) Register(ctx context.Context, email, password, referredBy string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if code := strings.TrimSpace(referredBy); code != "" {
		user.ReferredBy = &code
	}

	// Referral code collisions are vanishingly rare; retry a few times on
	// the unique constraint rather than pre-checking.
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		user.ReferralCode = code

		err = s.repo.CreateUser(ctx, user)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailExists
		}
		if errors.Is(err, repository.ErrReferralCodeTaken) {
			continue
		}
		return nil, err
	}
	if user.ID == uuid.Nil {
		return nil, errors.New("failed to allocate referral code")
	}

	return user, nil
}

// Login authenticates by email and password.
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.VerifyPassword(user, password); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyPassword checks a plaintext password against the stored hash. Used
// both at login and as the re-check on withdrawal requests.
func (s *UserService) VerifyPassword(user *model.User, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.repo.GetUser(ctx, id)
}

func generateReferralCode() (string, error) {
	bytes := make([]byte, 5)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	code := base32.StdEncoding.EncodeToString(bytes)
	code = strings.TrimRight(code, "=")
	return strings.ToLower(code[:8]), nil
}
