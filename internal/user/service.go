package user

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saulo-duarte/commitments-api/internal/auth"
	"github.com/saulo-duarte/commitments-api/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserAlreadyExists  = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserNotFound       = errors.New("user not found")
)

const minPasswordLength = 8

// RegisterHook runs after a user row is committed. Failures are logged and
// never undo the registration.
type RegisterHook func(ctx context.Context, userID uuid.UUID) error

type UserService interface {
	Register(ctx context.Context, dto RegisterDTO) (*UserResponse, error)
	Login(ctx context.Context, dto LoginDTO) (*TokenResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
}

type userService struct {
	repo     UserRepository
	tokenTTL time.Duration
	hooks    []RegisterHook
}

func NewService(repo UserRepository, tokenTTL time.Duration, hooks ...RegisterHook) UserService {
	return &userService{repo: repo, tokenTTL: tokenTTL, hooks: hooks}
}

func (s *userService) Register(ctx context.Context, dto RegisterDTO) (*UserResponse, error) {
	log := config.WithContext(ctx)

	username := strings.TrimSpace(dto.Username)
	email := strings.ToLower(strings.TrimSpace(dto.Email))
	if username == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("username is required"))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errors.Join(ErrInvalidInput, errors.New("email is invalid"))
	}
	if len(dto.Password) < minPasswordLength {
		return nil, errors.Join(ErrInvalidInput, errors.New("password must have at least 8 characters"))
	}

	existing, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		log.WithError(err).Error("Failed to check existing user")
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		log.WithError(err).Error("Failed to create user")
		return nil, err
	}

	for _, hook := range s.hooks {
		if err := hook(ctx, u.ID); err != nil {
			log.WithError(err).WithField("user_id", u.ID).Warn("Post-registration hook failed")
		}
	}

	log.WithField("user_id", u.ID).Info("User registered")
	return toResponse(u), nil
}

func (s *userService) Login(ctx context.Context, dto LoginDTO) (*TokenResponse, error) {
	log := config.WithContext(ctx)

	u, err := s.repo.GetByUsernameOrEmail(ctx, strings.TrimSpace(dto.Username), strings.ToLower(strings.TrimSpace(dto.Username)))
	if err != nil {
		log.WithError(err).Error("Failed to load user for login")
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(u.ID.String(), "user", s.tokenTTL)
	if err != nil {
		log.WithError(err).Error("Failed to sign token")
		return nil, err
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	u, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return toResponse(u), nil
}
