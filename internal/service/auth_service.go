package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"microblog/internal/auth"
	apperrors "microblog/internal/errors"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// AuthService handles registration and the session lifecycle.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	// Login verifies credentials and establishes a session. The remember flag
	// selects a long-lived token over a session-scoped one. Unknown email and
	// wrong password surface as the same error.
	Login(ctx context.Context, email, password string, remember bool) (token string, user *model.User, err error)
	Logout(ctx context.Context, tokenID string) error
	// ResolveSession maps an active session token ID back to its user. It is
	// called once per request by the session middleware.
	ResolveSession(ctx context.Context, tokenID string, userID uint) (*model.User, error)
}

type authService struct {
	userRepo     repository.UserRepository
	jwtService   *auth.JWTService
	sessionStore auth.SessionStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, sessionStore auth.SessionStoreInterface) AuthService {
	return &authService{
		userRepo:     userRepo,
		jwtService:   jwtService,
		sessionStore: sessionStore,
	}
}

// Register creates a new user after checking username and email uniqueness.
func (s *authService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	taken, err := s.userRepo.UsernameExists(ctx, username, 0)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperrors.ErrUsernameTaken
	}

	taken, err = s.userRepo.EmailExists(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperrors.ErrEmailTaken
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		ImageFile:    model.DefaultAvatar,
		PasswordHash: hashed,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost a race with a concurrent registration; the unique index
			// tells us a conflict exists, re-check which field it was
			if taken, checkErr := s.userRepo.UsernameExists(ctx, username, 0); checkErr == nil && taken {
				return nil, apperrors.ErrUsernameTaken
			}
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login authenticates a user and returns a signed session token.
func (s *authService) Login(ctx context.Context, email, password string, remember bool) (string, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	tokenID, token, ttl, err := s.jwtService.GenerateSessionToken(user.ID, user.Username, remember)
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	if err := s.sessionStore.StoreSession(ctx, tokenID, user.ID, ttl); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	return token, user, nil
}

// Logout ends a session by deleting its record; the token is dead afterwards
// even though its signature still verifies.
func (s *authService) Logout(ctx context.Context, tokenID string) error {
	return s.sessionStore.DeleteSession(ctx, tokenID)
}

// ResolveSession returns the user behind an active session, or
// ErrSessionExpired if the session was revoked or never existed.
func (s *authService) ResolveSession(ctx context.Context, tokenID string, userID uint) (*model.User, error) {
	storedUserID, err := s.sessionStore.GetSession(ctx, tokenID)
	if err != nil {
		return nil, apperrors.ErrSessionExpired
	}
	if storedUserID != userID {
		return nil, apperrors.ErrSessionExpired
	}

	user, err := s.userRepo.FindByID(ctx, storedUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionExpired
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return user, nil
}
