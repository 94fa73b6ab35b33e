package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"gorm.io/gorm"

	"microblog/internal/cache"
	apperrors "microblog/internal/errors"
	"microblog/internal/model"
	"microblog/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// AvatarStorage persists uploaded profile pictures.
type AvatarStorage interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(name string) error
}

// UserService exposes profile operations.
type UserService interface {
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// UpdateProfile changes username/email, re-checking uniqueness against
	// everyone but the user themselves. A non-nil avatar replaces the stored
	// profile picture.
	UpdateProfile(ctx context.Context, user *model.User, username, email string, avatar *multipart.FileHeader) (*model.User, error)
}

type userService struct {
	repo    repository.UserRepository
	avatars AvatarStorage
	cache   *cache.Client
}

// NewUserService builds a UserService with repository, avatar storage and cache.
func NewUserService(repo repository.UserRepository, avatars AvatarStorage, cache *cache.Client) UserService {
	return &userService{repo: repo, avatars: avatars, cache: cache}
}

func (s *userService) cacheKey(username string) string {
	return fmt.Sprintf("user:username:%s", username)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(username)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(username), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, user *model.User, username, email string, avatar *multipart.FileHeader) (*model.User, error) {
	taken, err := s.repo.UsernameExists(ctx, username, user.ID)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return nil, apperrors.ErrUsernameTaken
	}

	taken, err = s.repo.EmailExists(ctx, email, user.ID)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return nil, apperrors.ErrEmailTaken
	}

	oldUsername := user.Username
	oldImage := user.ImageFile

	if avatar != nil {
		name, err := s.avatars.Save(avatar)
		if err != nil {
			return nil, fmt.Errorf("save avatar: %w", err)
		}
		user.ImageFile = name
	}

	user.Username = username
	user.Email = email
	if err := s.repo.Update(ctx, user); err != nil {
		// the new avatar was already written to disk; don't orphan it
		if avatar != nil && user.ImageFile != oldImage {
			_ = s.avatars.Remove(user.ImageFile)
			user.ImageFile = oldImage
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	if avatar != nil && oldImage != user.ImageFile {
		_ = s.avatars.Remove(oldImage)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(oldUsername))
	_ = s.cache.Delete(ctx, s.cacheKey(user.Username))

	return user, nil
}
