package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "microblog/internal/errors"
	"microblog/internal/model"
	"microblog/internal/repository"
)

// Page is one bounded, ordered slice of the post collection.
type Page struct {
	Items      []model.Post
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// PostService exposes post CRUD with ownership enforcement and pagination.
type PostService interface {
	CreatePost(ctx context.Context, author *model.User, title, content string) (*model.Post, error)
	GetPost(ctx context.Context, id uint) (*model.Post, error)
	// UpdatePost and DeletePost check ownership before touching anything and
	// return ErrForbidden for any identity other than the post's author.
	UpdatePost(ctx context.Context, identity *model.User, id uint, title, content string) (*model.Post, error)
	DeletePost(ctx context.Context, identity *model.User, id uint) error
	ListPosts(ctx context.Context, page, perPage int) (*Page, error)
	// ListPostsByAuthor pages through a single user's posts, resolving the
	// username first; 404s propagate as ErrUserNotFound.
	ListPostsByAuthor(ctx context.Context, username string, page, perPage int) (*Page, *model.User, error)
}

type postService struct {
	postRepo repository.PostRepository
	users    UserService
}

// NewPostService builds a PostService. Author lookups go through the user
// service so its cache fronts them.
func NewPostService(postRepo repository.PostRepository, users UserService) PostService {
	return &postService{postRepo: postRepo, users: users}
}

// CanMutatePost reports whether identity owns the post. A nil identity never
// does. Comparison is by id, not by struct equality.
func CanMutatePost(identity *model.User, post *model.Post) bool {
	return identity != nil && identity.ID == post.UserID
}

func (s *postService) CreatePost(ctx context.Context, author *model.User, title, content string) (*model.Post, error) {
	post := &model.Post{
		Title:      title,
		Content:    content,
		DatePosted: time.Now().UTC(), // captured per call, not at startup
		UserID:     author.ID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = *author
	return post, nil
}

func (s *postService) GetPost(ctx context.Context, id uint) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, identity *model.User, id uint, title, content string) (*model.Post, error) {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanMutatePost(identity, post) {
		return nil, apperrors.ErrForbidden
	}

	post.Title = title
	post.Content = content
	if err := s.postRepo.UpdateContent(ctx, post); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, identity *model.User, id uint) error {
	post, err := s.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if !CanMutatePost(identity, post) {
		return apperrors.ErrForbidden
	}

	if err := s.postRepo.Delete(ctx, post); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (s *postService) ListPosts(ctx context.Context, page, perPage int) (*Page, error) {
	return s.list(ctx, page, perPage, 0)
}

func (s *postService) ListPostsByAuthor(ctx context.Context, username string, page, perPage int) (*Page, *model.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}

	pageResult, err := s.list(ctx, page, perPage, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return pageResult, user, nil
}

// list rejects page < 1; a page past the end yields an empty item list with
// correct totals.
func (s *postService) list(ctx context.Context, page, perPage int, authorID uint) (*Page, error) {
	if page < 1 {
		return nil, apperrors.ErrInvalidPage
	}
	if perPage < 1 {
		perPage = 1
	}

	offset := (page - 1) * perPage
	if offset/perPage != page-1 {
		// (page-1)*perPage overflowed. A negative OFFSET would be dropped by
		// the database and hand back the first page; any offset past the last
		// row yields the same empty page, so clamp instead.
		offset = math.MaxInt32
	}
	items, total, err := s.postRepo.List(ctx, perPage, offset, authorID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &Page{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}, nil
}
