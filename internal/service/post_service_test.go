package service

import (
	"context"
	"math"
	"mime/multipart"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "microblog/internal/errors"
	"microblog/internal/model"
)

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, user *model.User, username, email string, avatar *multipart.FileHeader) (*model.User, error) {
	args := m.Called(ctx, user, username, email, avatar)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockPostRepository is a mock implementation of PostRepository.
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *model.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) FindByID(ctx context.Context, id uint) (*model.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) UpdateContent(ctx context.Context, post *model.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, post *model.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) List(ctx context.Context, limit, offset int, authorID uint) ([]model.Post, int64, error) {
	args := m.Called(ctx, limit, offset, authorID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Post), args.Get(1).(int64), args.Error(2)
}

func TestPostService_CreatePost(t *testing.T) {
	mockPosts := new(MockPostRepository)
	mockUsers := new(MockUserService)
	author := &model.User{ID: 3, Username: "corey"}

	mockPosts.On("Create", mock.Anything, mock.AnythingOfType("*model.Post")).Return(nil)

	service := NewPostService(mockPosts, mockUsers)
	before := time.Now().UTC()
	post, err := service.CreatePost(context.Background(), author, "First Post", "hello world")
	after := time.Now().UTC()

	assert.NoError(t, err)
	assert.Equal(t, "First Post", post.Title)
	assert.Equal(t, uint(3), post.UserID)
	// timestamp is captured at the call, not at process start
	assert.False(t, post.DatePosted.Before(before))
	assert.False(t, post.DatePosted.After(after))
	mockPosts.AssertExpectations(t)
}

func TestPostService_GetPost_NotFound(t *testing.T) {
	mockPosts := new(MockPostRepository)
	mockPosts.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)

	service := NewPostService(mockPosts, new(MockUserService))
	post, err := service.GetPost(context.Background(), 99)

	assert.Equal(t, apperrors.ErrPostNotFound, err)
	assert.Nil(t, post)
}

func TestPostService_UpdatePost(t *testing.T) {
	owner := &model.User{ID: 3, Username: "corey"}
	stranger := &model.User{ID: 4, Username: "dana"}
	stored := &model.Post{ID: 10, Title: "Old", Content: "old", UserID: 3}

	tests := []struct {
		name          string
		identity      *model.User
		setupMock     func(*MockPostRepository)
		expectedError error
	}{
		{
			name:     "owner can update",
			identity: owner,
			setupMock: func(m *MockPostRepository) {
				m.On("FindByID", mock.Anything, uint(10)).Return(stored, nil)
				m.On("UpdateContent", mock.Anything, mock.AnythingOfType("*model.Post")).Return(nil)
			},
		},
		{
			name:     "non-owner is forbidden and nothing is written",
			identity: stranger,
			setupMock: func(m *MockPostRepository) {
				m.On("FindByID", mock.Anything, uint(10)).Return(stored, nil)
			},
			expectedError: apperrors.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPosts := new(MockPostRepository)
			tt.setupMock(mockPosts)

			service := NewPostService(mockPosts, new(MockUserService))
			post, err := service.UpdatePost(context.Background(), tt.identity, 10, "New", "new content")

			if tt.expectedError != nil {
				assert.Equal(t, tt.expectedError, err)
				assert.Nil(t, post)
				mockPosts.AssertNotCalled(t, "UpdateContent", mock.Anything, mock.Anything)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "New", post.Title)
				assert.Equal(t, "new content", post.Content)
			}
			mockPosts.AssertExpectations(t)
		})
	}
}

func TestPostService_DeletePost_Forbidden(t *testing.T) {
	stranger := &model.User{ID: 4}
	stored := &model.Post{ID: 10, UserID: 3}

	mockPosts := new(MockPostRepository)
	mockPosts.On("FindByID", mock.Anything, uint(10)).Return(stored, nil)

	service := NewPostService(mockPosts, new(MockUserService))
	err := service.DeletePost(context.Background(), stranger, 10)

	assert.Equal(t, apperrors.ErrForbidden, err)
	mockPosts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPostService_DeletePost(t *testing.T) {
	owner := &model.User{ID: 3}
	stored := &model.Post{ID: 10, UserID: 3}

	mockPosts := new(MockPostRepository)
	mockPosts.On("FindByID", mock.Anything, uint(10)).Return(stored, nil)
	mockPosts.On("Delete", mock.Anything, stored).Return(nil)

	service := NewPostService(mockPosts, new(MockUserService))
	assert.NoError(t, service.DeletePost(context.Background(), owner, 10))
	mockPosts.AssertExpectations(t)
}

func TestCanMutatePost(t *testing.T) {
	post := &model.Post{ID: 1, UserID: 3}

	assert.True(t, CanMutatePost(&model.User{ID: 3}, post))
	assert.False(t, CanMutatePost(&model.User{ID: 4}, post))
	assert.False(t, CanMutatePost(nil, post))
}

func TestPostService_ListPosts(t *testing.T) {
	// 5 posts, 2 per page: pages are 2/2/1
	tests := []struct {
		name         string
		page         int
		returnCount  int
		wantHasNext  bool
		wantHasPrev  bool
		wantTotalPgs int
	}{
		{name: "first page", page: 1, returnCount: 2, wantHasNext: true, wantHasPrev: false, wantTotalPgs: 3},
		{name: "middle page", page: 2, returnCount: 2, wantHasNext: true, wantHasPrev: true, wantTotalPgs: 3},
		{name: "last page", page: 3, returnCount: 1, wantHasNext: false, wantHasPrev: true, wantTotalPgs: 3},
		{name: "past the end", page: 9, returnCount: 0, wantHasNext: false, wantHasPrev: true, wantTotalPgs: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]model.Post, tt.returnCount)
			mockPosts := new(MockPostRepository)
			mockPosts.On("List", mock.Anything, 2, (tt.page-1)*2, uint(0)).Return(items, int64(5), nil)

			service := NewPostService(mockPosts, new(MockUserService))
			page, err := service.ListPosts(context.Background(), tt.page, 2)

			assert.NoError(t, err)
			assert.Len(t, page.Items, tt.returnCount)
			assert.Equal(t, tt.wantHasNext, page.HasNext)
			assert.Equal(t, tt.wantHasPrev, page.HasPrev)
			assert.Equal(t, tt.wantTotalPgs, page.TotalPages)
			assert.Equal(t, int64(5), page.Total)
		})
	}
}

func TestPostService_ListPosts_InvalidPage(t *testing.T) {
	service := NewPostService(new(MockPostRepository), new(MockUserService))

	for _, page := range []int{0, -1} {
		result, err := service.ListPosts(context.Background(), page, 2)
		assert.Equal(t, apperrors.ErrInvalidPage, err)
		assert.Nil(t, result)
	}
}

func TestPostService_ListPosts_PageOverflow(t *testing.T) {
	// an enormous page number must land past the data, never wrap the offset
	// negative and serve the first page again
	mockPosts := new(MockPostRepository)
	mockPosts.On("List", mock.Anything, 2, mock.MatchedBy(func(offset int) bool { return offset >= 0 }), uint(0)).
		Return([]model.Post{}, int64(3), nil)

	service := NewPostService(mockPosts, new(MockUserService))
	page, err := service.ListPosts(context.Background(), math.MaxInt, 2)

	assert.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrev)
}

func TestPostService_ListPostsByAuthor(t *testing.T) {
	author := &model.User{ID: 3, Username: "corey"}

	mockUsers := new(MockUserService)
	mockUsers.On("GetByUsername", mock.Anything, "corey").Return(author, nil)
	mockPosts := new(MockPostRepository)
	mockPosts.On("List", mock.Anything, 2, 0, uint(3)).Return([]model.Post{{ID: 1, UserID: 3}}, int64(1), nil)

	service := NewPostService(mockPosts, mockUsers)
	page, user, err := service.ListPostsByAuthor(context.Background(), "corey", 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, author, user)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasNext)
	// the author comes out of the user service so its cache fronts the lookup
	mockUsers.AssertExpectations(t)
}

func TestPostService_ListPostsByAuthor_UnknownUser(t *testing.T) {
	mockUsers := new(MockUserService)
	mockUsers.On("GetByUsername", mock.Anything, "ghost").Return(nil, apperrors.ErrUserNotFound)

	service := NewPostService(new(MockPostRepository), mockUsers)
	page, user, err := service.ListPostsByAuthor(context.Background(), "ghost", 1, 2)

	assert.Equal(t, apperrors.ErrUserNotFound, err)
	assert.Nil(t, page)
	assert.Nil(t, user)
}
