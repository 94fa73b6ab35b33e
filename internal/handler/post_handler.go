package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"microblog/internal/errors"
	"microblog/internal/middleware"
	"microblog/internal/model"
	"microblog/internal/service"
)

// PostHandler handles blog post endpoints.
type PostHandler struct {
	postService service.PostService
	perPage     int
}

// NewPostHandler creates a new post handler. perPage controls list page size.
func NewPostHandler(postService service.PostService, perPage int) *PostHandler {
	return &PostHandler{postService: postService, perPage: perPage}
}

// PostRequest represents a post create/update payload.
type PostRequest struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required"`
}

// PostResponse is the public view of a post.
type PostResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	DatePosted  time.Time `json:"date_posted"`
	Author      string    `json:"author"`
	AuthorImage string    `json:"author_image"`
}

// PageResponse is one page of posts plus paging metadata.
type PageResponse struct {
	Posts      []PostResponse `json:"posts"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	Total      int64          `json:"total"`
	TotalPages int            `json:"total_pages"`
	HasNext    bool           `json:"has_next"`
	HasPrev    bool           `json:"has_prev"`
}

func newPostResponse(p *model.Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		DatePosted:  p.DatePosted,
		Author:      p.Author.Username,
		AuthorImage: p.Author.ImageFile,
	}
}

func newPageResponse(page *service.Page) PageResponse {
	posts := make([]PostResponse, 0, len(page.Items))
	for i := range page.Items {
		posts = append(posts, newPostResponse(&page.Items[i]))
	}
	return PageResponse{
		Posts:      posts,
		Page:       page.Page,
		PerPage:    page.PerPage,
		Total:      page.Total,
		TotalPages: page.TotalPages,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
	}
}

// pageParam parses ?page= with a default of 1. A non-integer value is a 400,
// matching the strictness of the integer route converter it replaces.
func pageParam(c echo.Context) (int, error) {
	raw := c.QueryParam("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "page must be an integer",
			Code:  "INVALID_PAGE",
		})
	}
	return page, nil
}

// ListPosts godoc
// @Summary List posts, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} PageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router / [get]
func (h *PostHandler) ListPosts(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	result, err := h.postService.ListPosts(c.Request().Context(), page, h.perPage)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, newPageResponse(result))
}

// ListUserPosts godoc
// @Summary List one user's posts, newest first
// @Tags posts
// @Produce json
// @Param username path string true "Author username"
// @Param page query int false "Page number (1-based)"
// @Success 200 {object} PageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user/{username} [get]
func (h *PostHandler) ListUserPosts(c echo.Context) error {
	page, err := pageParam(c)
	if err != nil {
		return err
	}

	result, _, err := h.postService.ListPostsByAuthor(c.Request().Context(), c.Param("username"), page, h.perPage)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, newPageResponse(result))
}

// GetPost godoc
// @Summary Get a single post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /post/{id} [get]
func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := postIDParam(c)
	if err != nil {
		return err
	}

	post, err := h.postService.GetPost(c.Request().Context(), id)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, newPostResponse(post))
}

// CreatePost godoc
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PostRequest true "Post payload"
// @Success 201 {object} PostResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /post/new [post]
func (h *PostHandler) CreatePost(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postService.CreatePost(c.Request().Context(), user, req.Title, req.Content)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusCreated, newPostResponse(post))
}

// UpdatePost godoc
// @Summary Update a post (author only)
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body PostRequest true "Post payload"
// @Success 200 {object} PostResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /post/{id}/update [post]
func (h *PostHandler) UpdatePost(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	id, err := postIDParam(c)
	if err != nil {
		return err
	}

	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.postService.UpdatePost(c.Request().Context(), user, id, req.Title, req.Content)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, newPostResponse(post))
}

// DeletePost godoc
// @Summary Delete a post (author only)
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /post/{id}/delete [post]
func (h *PostHandler) DeletePost(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
	}

	id, err := postIDParam(c)
	if err != nil {
		return err
	}

	if err := h.postService.DeletePost(c.Request().Context(), user, id); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "post deleted",
	})
}

func postIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid post id",
			Code:  "INVALID_POST_ID",
		})
	}
	return uint(id), nil
}
