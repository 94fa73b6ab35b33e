package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"microblog/internal/auth"
	"microblog/internal/config"
	"microblog/internal/handler"
	appmw "microblog/internal/middleware"
	"microblog/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authService service.AuthService,
	authHandler *handler.AuthHandler,
	accountHandler *handler.AccountHandler,
	postHandler *handler.PostHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.GET("/", postHandler.ListPosts)
	e.GET("/home", postHandler.ListPosts)
	e.POST("/register", authHandler.Register)
	e.POST("/login", authHandler.Login)
	e.GET("/post/:id", postHandler.GetPost)
	e.GET("/user/:username", postHandler.ListUserPosts)

	// Protected routes: echo-jwt verifies the signature, the session
	// middleware checks revocation and loads the identity.
	protected := e.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
	}), appmw.Session(authService))

	protected.GET("/logout", authHandler.Logout)
	protected.GET("/account", accountHandler.GetAccount)
	protected.POST("/account", accountHandler.UpdateAccount)
	protected.POST("/post/new", postHandler.CreatePost)
	protected.POST("/post/:id/update", postHandler.UpdatePost)
	protected.POST("/post/:id/delete", postHandler.DeletePost)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
