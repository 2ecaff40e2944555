package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-library/internal/container"
	handlers "github.com/oksasatya/go-ddd-library/internal/interface/http"
	"github.com/oksasatya/go-ddd-library/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

// BookModule exposes the catalog. Reads are public; writes need an admin.
type BookModule struct {
	Handler  *handlers.BookHandler
	Sessions middleware.SessionValidator
	JWT      *helpers.JWTManager
}

func NewBookModule(h *handlers.BookHandler, sessions middleware.SessionValidator, jwt *helpers.JWTManager) *BookModule {
	return &BookModule{Handler: h, Sessions: sessions, JWT: jwt}
}

func (m *BookModule) Name() string { return "book" }

func (m *BookModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	readLimiter := middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	searchLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())

	rg.GET("/books", readLimiter, m.Handler.List)
	rg.GET("/books/search", searchLimiter, m.Handler.Search)
	rg.GET("/books/:id", readLimiter, m.Handler.Get)

	admin := rg.Group("/books")
	admin.Use(middleware.Auth(m.Sessions, m.JWT), middleware.RequireAdmin())
	{
		admin.POST("", m.Handler.Create)
		admin.POST("/reindex", m.Handler.Reindex)
		admin.PUT("/:id", m.Handler.Update)
		admin.DELETE("/:id", m.Handler.Delete)
		admin.POST("/:id/cover", m.Handler.UploadCover)
	}
}
