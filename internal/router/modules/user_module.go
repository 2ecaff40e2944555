package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-ddd-library/internal/interface/http"
	"github.com/oksasatya/go-ddd-library/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

// UserModule is the admin-only user management surface under /api/users.
type UserModule struct {
	Handler  *handlers.UserHandler
	Sessions middleware.SessionValidator
	JWT      *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, sessions middleware.SessionValidator, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Sessions: sessions, JWT: jwt}
}

func (m *UserModule) Name() string { return "user" }

func (m *UserModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/users")
	admin.Use(middleware.Auth(m.Sessions, m.JWT), middleware.RequireAdmin())
	{
		admin.GET("", m.Handler.List)
		admin.POST("", m.Handler.Create)
		admin.GET("/:id", m.Handler.Get)
		admin.PUT("/:id", m.Handler.Update)
		admin.DELETE("/:id", m.Handler.Delete)
	}
}
