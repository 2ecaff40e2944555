package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-library/internal/container"
	handlers "github.com/oksasatya/go-ddd-library/internal/interface/http"
	"github.com/oksasatya/go-ddd-library/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

// LoanModule wires the loan engine endpoints. Every route needs a session;
// listing other users' loans and the approval workflow need an admin.
type LoanModule struct {
	Handler  *handlers.LoanHandler
	Sessions middleware.SessionValidator
	JWT      *helpers.JWTManager
}

func NewLoanModule(h *handlers.LoanHandler, sessions middleware.SessionValidator, jwt *helpers.JWTManager) *LoanModule {
	return &LoanModule{Handler: h, Sessions: sessions, JWT: jwt}
}

func (m *LoanModule) Name() string { return "loan" }

func (m *LoanModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	loans := rg.Group("/loans")
	loans.Use(middleware.Auth(m.Sessions, m.JWT))
	loans.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), middleware.AllowAdmin()))
	{
		loans.POST("", m.Handler.Request)
		loans.POST("/batch", m.Handler.RequestBatch)
		loans.GET("/me", m.Handler.Mine)
		loans.POST("/:id/return", m.Handler.Return)
	}

	admin := loans.Group("")
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", m.Handler.List)
		admin.GET("/:id", m.Handler.Get)
		admin.POST("/:id/approve", m.Handler.Approve)
		admin.POST("/:id/reject", m.Handler.Reject)
		admin.POST("/:id/notify", m.Handler.Notify)
	}
}
