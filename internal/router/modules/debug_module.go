package modules

import (
	"context"
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/container"
	"github.com/oksasatya/go-ddd-library/internal/interface/middleware"
)

// DebugModule serves expvar at /api/debug/vars with loan counters, the
// store driver, the mounted modules and postgres pool stats.
type DebugModule struct {
	StoreDriver string
	Engine      *application.LoanEngine
	Modules     func() []string
}

func NewDebugModule(storeDriver string, engine *application.LoanEngine, modules func() []string) *DebugModule {
	return &DebugModule{StoreDriver: storeDriver, Engine: engine, Modules: modules}
}

func (m *DebugModule) Name() string { return "debug" }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	publish("store_driver", func() any { return m.StoreDriver })
	publish("modules", func() any { return m.Modules() })
	publish("loans", func() any { return m.loanStats() })
	if pool := container.GetPGPool(); pool != nil {
		publish("pg_pool", func() any {
			s := pool.Stat()
			return map[string]any{
				"total_conns":    s.TotalConns(),
				"idle_conns":     s.IdleConns(),
				"acquired_conns": s.AcquiredConns(),
			}
		})
	}

	// private networks skip the limiter; everyone else gets 120 req/min per IP
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}

func (m *DebugModule) loanStats() map[string]int {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	loans, err := m.Engine.Loans(ctx)
	if err != nil {
		return nil
	}
	out := map[string]int{}
	now := time.Now()
	for _, l := range loans {
		out[string(l.Status)]++
		if l.Overdue(now) {
			out["overdue"]++
		}
	}
	return out
}

// publish skips names already taken; expvar panics on duplicates.
func publish(name string, fn func() any) {
	if expvar.Get(name) != nil {
		return
	}
	expvar.Publish(name, expvar.Func(fn))
}
