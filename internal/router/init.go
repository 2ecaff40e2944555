package router

import (
	"context"
	"time"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/container"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/collection"
	handlers "github.com/oksasatya/go-ddd-library/internal/interface/http"
	"github.com/oksasatya/go-ddd-library/internal/router/modules"
)

// ModuleDeps is everything the feature modules are built from.
type ModuleDeps struct {
	Users    *application.UserService
	Books    *application.BookService
	Engine   *application.LoanEngine
	Notifier *application.LoanNotifier
}

func buildDeps() ModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	store := container.GetStore()
	lock := container.GetCatalogLock()

	bookRepo := collection.NewBookRepository(store)
	userRepo := collection.NewUserRepository(store)
	loanRepo := collection.NewLoanRepository(store)

	users := application.NewUserService(userRepo, container.GetJWT(), container.GetRedis(), logger)

	books := application.NewBookService(bookRepo, lock, logger)
	if es := container.GetES(); es != nil {
		books.WithSearch(es, cfg.ESBooksIndex)
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		books.WithCovers(gcs, cfg.GCSBucket)
	}

	engine := application.NewLoanEngine(bookRepo, loanRepo, application.LoanEngineOptions{
		LoanDays:         cfg.LoanDays,
		MaxActive:        cfg.LoanMaxActive,
		ApprovalWorkflow: cfg.LoanApprovalWorkflow,
		DisableLimits:    !cfg.LoanEnforceLimits,
		Lock:             lock,
		Now:              time.Now,
		Logger:           logger,
	})

	// a nil *RabbitPublisher must stay a nil interface
	var pub application.JobPublisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}
	notifier := application.NewLoanNotifier(pub, userRepo, bookRepo, cfg, logger)

	return ModuleDeps{Users: users, Books: books, Engine: engine, Notifier: notifier}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	deps := buildDeps()

	if container.GetES() != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			n, err := deps.Books.ReindexAll(ctx)
			if err != nil {
				logger.WithError(err).Warn("initial book reindex failed")
				return
			}
			logger.WithField("books", n).Info("book index refreshed")
		}()
	}

	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(deps.Users, logger, cfg.CookieDomain, cfg.CookieSecure),
		deps.Users,
		container.GetJWT(),
	))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(deps.Users, logger), deps.Users, container.GetJWT()))
	r.Add(modules.NewBookModule(handlers.NewBookHandler(deps.Books, logger), deps.Users, container.GetJWT()))
	r.Add(modules.NewLoanModule(handlers.NewLoanHandler(deps.Engine, deps.Notifier, logger), deps.Users, container.GetJWT()))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(cfg.StoreDriver, deps.Engine, r.Names))
	}
}
