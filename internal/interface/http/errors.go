package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/application"
	repo "github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/pkg/response"
)

// abortWithError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as a 500 without details.
func abortWithError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Abort(c, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Abort(c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, application.ErrBookNotFound):
		response.Abort(c, http.StatusNotFound, "book not found", nil)
	case errors.Is(err, repo.ErrNotFound):
		response.Abort(c, http.StatusNotFound, "not found", nil)
	case errors.Is(err, application.ErrEmailTaken):
		response.Abort(c, http.StatusConflict, "email already registered", nil)
	case errors.Is(err, application.ErrBookOnLoan):
		response.Abort(c, http.StatusConflict, "book is on loan", nil)
	case errors.Is(err, application.ErrInvalidRole),
		errors.Is(err, application.ErrInvalidStatus),
		errors.Is(err, application.ErrEmptySearchKey):
		response.Abort(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrCoverDisabled):
		response.Abort(c, http.StatusServiceUnavailable, err.Error(), nil)
	default:
		if logger != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"path":       c.FullPath(),
				"request_id": c.GetString("request_id"),
			}).Error("request failed")
		}
		response.Abort(c, http.StatusInternalServerError, "internal error", nil)
	}
}

// StatusForCode is the HTTP status of a refused loan operation.
func StatusForCode(code application.ErrorCode) int {
	switch code {
	case application.CodeNotLoggedIn:
		return http.StatusUnauthorized
	case application.CodeBookNotFound, application.CodeLoanNotFound:
		return http.StatusNotFound
	default:
		return http.StatusConflict
	}
}
