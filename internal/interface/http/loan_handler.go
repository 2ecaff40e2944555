package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/internal/interface/middleware"
	"github.com/oksasatya/go-ddd-library/pkg/response"
	"github.com/oksasatya/go-ddd-library/pkg/validation"
)

type LoanHandler struct {
	Engine   *application.LoanEngine
	Notifier *application.LoanNotifier
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewLoanHandler(engine *application.LoanEngine, notifier *application.LoanNotifier, logger *logrus.Logger) *LoanHandler {
	return &LoanHandler{Engine: engine, Notifier: notifier, Logger: logger, Now: time.Now}
}

type loanRequest struct {
	BookID string `json:"bookId" binding:"required"`
}

type batchLoanRequest struct {
	BookIDs []string `json:"bookIds" binding:"required,min=1,max=10,dive,required"`
}

// loanView adds derived fields to a stored loan.
type loanView struct {
	entity.Loan
	Overdue bool `json:"overdue"`
}

func (h *LoanHandler) views(loans []entity.Loan) []loanView {
	now := h.Now()
	out := make([]loanView, 0, len(loans))
	for _, l := range loans {
		out = append(out, loanView{Loan: l, Overdue: l.Overdue(now)})
	}
	return out
}

func (h *LoanHandler) Request(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Engine.RequestLoan(c.Request.Context(), c.GetString(middleware.CtxUserID), req.BookID)
	h.finish(c, res, err, http.StatusCreated)
}

// RequestBatch borrows several books at once; each id gets its own result.
func (h *LoanHandler) RequestBatch(c *gin.Context) {
	var req batchLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	results, err := h.Engine.RequestLoans(c.Request.Context(), c.GetString(middleware.CtxUserID), req.BookIDs)
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	created := 0
	for _, r := range results {
		if r.OK {
			created++
			h.Notifier.Notify(detach(c), r)
		}
	}
	response.OK(c, http.StatusOK, results, "batch processed", map[string]any{"requested": len(req.BookIDs), "created": created})
}

func (h *LoanHandler) Mine(c *gin.Context) {
	loans, err := h.Engine.LoansByUser(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, h.views(loans), "loans", map[string]any{"count": len(loans)})
}

// Return lets the borrower or an admin close a loan.
func (h *LoanHandler) Return(c *gin.Context) {
	id := c.Param("id")
	loan, err := h.Engine.LoanByID(c.Request.Context(), id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
	case err != nil:
		abortWithError(c, h.Logger, err)
		return
	case loan.UserID != c.GetString(middleware.CtxUserID) && !middleware.IsAdmin(c):
		response.Abort(c, http.StatusForbidden, "not your loan", nil)
		return
	}
	res, err := h.Engine.ReturnLoan(c.Request.Context(), id)
	h.finish(c, res, err, http.StatusOK)
}

func (h *LoanHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		loans []entity.Loan
		err   error
	)
	switch {
	case c.Query("userId") != "":
		loans, err = h.Engine.LoansByUser(ctx, c.Query("userId"))
	case c.Query("bookId") != "":
		loans, err = h.Engine.LoansByBook(ctx, c.Query("bookId"))
	default:
		loans, err = h.Engine.Loans(ctx)
	}
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, h.views(loans), "loans", map[string]any{"count": len(loans)})
}

func (h *LoanHandler) Get(c *gin.Context) {
	loan, err := h.Engine.LoanByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, h.views([]entity.Loan{loan})[0], "loan", nil)
}

func (h *LoanHandler) Approve(c *gin.Context) {
	res, err := h.Engine.Approve(c.Request.Context(), c.Param("id"))
	h.finish(c, res, err, http.StatusOK)
}

func (h *LoanHandler) Reject(c *gin.Context) {
	res, err := h.Engine.Reject(c.Request.Context(), c.Param("id"))
	h.finish(c, res, err, http.StatusOK)
}

// Notify re-sends the email for a loan's current state.
func (h *LoanHandler) Notify(c *gin.Context) {
	loan, err := h.Engine.LoanByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	if h.Notifier == nil || h.Notifier.Publisher == nil {
		response.OK[any](c, http.StatusAccepted, map[string]any{"enqueued": false, "disabled": true}, "email sending disabled", nil)
		return
	}
	h.Notifier.Notify(c.Request.Context(), application.LoanResult{OK: true, Loan: &loan})
	response.OK[any](c, http.StatusAccepted, map[string]any{"enqueued": true}, "email enqueued", nil)
}

func (h *LoanHandler) finish(c *gin.Context, res application.LoanResult, err error, okStatus int) {
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	if !res.OK {
		response.Abort(c, StatusForCode(res.Code), res.Message, gin.H{"code": res.Code})
		return
	}
	h.Notifier.Notify(detach(c), res)
	response.OK(c, okStatus, res.Loan, res.Message, nil)
}

// detach keeps request values but drops cancellation so a client hang-up
// does not abort an email that follows a committed transition.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
