package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/application"
	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	"github.com/oksasatya/go-ddd-library/pkg/response"
	"github.com/oksasatya/go-ddd-library/pkg/validation"
)

const maxCoverBytes = 5 << 20

type BookHandler struct {
	Svc    *application.BookService
	Logger *logrus.Logger
}

func NewBookHandler(svc *application.BookService, logger *logrus.Logger) *BookHandler {
	return &BookHandler{Svc: svc, Logger: logger}
}

type bookRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Author      string `json:"author" binding:"required,max=200"`
	Category    string `json:"category" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
	CoverURL    string `json:"coverUrl" binding:"omitempty,url"`
	BannerURL   string `json:"bannerUrl" binding:"omitempty,url"`
	Status      string `json:"status" binding:"omitempty,bookstatus"`
}

type bookPatchRequest struct {
	Title       string `json:"title" binding:"max=200"`
	Author      string `json:"author" binding:"max=200"`
	Category    string `json:"category" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
	CoverURL    string `json:"coverUrl" binding:"omitempty,url"`
	BannerURL   string `json:"bannerUrl" binding:"omitempty,url"`
	Status      string `json:"status" binding:"omitempty,bookstatus"`
}

func (r bookPatchRequest) input() application.BookInput {
	return application.BookInput{
		Title: r.Title, Author: r.Author, Category: r.Category, Description: r.Description,
		CoverURL: r.CoverURL, BannerURL: r.BannerURL, Status: entity.BookStatus(r.Status),
	}
}

func (h *BookHandler) List(c *gin.Context) {
	books, err := h.Svc.ListBooks(c.Request.Context())
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	if status := c.Query("status"); status != "" {
		filtered := make([]entity.Book, 0, len(books))
		for _, b := range books {
			if string(b.Status) == status {
				filtered = append(filtered, b)
			}
		}
		books = filtered
	}
	response.OK(c, http.StatusOK, books, "books", map[string]any{"count": len(books)})
}

func (h *BookHandler) Get(c *gin.Context) {
	b, err := h.Svc.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, b, "book", nil)
}

func (h *BookHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	books, err := h.Svc.SearchBooks(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, books, "search results", map[string]any{"count": len(books)})
}

func (h *BookHandler) Create(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	b, err := h.Svc.CreateBook(c.Request.Context(), bookPatchRequest(req).input())
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusCreated, b, "book created", nil)
}

func (h *BookHandler) Update(c *gin.Context) {
	var req bookPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Abort(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	b, err := h.Svc.UpdateBook(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, b, "book updated", nil)
}

func (h *BookHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.Svc.DeleteBook(c.Request.Context(), id); err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK[any](c, http.StatusOK, map[string]any{"deleted": id}, "book deleted", nil)
}

// UploadCover accepts a multipart "file" field holding an image.
func (h *BookHandler) UploadCover(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.Abort(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if fh.Size > maxCoverBytes {
		response.Abort(c, http.StatusRequestEntityTooLarge, "cover too large", map[string]any{"max_bytes": maxCoverBytes})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Abort(c, http.StatusUnsupportedMediaType, "cover must be an image", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadCover(c.Request.Context(), c.Param("id"), f, fh.Filename, contentType)
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"coverUrl": url}, "cover uploaded", nil)
}

func (h *BookHandler) Reindex(c *gin.Context) {
	n, err := h.Svc.ReindexAll(c.Request.Context())
	if err != nil {
		abortWithError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusAccepted, gin.H{"indexed": n}, "reindex done", nil)
}
