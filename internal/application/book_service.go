package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

var (
	ErrBookNotFound   = errors.New("book not found")
	ErrBookOnLoan     = errors.New("book is on loan")
	ErrInvalidStatus  = errors.New("status is managed by loans")
	ErrCoverDisabled  = errors.New("cover storage not configured")
	ErrEmptySearchKey = errors.New("search query is empty")
)

type BookService struct {
	Repo      repo.BookRepository
	GCS       *storage.Client
	GCSBucket string
	ES        *elasticsearch.Client
	ESIndex   string
	Logger    *logrus.Logger
	NewID     func() string

	mu sync.Locker
}

// BookInput is used for create and update. Empty fields are left untouched
// on update.
type BookInput struct {
	Title       string
	Author      string
	Category    string
	Description string
	CoverURL    string
	BannerURL   string
	Status      entity.BookStatus
}

// NewBookService builds the catalog service. lock must be the one the
// LoanEngine uses so status edits never interleave with a loan transition.
func NewBookService(r repo.BookRepository, lock sync.Locker, logger *logrus.Logger) *BookService {
	if lock == nil {
		lock = &sync.Mutex{}
	}
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &BookService{Repo: r, Logger: logger, NewID: uuid.NewString, mu: lock}
}

// WithSearch enables Elasticsearch indexing and search.
func (s *BookService) WithSearch(es *elasticsearch.Client, index string) *BookService {
	s.ES = es
	s.ESIndex = index
	return s
}

// WithCovers enables cover uploads to a GCS bucket.
func (s *BookService) WithCovers(gcs *storage.Client, bucket string) *BookService {
	s.GCS = gcs
	s.GCSBucket = bucket
	return s
}

func (s *BookService) ListBooks(ctx context.Context) ([]entity.Book, error) {
	return s.Repo.All(ctx)
}

func (s *BookService) GetBook(ctx context.Context, id string) (entity.Book, error) {
	books, err := s.Repo.All(ctx)
	if err != nil {
		return entity.Book{}, err
	}
	if i := indexOfBook(books, id); i >= 0 {
		return books[i], nil
	}
	return entity.Book{}, ErrBookNotFound
}

// CreateBook adds a catalog entry. New books can never start out loaned.
func (s *BookService) CreateBook(ctx context.Context, in BookInput) (entity.Book, error) {
	if in.Status == "" {
		in.Status = entity.BookAvailable
	}
	if in.Status == entity.BookLoaned {
		return entity.Book{}, ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.Repo.All(ctx)
	if err != nil {
		return entity.Book{}, fmt.Errorf("create book: %w", err)
	}
	b := entity.Book{
		ID:          s.NewID(),
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		Category:    strings.TrimSpace(in.Category),
		Description: in.Description,
		CoverURL:    in.CoverURL,
		BannerURL:   in.BannerURL,
		Status:      in.Status,
	}
	books = append(books, b)
	if err := s.Repo.SaveAll(ctx, books); err != nil {
		return entity.Book{}, fmt.Errorf("create book: %w", err)
	}
	s.indexBook(ctx, b)
	return b, nil
}

// UpdateBook edits catalog fields. Status may move between available,
// reserved and maintenance; loaned is owned by the loan engine.
func (s *BookService) UpdateBook(ctx context.Context, id string, in BookInput) (entity.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.Repo.All(ctx)
	if err != nil {
		return entity.Book{}, fmt.Errorf("update book: %w", err)
	}
	i := indexOfBook(books, id)
	if i < 0 {
		return entity.Book{}, ErrBookNotFound
	}
	b := &books[i]
	if in.Status != "" && in.Status != b.Status {
		if in.Status == entity.BookLoaned {
			return entity.Book{}, ErrInvalidStatus
		}
		if b.Status == entity.BookLoaned {
			return entity.Book{}, ErrBookOnLoan
		}
		b.Status = in.Status
	}
	setIfNotEmpty(&b.Title, strings.TrimSpace(in.Title))
	setIfNotEmpty(&b.Author, strings.TrimSpace(in.Author))
	setIfNotEmpty(&b.Category, strings.TrimSpace(in.Category))
	setIfNotEmpty(&b.Description, in.Description)
	setIfNotEmpty(&b.CoverURL, in.CoverURL)
	setIfNotEmpty(&b.BannerURL, in.BannerURL)

	if err := s.Repo.SaveAll(ctx, books); err != nil {
		return entity.Book{}, fmt.Errorf("update book: %w", err)
	}
	s.indexBook(ctx, *b)
	return *b, nil
}

// DeleteBook removes a book that no loan currently holds. Past loans keep
// their dangling reference.
func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	books, err := s.Repo.All(ctx)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	i := indexOfBook(books, id)
	if i < 0 {
		return ErrBookNotFound
	}
	if books[i].Status == entity.BookLoaned {
		return ErrBookOnLoan
	}
	books = append(books[:i], books[i+1:]...)
	if err := s.Repo.SaveAll(ctx, books); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	s.unindexBook(ctx, id)
	return nil
}

// SearchBooks matches q against title, author, category and description.
// Elasticsearch ranks the hits when configured; otherwise, or when the
// search cluster fails, a case-insensitive substring scan is used. Results
// always carry the stored status.
func (s *BookService) SearchBooks(ctx context.Context, q string, size int) ([]entity.Book, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptySearchKey
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	books, err := s.Repo.All(ctx)
	if err != nil {
		return nil, err
	}

	if s.ES != nil && s.ESIndex != "" {
		ids, esErr := s.searchIDs(ctx, q, size)
		if esErr == nil {
			out := make([]entity.Book, 0, len(ids))
			for _, id := range ids {
				if i := indexOfBook(books, id); i >= 0 {
					out = append(out, books[i])
				}
			}
			return out, nil
		}
		s.Logger.WithError(esErr).WithField("q", q).Warn("es search failed, scanning collection")
	}

	needle := strings.ToLower(q)
	out := make([]entity.Book, 0)
	for _, b := range books {
		hay := strings.ToLower(strings.Join([]string{b.Title, b.Author, b.Category, b.Description}, " "))
		if strings.Contains(hay, needle) {
			out = append(out, b)
			if len(out) == size {
				break
			}
		}
	}
	return out, nil
}

// ReindexAll pushes every stored book to the search index.
// bookIndexMapping is the Elasticsearch mapping of the search index.
var bookIndexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"title":       map[string]any{"type": "text"},
			"author":      map[string]any{"type": "text"},
			"category":    map[string]any{"type": "keyword"},
			"description": map[string]any{"type": "text"},
		},
	},
}

// ReindexAll makes sure the index exists and pushes every stored book to it.
func (s *BookService) ReindexAll(ctx context.Context) (int, error) {
	if s.ES == nil || s.ESIndex == "" {
		return 0, nil
	}
	if err := helpers.ESEnsureIndex(ctx, s.ES, s.ESIndex, bookIndexMapping); err != nil {
		return 0, fmt.Errorf("reindex: %w", err)
	}
	books, err := s.Repo.All(ctx)
	if err != nil {
		return 0, err
	}
	for _, b := range books {
		s.indexBook(ctx, b)
	}
	return len(books), nil
}

// UploadCover stores an image in GCS and points the book's cover at it.
// A previous cover kept in the same bucket is removed.
func (s *BookService) UploadCover(ctx context.Context, bookID string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", ErrCoverDisabled
	}
	prev, err := s.GetBook(ctx, bookID)
	if err != nil {
		return "", err
	}
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, helpers.ObjectPath("covers", bookID, filename), contentType, r)
	if err != nil {
		return "", fmt.Errorf("upload cover: %w", err)
	}
	if _, err := s.UpdateBook(ctx, bookID, BookInput{CoverURL: url}); err != nil {
		return "", err
	}
	if old, ok := helpers.ObjectFromPublicURL(s.GCSBucket, prev.CoverURL); ok {
		if err := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, old); err != nil {
			s.Logger.WithError(err).WithField("object", old).Warn("old cover not removed")
		}
	}
	return url, nil
}

func (s *BookService) indexBook(ctx context.Context, b entity.Book) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          b.ID,
		"title":       b.Title,
		"author":      b.Author,
		"category":    b.Category,
		"description": b.Description,
	}
	if err := helpers.ESIndexDoc(ctx, s.ES, s.ESIndex, b.ID, doc); err != nil {
		s.Logger.WithError(err).WithField("book_id", b.ID).Warn("es index failed")
	}
}

func (s *BookService) unindexBook(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	if err := helpers.ESDeleteDoc(ctx, s.ES, s.ESIndex, id); err != nil {
		s.Logger.WithError(err).WithField("book_id", id).Warn("es delete failed")
	}
}

func (s *BookService) searchIDs(ctx context.Context, q string, size int) ([]string, error) {
	return helpers.ESSearchIDs(ctx, s.ES, s.ESIndex, map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"title^3", "author^2", "category", "description"},
				"fuzziness": "AUTO",
			},
		},
		"_source": false,
		"size":    size,
	})
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
