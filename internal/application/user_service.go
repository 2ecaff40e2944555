package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/internal/domain/entity"
	repo "github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidRole        = errors.New("invalid role")
)

type UserService struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Redis  *redis.Client
	Logger *logrus.Logger
	NewID  func() string

	mu sync.Mutex
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// CreateUserInput carries a plain-text password; it is hashed before storage.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     entity.Role
}

// UpdateUserInput changes only the non-empty fields.
type UpdateUserInput struct {
	Name     string
	Email    string
	Role     entity.Role
	Password string
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &UserService{Repo: r, JWT: jwt, Redis: rdb, Logger: logger, NewID: uuid.NewString}
}

// Register creates a member account. The role is always User.
func (s *UserService) Register(ctx context.Context, in CreateUserInput) (entity.PublicUser, error) {
	in.Role = entity.RoleUser
	return s.CreateUser(ctx, in)
}

// CreateUser is the admin path and accepts any known role.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (entity.PublicUser, error) {
	if !in.Role.Valid() {
		return entity.PublicUser{}, ErrInvalidRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Repo.All(ctx)
	if err != nil {
		return entity.PublicUser{}, fmt.Errorf("create user: %w", err)
	}
	email := entity.NormalizeEmail(in.Email)
	if indexOfEmail(users, email, "") >= 0 {
		return entity.PublicUser{}, ErrEmailTaken
	}
	u := entity.User{
		ID:           s.NewID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Role:         in.Role,
		PasswordHash: helpers.SHA256Hex(in.Password),
	}
	users = append(users, u)
	if err := s.Repo.SaveAll(ctx, users); err != nil {
		return entity.PublicUser{}, fmt.Errorf("create user: %w", err)
	}
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user created")
	return u.Public(), nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	users, err := s.Repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	i := indexOfEmail(users, entity.NormalizeEmail(email), "")
	if i < 0 || !helpers.ComparePasswordHash(users[i].PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &users[i], nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.signPair(u, sid)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"role":       string(u.Role),
			"sid":        sid,
			"logged_in":  true,
			"created_at": helpers.NowRFC3339(time.Now()),
		})
		pipe.Expire(ctx, key, s.JWT.RefreshTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return pair, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (entity.PublicUser, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return entity.PublicUser{}, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return entity.PublicUser{}, TokenPair{}, err
	}
	s.Logger.WithField("user_id", u.ID).Info("user logged in")
	return u.Public(), pair, nil
}

// Refresh exchanges a refresh token for a new pair and rotates the session id.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.find(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return TokenPair{}, "", ErrInvalidCredentials
		}
		return TokenPair{}, "", err
	}
	if ok, _ := s.ValidateSession(ctx, u.ID, claims.SessionID); !ok {
		return TokenPair{}, "", ErrInvalidCredentials
	}

	sid := uuid.NewString()
	pair, err := s.signPair(&u, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"role":       string(u.Role),
			"updated_at": helpers.NowRFC3339(time.Now()),
		})
		pipe.Expire(ctx, key, s.JWT.RefreshTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return pair, u.ID, nil
}

// ValidateSession reports whether sid is the user's current session. Without
// Redis every signed token is accepted.
func (s *UserService) ValidateSession(ctx context.Context, userID, sid string) (bool, error) {
	if s.Redis == nil {
		return true, nil
	}
	cur, err := s.Redis.HGet(ctx, SessionKey(userID), "sid").Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cur == sid, nil
}

func (s *UserService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, SessionKey(userID))
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (entity.PublicUser, error) {
	u, err := s.find(ctx, userID)
	if err != nil {
		return entity.PublicUser{}, err
	}
	return u.Public(), nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]entity.PublicUser, error) {
	users, err := s.Repo.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *UserService) UpdateUser(ctx context.Context, userID string, in UpdateUserInput) (entity.PublicUser, error) {
	if in.Role != "" && !in.Role.Valid() {
		return entity.PublicUser{}, ErrInvalidRole
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Repo.All(ctx)
	if err != nil {
		return entity.PublicUser{}, fmt.Errorf("update user: %w", err)
	}
	i := indexOfUser(users, userID)
	if i < 0 {
		return entity.PublicUser{}, ErrUserNotFound
	}
	if in.Email != "" {
		email := entity.NormalizeEmail(in.Email)
		if indexOfEmail(users, email, userID) >= 0 {
			return entity.PublicUser{}, ErrEmailTaken
		}
		users[i].Email = email
	}
	if in.Name != "" {
		users[i].Name = strings.TrimSpace(in.Name)
	}
	if in.Role != "" {
		users[i].Role = in.Role
	}
	if in.Password != "" {
		users[i].PasswordHash = helpers.SHA256Hex(in.Password)
	}
	if err := s.Repo.SaveAll(ctx, users); err != nil {
		return entity.PublicUser{}, fmt.Errorf("update user: %w", err)
	}
	return users[i].Public(), nil
}

// DeleteUser removes the account and its session. Loans that reference the
// user are left in place.
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.Repo.All(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	i := indexOfUser(users, userID)
	if i < 0 {
		return ErrUserNotFound
	}
	users = append(users[:i], users[i+1:]...)
	if err := s.Repo.SaveAll(ctx, users); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.Logout(ctx, userID); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("drop session failed")
	}
	return nil
}

func (s *UserService) find(ctx context.Context, userID string) (entity.User, error) {
	users, err := s.Repo.All(ctx)
	if err != nil {
		return entity.User{}, err
	}
	i := indexOfUser(users, userID)
	if i < 0 {
		return entity.User{}, ErrUserNotFound
	}
	return users[i], nil
}

func (s *UserService) signPair(u *entity.User, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, string(u.Role), sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, string(u.Role), sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func indexOfUser(users []entity.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

// indexOfEmail finds email among users other than exceptID.
func indexOfEmail(users []entity.User, email, exceptID string) int {
	for i := range users {
		if users[i].ID != exceptID && strings.EqualFold(users[i].Email, email) {
			return i
		}
	}
	return -1
}
