package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/shrimpsizemoose/semla/internal/grader"
	"github.com/shrimpsizemoose/semla/internal/models"
	"github.com/shrimpsizemoose/semla/internal/problems"
	"github.com/shrimpsizemoose/semla/internal/store"
)

var (
	// ErrInvalidCandidate marks a malformed score candidate, rejected
	// before any storage interaction.
	ErrInvalidCandidate = errors.New("invalid score candidate")

	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidCredentials is deliberately uniform: unknown username
	// and wrong password look the same to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	Config  *Config
	Store   store.SubmissionStore
	Auth    *Auth
	Grader  grader.Grader
	Catalog *problems.Catalog
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return &Service{
		Config:  config,
		Store:   store,
		Auth:    auth,
		Grader:  grader.NewHTTPGrader(config.Grader.URL, time.Duration(config.Grader.TimeoutSeconds)*time.Second),
		Catalog: problems.NewCatalog(config.Problems.Dir),
	}, nil
}

// SubmitScore applies a graded candidate to the store. Returns true when
// the candidate became the new best for its (user, problem) pair, false
// when the stored record already beats it. Rejection is a normal outcome,
// not an error.
func (s *Service) SubmitScore(candidate *models.Submission) (bool, error) {
	if err := candidate.Validate(); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidCandidate, err)
	}

	return s.Store.UpsertScoreIfBetter(candidate)
}

func (s *Service) GetLeaderboard() ([]models.LeaderboardEntry, error) {
	return s.Store.FetchLeaderboard()
}

func (s *Service) Signup(username, email, password string) (*models.User, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidUser)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().Unix(),
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUser, err)
	}

	if err := s.Store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and, when auth is enabled, hands back the
// user's session token.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.Store.GetUserByUsername(username)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), truncateForBcrypt(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Auth.IssueToken(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return user, token, nil
}

func (s *Service) ValidateAuthAndUser(r *http.Request, username string) error {
	if !s.Config.Server.EnableAuth {
		return nil
	}

	authHeader := r.Header.Get(s.Auth.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return fmt.Errorf("Invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	return s.Auth.ValidateToken(r.Context(), username, token)
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}

// truncateForBcrypt cuts the password at bcrypt's 72-byte limit, backing
// off to a rune boundary
func truncateForBcrypt(password string) []byte {
	b := []byte(password)
	if len(b) <= 72 {
		return b
	}
	b = b[:72]
	for len(b) > 0 && !utf8.Valid(b) {
		b = b[:len(b)-1]
	}
	return b
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncateForBcrypt(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
