package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	Role = "admin"
	ID   = "admin"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type TokenIssuer interface {
	Issue(id, role string) (string, error)
}

type Session struct {
	Email string
	Token string
}

// Service authenticates the single configured administrator.
// The plain password is hashed at construction and not retained.
type Service struct {
	email  string
	hash   []byte
	tokens TokenIssuer
}

func NewService(email, password string, tokens TokenIssuer) (*Service, error) {
	s := &Service{email: strings.ToLower(strings.TrimSpace(email)), tokens: tokens}
	if s.email == "" || password == "" {
		return s, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	s.hash = hash
	return s, nil
}

func (s *Service) Enabled() bool {
	return len(s.hash) > 0
}

func (s *Service) Login(_ context.Context, email, password string) (*Session, error) {
	if !s.Enabled() {
		return nil, ErrInvalidCredentials
	}
	if strings.ToLower(strings.TrimSpace(email)) != s.email {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ID, Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Email: s.email, Token: token}, nil
}
