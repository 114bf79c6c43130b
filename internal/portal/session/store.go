package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/AnshRaj112/ridit-backend/internal/models"
)

// ErrNotAuthenticated is returned by operations that need a session.
var ErrNotAuthenticated = errors.New("not logged in")

// Authenticator is the part of the API client the store needs.
type Authenticator interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	AdminLogin(ctx context.Context, req models.AdminLoginRequest) (*models.AuthResponse, error)
	Logout(ctx context.Context, role models.Role) error
}

// Store owns the current session. Every change is written to its Storage
// before observers run.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	authn   Authenticator
	current *Session

	onLogin  []func(Session)
	onLogout []func()
}

// Init creates a store and resumes any session persisted in storage.
func Init(storage Storage, authn Authenticator) (*Store, error) {
	s := &Store{storage: storage, authn: authn}
	persisted, err := storage.Load()
	if err != nil {
		return s, err
	}
	s.current = persisted
	return s, nil
}

// OnLogin registers fn to run after each successful login.
func (s *Store) OnLogin(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogin = append(s.onLogin, fn)
}

// OnLogout registers fn to run whenever the session is dropped.
func (s *Store) OnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Login authenticates a seller or collector by phone or email.
func (s *Store) Login(ctx context.Context, req models.LoginRequest) (Session, error) {
	resp, err := s.authn.Login(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.Adopt(resp)
}

// LoginAdmin authenticates the operator account.
func (s *Store) LoginAdmin(ctx context.Context, email, password string) (Session, error) {
	resp, err := s.authn.AdminLogin(ctx, models.AdminLoginRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, err
	}
	return s.Adopt(resp)
}

// Adopt installs the session carried by an auth response, e.g. after
// registration or federated login.
func (s *Store) Adopt(resp *models.AuthResponse) (Session, error) {
	sess := Session{UserID: resp.ID, Role: resp.Role, Token: resp.Token, Name: resp.Name}
	if err := s.storage.Save(sess); err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	s.current = &sess
	hooks := append([]func(Session){}, s.onLogin...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(sess)
	}
	return sess, nil
}

// Logout revokes the token server-side (best effort) and clears local
// state. Calling it without a session is a no-op apart from the cleanup.
func (s *Store) Logout(ctx context.Context) error {
	if cur, ok := s.Current(); ok && s.authn != nil {
		if err := s.authn.Logout(ctx, cur.Role); err != nil {
			log.Printf("logout: server revoke failed: %v", err)
		}
	}
	return s.drop()
}

// HandleUnauthorized drops the session after the server rejected its token.
func (s *Store) HandleUnauthorized() {
	if err := s.drop(); err != nil {
		log.Printf("session: clear after 401 failed: %v", err)
	}
}

func (s *Store) drop() error {
	s.mu.Lock()
	s.current = nil
	hooks := append([]func(){}, s.onLogout...)
	s.mu.Unlock()

	err := s.storage.Clear()
	for _, fn := range hooks {
		fn()
	}
	return err
}

// IsAuthenticated reports whether a token is present. Expiry is not
// checked; a 401 from the server ends the session instead.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil && s.current.Token != ""
}

// Current returns the session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Require returns the session or ErrNotAuthenticated.
func (s *Store) Require() (Session, error) {
	cur, ok := s.Current()
	if !ok {
		return Session{}, ErrNotAuthenticated
	}
	return cur, nil
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}
