package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"eventlens-client/pkg/models"
)

// Service owns the single active session. It is created once at startup and
// handed to the backend client as its credential source, so every
// authenticated request sees the same session.
type Service struct {
	store    *Store
	profiles ProfileFetcher
	logger   *zap.Logger

	mutex   sync.RWMutex
	current *models.Session
	loaded  bool
}

func NewService(store *Store, profiles ProfileFetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		profiles: profiles,
		logger:   logger,
	}
}

// Login validates token against the backend and persists the resulting session
func (s *Service) Login(ctx context.Context, token string) (*models.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	profile, err := s.profiles.GetProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Token:     token,
		Profile:   *profile,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(session); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	s.current = session
	s.loaded = true
	s.mutex.Unlock()

	s.logger.Info("signed in",
		zap.String("user_id", profile.UserID),
		zap.String("role", profile.Role))
	return session, nil
}

// Logout destroys the session locally. It is idempotent.
func (s *Service) Logout() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.store.Delete(); err != nil {
		return err
	}
	s.current = nil
	s.loaded = true
	return nil
}

// Current returns the active session, reading it from disk on first use
func (s *Service) Current() (*models.Session, error) {
	s.mutex.RLock()
	if s.loaded {
		current := s.current
		s.mutex.RUnlock()
		if current == nil {
			return nil, ErrNoSession
		}
		return current, nil
	}
	s.mutex.RUnlock()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.loaded {
		session, err := s.store.Load()
		if err != nil && !errors.Is(err, ErrNoSession) {
			return nil, err
		}
		s.current = session
		s.loaded = true
	}
	if s.current == nil {
		return nil, ErrNoSession
	}
	return s.current, nil
}

// BearerToken implements models.CredentialSource
func (s *Service) BearerToken() (string, error) {
	session, err := s.Current()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return "", models.ErrNoCredential
		}
		return "", err
	}
	return session.BearerToken()
}
