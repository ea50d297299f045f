package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/pkg/apperror"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
)

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, hogwartsID, password string) (*User, error)
	Login(ctx context.Context, hogwartsID, password string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByHogwartsID(ctx context.Context, hogwartsID string) (*User, error)
	// EnsureAdmin creates an admin account if hogwartsID is not registered yet.
	EnsureAdmin(ctx context.Context, hogwartsID, password string) (created bool, err error)
	// UpgradeLegacyCredentials hashes every pending plaintext credential.
	UpgradeLegacyCredentials(ctx context.Context) (int, error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher
	log    *logger.Logger

	minPasswordLength int
}

func NewService(repo Repository, hasher auth.PasswordHasher, log *logger.Logger) Service {
	return &service{
		repo:              repo,
		hasher:            hasher,
		log:               log,
		minPasswordLength: 6,
	}
}

func (s *service) Register(ctx context.Context, hogwartsID, password string) (*User, error) {
	id := normalizeHogwartsID(hogwartsID)
	if id == "" {
		return nil, ErrHogwartsIDRequired
	}
	if len(password) < s.minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if len(password) > auth.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	// self-registration never grants a privileged role
	u := &User{
		HogwartsID:      id,
		PasswordHash:    hash,
		CredentialState: CredentialHashed,
		Role:            RoleUser,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrHogwartsIDTaken) {
			return nil, ErrHogwartsIDTaken
		}
		return nil, apperror.StoreFailure(err)
	}

	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

func (s *service) Login(ctx context.Context, hogwartsID, password string) (*User, error) {
	id := normalizeHogwartsID(hogwartsID)
	if id == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByHogwartsID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperror.StoreFailure(err)
	}

	switch u.CredentialState {
	case CredentialPendingUpgrade:
		if u.LegacyPassword == nil ||
			subtle.ConstantTimeCompare([]byte(*u.LegacyPassword), []byte(password)) != 1 {
			return nil, ErrInvalidCredentials
		}
		if err := s.upgrade(ctx, u, password); err != nil {
			// the secret matched; a failed upgrade is retried on the next login
			s.log.Warn("credential upgrade failed", "user_id", u.ID, "error", err)
		}
	default:
		if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
			return nil, ErrInvalidCredentials
		}
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("update last login failed", "user_id", u.ID, "error", err)
	} else {
		u.LastLoginAt = &now
	}

	return u, nil
}

// hash maps the hasher's length limit onto a client error.
func (s *service) hash(plain string) (string, error) {
	h, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return h, nil
}

func (s *service) upgrade(ctx context.Context, u *User, plain string) error {
	hash, err := s.hash(plain)
	if err != nil {
		return fmt.Errorf("hash legacy password: %w", err)
	}
	if _, err := s.repo.CompleteUpgrade(ctx, u.ID, hash); err != nil {
		return err
	}
	u.PasswordHash = hash
	u.LegacyPassword = nil
	u.CredentialState = CredentialHashed
	return nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperror.StoreFailure(err)
	}
	return u, nil
}

func (s *service) GetByHogwartsID(ctx context.Context, hogwartsID string) (*User, error) {
	id := normalizeHogwartsID(hogwartsID)
	if id == "" {
		return nil, ErrHogwartsIDRequired
	}
	u, err := s.repo.GetByHogwartsID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperror.StoreFailure(err)
	}
	return u, nil
}

func (s *service) EnsureAdmin(ctx context.Context, hogwartsID, password string) (bool, error) {
	id := normalizeHogwartsID(hogwartsID)
	if id == "" {
		return false, ErrHogwartsIDRequired
	}
	if password == "" {
		return false, ErrPasswordTooShort
	}
	if len(password) > auth.MaxPasswordBytes {
		return false, ErrPasswordTooLong
	}

	_, err := s.repo.GetByHogwartsID(ctx, id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, apperror.StoreFailure(err)
	}

	hash, err := s.hash(password)
	if err != nil {
		return false, err
	}

	u := &User{HogwartsID: id, PasswordHash: hash, CredentialState: CredentialHashed, Role: RoleAdmin}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrHogwartsIDTaken) {
			// created concurrently by another instance
			return false, nil
		}
		return false, apperror.StoreFailure(err)
	}

	s.log.Info("admin account created", "user_id", u.ID, "hogwarts_id", id)
	return true, nil
}

func (s *service) UpgradeLegacyCredentials(ctx context.Context) (int, error) {
	pending, err := s.repo.ListPendingUpgrade(ctx)
	if err != nil {
		return 0, apperror.StoreFailure(err)
	}

	upgraded := 0
	for _, u := range pending {
		if u.LegacyPassword == nil {
			continue
		}
		hash, err := s.hash(*u.LegacyPassword)
		if errors.Is(err, ErrPasswordTooLong) {
			s.log.Warn("legacy password too long to hash", "user_id", u.ID)
			continue
		}
		if err != nil {
			return upgraded, fmt.Errorf("hash legacy password for user %d: %w", u.ID, err)
		}
		ok, err := s.repo.CompleteUpgrade(ctx, u.ID, hash)
		if err != nil {
			return upgraded, apperror.StoreFailure(err)
		}
		if ok {
			upgraded++
		}
	}

	s.log.Info("legacy credentials upgraded", "pending", len(pending), "upgraded", upgraded)
	return upgraded, nil
}

func normalizeHogwartsID(id string) string {
	return strings.TrimSpace(id)
}
