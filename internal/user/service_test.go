package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hogwarts/facility-booking/internal/auth"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
)

type memRepo struct {
	mu     sync.Mutex
	users  map[int64]*User
	nextID int64

	upgradeErr error
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int64]*User{}}
}

func (r *memRepo) GetByHogwartsID(_ context.Context, hogwartsID string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.HogwartsID == hogwartsID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.HogwartsID == u.HogwartsID {
			return ErrHogwartsIDTaken
		}
	}
	if u.CredentialState == "" {
		u.CredentialState = CredentialHashed
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) UpdateLastLogin(_ context.Context, id int64, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLoginAt = &t
	return nil
}

func (r *memRepo) CompleteUpgrade(_ context.Context, id int64, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upgradeErr != nil {
		return false, r.upgradeErr
	}
	u, ok := r.users[id]
	if !ok || u.CredentialState != CredentialPendingUpgrade {
		return false, nil
	}
	u.PasswordHash = hash
	u.LegacyPassword = nil
	u.CredentialState = CredentialHashed
	return true, nil
}

func (r *memRepo) ListPendingUpgrade(context.Context) ([]*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*User
	for _, u := range r.users {
		if u.CredentialState == CredentialPendingUpgrade {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestService() (Service, *memRepo) {
	repo := newMemRepo()
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(4), logger.Nop()), repo
}

func legacyUser(t *testing.T, repo *memRepo, hogwartsID, plain string) *User {
	t.Helper()
	u := &User{HogwartsID: hogwartsID, LegacyPassword: &plain, CredentialState: CredentialPendingUpgrade}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "  harry ", "expelliarmus")
	require.NoError(t, err)
	assert.Equal(t, "harry", u.HogwartsID)
	assert.Equal(t, RoleUser, u.Role)
	assert.NotEqual(t, "expelliarmus", u.PasswordHash)

	_, err = svc.Register(ctx, "harry", "expelliarmus")
	assert.ErrorIs(t, err, ErrHogwartsIDTaken)

	_, err = svc.Register(ctx, " ", "expelliarmus")
	assert.ErrorIs(t, err, ErrHogwartsIDRequired)

	_, err = svc.Register(ctx, "ron", "123")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	// 40 runes but 80 bytes
	_, err = svc.Register(ctx, "fleur", strings.Repeat("é", 40))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = svc.Register(ctx, "fleur", strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestPasswordTooLongFromHasher(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, tooLongHasher{}, logger.Nop())
	ctx := context.Background()

	_, err := svc.Register(ctx, "viktor", "durmstrang")
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = svc.EnsureAdmin(ctx, "karkaroff", "durmstrang")
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	legacyUser(t, repo, "krum", "seeker")
	n, err := svc.UpgradeLegacyCredentials(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type tooLongHasher struct{}

func (tooLongHasher) Hash(string) (string, error) { return "", auth.ErrPasswordTooLong }

func (tooLongHasher) Compare(string, string) error { return errors.New("mismatch") }

func TestLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "hermione", "wingardium")
	require.NoError(t, err)

	u, err := svc.Login(ctx, "hermione", "wingardium")
	require.NoError(t, err)
	assert.NotNil(t, u.LastLoginAt)

	_, err = svc.Login(ctx, "hermione", "leviosa")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "wingardium")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "hermione", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUpgradesLegacyCredential(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	created := legacyUser(t, repo, "neville", "trevor")

	_, err := svc.Login(ctx, "neville", "toad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u, err := svc.Login(ctx, "neville", "trevor")
	require.NoError(t, err)
	assert.Equal(t, CredentialHashed, u.CredentialState)

	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, CredentialHashed, stored.CredentialState)
	assert.Nil(t, stored.LegacyPassword)
	assert.NotEqual(t, "trevor", stored.PasswordHash)

	// the plaintext path is gone; the hash now verifies
	_, err = svc.Login(ctx, "neville", "trevor")
	assert.NoError(t, err)
}

func TestLoginSucceedsWhenUpgradeFails(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	legacyUser(t, repo, "luna", "nargles")
	repo.upgradeErr = errors.New("connection reset")

	_, err := svc.Login(ctx, "luna", "nargles")
	require.NoError(t, err)

	stored, err := repo.GetByHogwartsID(ctx, "luna")
	require.NoError(t, err)
	assert.Equal(t, CredentialPendingUpgrade, stored.CredentialState)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	_, err = svc.EnsureAdmin(ctx, "root", strings.Repeat("ü", 37))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	created, err = svc.EnsureAdmin(ctx, "admin", "different")
	require.NoError(t, err)
	assert.False(t, created)

	u, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, u.Role)
	assert.True(t, u.Role.IsPrivileged())
}

func TestUpgradeLegacyCredentials(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	legacyUser(t, repo, "fred", "mischief")
	legacyUser(t, repo, "george", "managed")
	_, err := svc.Register(ctx, "percy", "prefect1")
	require.NoError(t, err)

	n, err := svc.UpgradeLegacyCredentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := repo.ListPendingUpgrade(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.Login(ctx, "george", "managed")
	assert.NoError(t, err)
}

func TestRolePrivileges(t *testing.T) {
	assert.False(t, RoleUser.IsPrivileged())
	assert.True(t, RoleStaff.IsPrivileged())
	assert.True(t, RoleAdmin.IsPrivileged())
}
