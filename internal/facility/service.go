package facility

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hogwarts/facility-booking/internal/pkg/apperror"
	"github.com/hogwarts/facility-booking/internal/pkg/logger"
)

type Service interface {
	List(ctx context.Context) ([]*Facility, error)
	GetByID(ctx context.Context, id int64) (*Facility, error)
	// Resolve accepts a numeric id or any alias of a facility.
	Resolve(ctx context.Context, ref string) (*Facility, error)
	AliasesFor(id int64) []string
	Create(ctx context.Context, name string) (*Facility, error)
	EnsureDefaults(ctx context.Context) error
	// Reload rebuilds the alias table from the stored facility set.
	Reload(ctx context.Context) error
}

type service struct {
	repo    Repository
	aliases map[string]string
	log     *logger.Logger

	table atomic.Pointer[AliasTable]
}

// NewService builds the catalog. extraAliases are merged over DefaultAliases.
// Call Reload before serving so the alias table reflects the database.
func NewService(repo Repository, extraAliases map[string]string, log *logger.Logger) Service {
	merged := make(map[string]string, len(DefaultAliases)+len(extraAliases))
	for k, v := range DefaultAliases {
		merged[k] = v
	}
	for k, v := range extraAliases {
		merged[k] = v
	}

	s := &service{repo: repo, aliases: merged, log: log}
	s.table.Store(&AliasTable{
		byKey:      map[string]int64{},
		byID:       map[int64][]string{},
		facilities: map[int64]*Facility{},
	})
	return s
}

func (s *service) Reload(ctx context.Context) error {
	facilities, err := s.repo.List(ctx)
	if err != nil {
		return apperror.StoreFailure(err)
	}

	table, dropped := BuildAliasTable(facilities, s.aliases)
	for _, d := range dropped {
		s.log.Warn("facility alias dropped", "alias", d.Alias, "target", d.Target, "reason", d.Reason)
	}
	s.table.Store(table)
	s.log.Info("facility aliases loaded", "facilities", len(facilities), "dropped", len(dropped))
	return nil
}

func (s *service) List(ctx context.Context) ([]*Facility, error) {
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.StoreFailure(err)
	}
	return out, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Facility, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperror.StoreFailure(err)
	}
	return f, nil
}

func (s *service) Resolve(ctx context.Context, ref string) (*Facility, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrEmptyRef
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetByID(ctx, id)
	}

	if f, ok := s.table.Load().Lookup(ref); ok {
		return f, nil
	}

	// facilities created after the last Reload are still reachable by name
	f, err := s.repo.GetByName(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, apperror.StoreFailure(err)
	}
	return f, nil
}

func (s *service) AliasesFor(id int64) []string {
	return s.table.Load().AliasesFor(id)
}

func (s *service) Create(ctx context.Context, name string) (*Facility, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	f := &Facility{Name: name}
	if err := s.repo.Create(ctx, f); err != nil {
		if errors.Is(err, ErrNameTaken) {
			return nil, ErrNameTaken
		}
		return nil, apperror.StoreFailure(err)
	}

	if err := s.Reload(ctx); err != nil {
		s.log.Warn("alias reload after create failed", "facility_id", f.ID, "error", err)
	}
	return f, nil
}

func (s *service) EnsureDefaults(ctx context.Context) error {
	for _, name := range DefaultNames {
		if _, err := s.repo.Ensure(ctx, name); err != nil {
			return apperror.StoreFailure(err)
		}
	}
	return s.Reload(ctx)
}
