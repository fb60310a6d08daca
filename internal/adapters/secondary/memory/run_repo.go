package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"migration-portal-service/internal/core/domain"
	"migration-portal-service/internal/core/ports/output"
)

// runRepo is the default RunRepository. Runs live for the lifetime of the
// process; all access is mutex-guarded and callers get deep copies, so a run
// mutated by one request never leaks into another.
type runRepo struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]*domain.Run
}

func NewRunRepository() ports.RunRepository {
	return &runRepo{runs: make(map[uuid.UUID]*domain.Run)}
}

func (r *runRepo) Create(ctx context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run.Clone()
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run.Clone(), nil
}

func (r *runRepo) Update(ctx context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[run.ID]; !ok {
		return domain.ErrRunNotFound
	}
	r.runs[run.ID] = run.Clone()
	return nil
}

func (r *runRepo) List(ctx context.Context, filter ports.RunListFilter) ([]*domain.Run, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Run, 0, len(r.runs))
	for _, run := range r.runs {
		if filter.State != "" && string(run.State) != filter.State {
			continue
		}
		if filter.SourceTech != "" && run.SourceTech != filter.SourceTech {
			continue
		}
		matched = append(matched, run)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*domain.Run{}, total, nil
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}

	out := make([]*domain.Run, 0, end-offset)
	for _, run := range matched[offset:end] {
		out = append(out, run.Clone())
	}
	return out, total, nil
}

func (r *runRepo) Ping(ctx context.Context) error {
	return nil
}
