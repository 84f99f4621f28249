package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"skill-radar/internal/domain/subject"

	"github.com/google/uuid"
)

// SubjectRepository keeps subjects in process memory. It backs local runs without
// Postgres and the pipeline tests.
type SubjectRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]subject.Subject
	now   func() time.Time
}

func NewSubjectRepository() *SubjectRepository {
	return &SubjectRepository{items: map[uuid.UUID]subject.Subject{}, now: time.Now}
}

func (r *SubjectRepository) Get(ctx context.Context, id uuid.UUID) (subject.Subject, error) {
	if err := ctx.Err(); err != nil {
		return subject.Subject{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[id]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	return clone(s), nil
}

func (r *SubjectRepository) Upsert(ctx context.Context, s subject.Subject) (subject.Subject, error) {
	if err := ctx.Err(); err != nil {
		return subject.Subject{}, err
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if s.CodeHost != nil {
		for id, other := range r.items {
			if id != s.ID && other.CodeHost != nil && other.CodeHost.ID == s.CodeHost.ID {
				return subject.Subject{}, subject.ErrCodeHostTaken
			}
		}
	}

	now := r.now().UTC()
	if prev, ok := r.items[s.ID]; ok {
		s.CreatedAt = prev.CreatedAt
	} else if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	r.items[s.ID] = clone(s)
	return clone(s), nil
}

func (r *SubjectRepository) FindEligible(ctx context.Context) ([]subject.Subject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]subject.Subject, 0, len(r.items))
	for _, s := range r.items {
		if s.Eligible() {
			out = append(out, clone(s))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *SubjectRepository) FindByCodeHostID(ctx context.Context, codeHostID int64) (subject.Subject, error) {
	if err := ctx.Err(); err != nil {
		return subject.Subject{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.items {
		if s.CodeHost != nil && s.CodeHost.ID == codeHostID {
			return clone(s), nil
		}
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (r *SubjectRepository) Counts(ctx context.Context) (subject.Counts, error) {
	if err := ctx.Err(); err != nil {
		return subject.Counts{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out subject.Counts
	for _, s := range r.items {
		out.Total++
		if s.Eligible() {
			out.Eligible++
		}
		if s.AnalysisSyncedAt != nil {
			out.Analyzed++
		}
		if s.InsightsSyncedAt != nil {
			out.WithInsights++
		}
		if s.MatchesSyncedAt != nil {
			out.MatchesSynced++
		}
	}
	return out, nil
}

// clone detaches the top-level pointers so callers cannot mutate stored records.
func clone(s subject.Subject) subject.Subject {
	out := s
	if s.CodeHost != nil {
		v := *s.CodeHost
		out.CodeHost = &v
	}
	if s.SelfReportPayload != nil {
		out.SelfReportPayload = append([]byte(nil), s.SelfReportPayload...)
	}
	if s.CodeHostRaw != nil {
		v := *s.CodeHostRaw
		out.CodeHostRaw = &v
	}
	if s.JudgeRaw != nil {
		v := *s.JudgeRaw
		out.JudgeRaw = &v
	}
	if s.SelfReportRaw != nil {
		v := *s.SelfReportRaw
		out.SelfReportRaw = &v
	}
	if s.Analysis != nil {
		v := *s.Analysis
		out.Analysis = &v
	}
	if s.Insights != nil {
		v := *s.Insights
		out.Insights = &v
	}
	out.AnalysisSyncedAt = cloneTime(s.AnalysisSyncedAt)
	out.InsightsSyncedAt = cloneTime(s.InsightsSyncedAt)
	out.MatchesSyncedAt = cloneTime(s.MatchesSyncedAt)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var (
	_ subject.Repository = (*SubjectRepository)(nil)
	_ subject.Counter    = (*SubjectRepository)(nil)
)
