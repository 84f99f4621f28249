package seeder

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"skill-radar/internal/domain/subject"

	"github.com/google/uuid"
)

// DemoSubjectsSeeder inserts a few subjects that sync without code-host credentials.
// Existing ids are left untouched.
type DemoSubjectsSeeder struct{}

func (DemoSubjectsSeeder) Name() string { return "demo_subjects" }

type demoSubject struct {
	ID          string
	Email       string
	JudgeHandle string
	Skills      []any
}

var demoSubjects = []demoSubject{
	{
		ID:          "5b1f3c2e-8d4a-4f6b-9c1e-2a7d8e9f0a11",
		Email:       "ana.backend@example.com",
		JudgeHandle: "ana_backend",
		Skills:      []any{"Go", "PostgreSQL", "Docker", map[string]string{"name": "Redis"}},
	},
	{
		ID:     "7c2e4d3f-9e5b-4a7c-8d2f-3b8e9fa01b22",
		Email:  "budi.frontend@example.com",
		Skills: []any{"TypeScript", "React", "Next.js", "Tailwind"},
	},
	{
		ID:          "9d3f5e4a-af6c-4b8d-9e3a-4c9fa0b12c33",
		Email:       "citra.algo@example.com",
		JudgeHandle: "citra_algo",
	},
}

func (DemoSubjectsSeeder) Run(ctx context.Context, subjects subject.Repository) (int, error) {
	inserted := 0
	for _, d := range demoSubjects {
		id, err := uuid.Parse(d.ID)
		if err != nil {
			return inserted, err
		}

		_, err = subjects.Get(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, subject.ErrNotFound) {
			return inserted, err
		}

		now := time.Now().UTC()
		s := subject.Subject{
			ID:          id,
			Email:       d.Email,
			JudgeHandle: d.JudgeHandle,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if len(d.Skills) > 0 {
			payload, err := json.Marshal(map[string]any{"skills": d.Skills})
			if err != nil {
				return inserted, err
			}
			s.SelfReportPayload = payload
		}

		if _, err := subjects.Upsert(ctx, s); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
