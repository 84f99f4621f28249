package seeder

import (
	"context"
	"fmt"

	"skill-radar/internal/domain/subject"
)

type Runner struct {
	Seeders []Seeder
}

// Run applies every seeder in order and returns how many records were inserted.
func (r Runner) Run(ctx context.Context, subjects subject.Repository) (int, error) {
	if subjects == nil {
		return 0, fmt.Errorf("nil subject repository")
	}
	total := 0
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		n, err := s.Run(ctx, subjects)
		if err != nil {
			return total, fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		total += n
	}
	return total, nil
}
