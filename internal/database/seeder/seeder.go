package seeder

import (
	"context"

	"skill-radar/internal/domain/subject"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, subjects subject.Repository) (int, error)
}
