// Package selfreport reads the skill list a subject uploaded about themselves.
package selfreport

import (
	"context"
	"encoding/json"
	"time"

	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"
)

// Adapter has no remote side; the payload was stored on the subject at upload time.
type Adapter struct {
	now func() time.Time
}

func New() *Adapter {
	return &Adapter{now: time.Now}
}

func (a *Adapter) Kind() source.Kind {
	return source.KindSelfReport
}

func (a *Adapter) Fetch(ctx context.Context, s subject.Subject) (*source.SelfReportRaw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.HasSelfReport() {
		return nil, source.ErrNotConfigured
	}
	return &source.SelfReportRaw{
		Skills:   Extract(s.SelfReportPayload),
		SyncedAt: a.now().UTC(),
	}, nil
}

// Extract returns the names listed under "skills". Entries may be strings or objects
// with a string "name"; anything else is dropped. A payload without a skills list yields
// an empty, non-nil slice.
func Extract(payload json.RawMessage) []string {
	var doc struct {
		Skills []json.RawMessage `json:"skills"`
	}
	out := []string{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return out
	}

	for _, entry := range doc.Skills {
		var name string
		if json.Unmarshal(entry, &name) == nil {
			if name != "" {
				out = append(out, name)
			}
			continue
		}
		var obj struct {
			Name *string `json:"name"`
		}
		if json.Unmarshal(entry, &obj) == nil && obj.Name != nil && *obj.Name != "" {
			out = append(out, *obj.Name)
		}
	}
	return out
}
