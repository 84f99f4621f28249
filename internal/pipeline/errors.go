package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrPrerequisiteMissing means insights or matches were requested with no analysis and
	// the self-heal analysis failed too.
	ErrPrerequisiteMissing = errors.New("analysis prerequisite missing")
	ErrSyncInProgress      = errors.New("sync already in progress for subject")
)

// StageError reports which step of a subject's run failed.
type StageError struct {
	SubjectID uuid.UUID
	Step      string
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("subject %s: step %s: %v", e.SubjectID, e.Step, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(id uuid.UUID, step string, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) && se.SubjectID == id {
		return err
	}
	return &StageError{SubjectID: id, Step: step, Err: err}
}
