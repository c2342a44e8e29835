package collections

import "fmt"

// Step is a state of the create flow.
type Step int

const (
	StepSearchExists Step = iota
	StepEnsureBrand
	StepEnsureSeason
	StepCreateEpisode
	StepAttachMetadata
	StepPersist
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepSearchExists:
		return "search_exists"
	case StepEnsureBrand:
		return "ensure_brand"
	case StepEnsureSeason:
		return "ensure_season"
	case StepCreateEpisode:
		return "create_episode"
	case StepAttachMetadata:
		return "attach_metadata"
	case StepPersist:
		return "persist"
	case StepDone:
		return "done"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// StepError records the create step that failed. Collections created by
// earlier steps are left in place for a retry to find.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return e.Step.String() + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}
