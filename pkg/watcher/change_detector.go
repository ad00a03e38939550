package watcher

// ChangePlan describes what a batch of changes requires
type ChangePlan struct {
	ReloadConfig bool     // Configuration must be read again before regenerating
	Regenerate   bool     // Diagrams must be run through the pipeline again
	ChangedFiles []string // Paths that triggered the plan
}

// PlanChanges decides what needs to happen for a debounced event. A config
// change implies regeneration, since language or output may have changed.
func PlanChanges(event ChangeEvent) *ChangePlan {
	plan := &ChangePlan{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeConfig:
		plan.ReloadConfig = true
		plan.Regenerate = true
	case ChangeTypeDiagram:
		plan.Regenerate = true
	}

	return plan
}

// Reason is a short description for logs and status events
func (p *ChangePlan) Reason() string {
	if p.ReloadConfig {
		return "configuration changed"
	}
	return "diagram changed"
}
