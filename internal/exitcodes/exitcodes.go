package exitcodes

// Exit codes for the rmfast CLI
// These codes form the operational contract with scripts and CI pipelines
const (
	Success         = 0 // All targets deleted
	InvalidUsage    = 2 // Bad flags, missing roots, or invalid config file
	SafetyViolation = 3 // Safety validator blocked a target, nothing was deleted
	PartialFailure  = 4 // Run completed but some entries could not be deleted
)
