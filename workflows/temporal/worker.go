package temporal

import (
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

// Register adds the login workflow and its activities to r.
func Register(r worker.Registry, acts *Activities) {
	r.RegisterWorkflow(ExternalUserLoggedInWorkflow)
	r.RegisterActivity(acts)
}

// NewWorker creates a worker polling the configured task queue. Activities
// without a Source use the configured role source.
func NewWorker(c client.Client, cfg Config, acts *Activities) worker.Worker {
	if acts.Source == "" {
		acts.Source = cfg.GetRoleSource()
	}
	w := worker.New(c, cfg.GetTaskQueue(), worker.Options{})
	Register(w, acts)
	return w
}
