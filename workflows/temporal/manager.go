package temporal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-auth-workflows/workflows"
	goerrors "github.com/goliatone/go-errors"
	"go.temporal.io/sdk/client"
)

// SignalStarter is the part of client.Client used by Manager.
type SignalStarter interface {
	SignalWithStartWorkflow(ctx context.Context, workflowID string, signalName string, signalArg interface{},
		options client.StartWorkflowOptions, workflow interface{}, workflowArgs ...interface{}) (client.WorkflowRun, error)
}

// Route binds a workflow event to the workflow that handles it.
type Route struct {
	Workflow any
	Signal   string
}

// Manager triggers workflow events as Temporal signals. Each correlation id
// maps to one workflow id, so events for the same user are handled in order
// by a single execution.
type Manager struct {
	starter SignalStarter
	cfg     Config
	logger  auth.Logger

	mu     sync.RWMutex
	routes map[string]Route
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger.
func WithManagerLogger(logger auth.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRoute routes event to workflow.
func WithRoute(event string, route Route) ManagerOption {
	return func(m *Manager) {
		m.routes[event] = route
	}
}

// NewManager creates a Manager. The login event is routed to
// ExternalUserLoggedInWorkflow unless overridden with WithRoute.
func NewManager(starter SignalStarter, cfg Config, opts ...ManagerOption) *Manager {
	m := &Manager{
		starter: starter,
		cfg:     cfg,
		logger:  auth.DefaultLogger("TEMPORAL"),
		routes: map[string]Route{
			workflows.ExternalUserLoggedInEvent: {
				Workflow: ExternalUserLoggedInWorkflow,
				Signal:   LoginSignalName,
			},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

var _ workflows.Manager = (*Manager)(nil)

// Route registers or replaces the route for event.
func (m *Manager) Route(event string, route Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[event] = route
}

// TriggerEvent signals the workflow routed to name, starting it when it is
// not running.
func (m *Manager) TriggerEvent(ctx context.Context, name string, input any, correlationID string) error {
	if strings.TrimSpace(name) == "" {
		return workflows.ErrInvalidEvent
	}
	if strings.TrimSpace(correlationID) == "" {
		return ErrCorrelationIDRequired
	}

	m.mu.RLock()
	route, ok := m.routes[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoWorkflowForEvent, name)
	}

	signal := route.Signal
	if signal == "" {
		signal = name
	}

	workflowID := m.WorkflowID(correlationID)
	opts := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: m.cfg.GetTaskQueue(),
	}

	run, err := m.starter.SignalWithStartWorkflow(ctx, workflowID, signal, input, opts, route.Workflow)
	if err != nil {
		m.logger.Error("failed to signal workflow", "event", name, "workflow_id", workflowID, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to signal workflow "+workflowID)
	}

	if run != nil {
		m.logger.Debug("signaled workflow", "event", name, "workflow_id", workflowID, "run_id", run.GetRunID())
	}
	return nil
}

// WorkflowID returns the workflow id used for correlationID.
func (m *Manager) WorkflowID(correlationID string) string {
	return m.cfg.GetWorkflowIDPrefix() + "-" + correlationID
}

// ParseWorkflowID returns the correlation id encoded in workflowID.
func (m *Manager) ParseWorkflowID(workflowID string) (string, error) {
	prefix := m.cfg.GetWorkflowIDPrefix() + "-"
	if !strings.HasPrefix(workflowID, prefix) || len(workflowID) == len(prefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidWorkflowID, workflowID)
	}
	return strings.TrimPrefix(workflowID, prefix), nil
}
