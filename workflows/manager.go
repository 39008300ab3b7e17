package workflows

import "context"

// Manager triggers workflow events. Implementations start or resume every
// workflow subscribed to name, using correlationID to select the instance.
type Manager interface {
	TriggerEvent(ctx context.Context, name string, input any, correlationID string) error
}

// ManagerFunc adapts a function to the Manager interface.
type ManagerFunc func(ctx context.Context, name string, input any, correlationID string) error

// TriggerEvent implements Manager.
func (f ManagerFunc) TriggerEvent(ctx context.Context, name string, input any, correlationID string) error {
	return f(ctx, name, input, correlationID)
}
