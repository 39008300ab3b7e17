package temporal

import "github.com/goliatone/go-errors"

const (
	TextCodeNoWorkflow            = "temporal_no_workflow_for_event"
	TextCodeCorrelationIDRequired = "temporal_correlation_id_required"
	TextCodeInvalidWorkflowID     = "temporal_invalid_workflow_id"
	TextCodeConfigRequired        = "temporal_config_required"
)

// ErrNoWorkflowForEvent is returned when an event has no workflow route.
var ErrNoWorkflowForEvent = errors.New("no workflow registered for event", errors.CategoryNotFound).
	WithTextCode(TextCodeNoWorkflow).
	WithCode(errors.CodeNotFound)

// ErrCorrelationIDRequired is returned when an event is triggered without a correlation id.
var ErrCorrelationIDRequired = errors.New("correlation id is required", errors.CategoryBadInput).
	WithTextCode(TextCodeCorrelationIDRequired).
	WithCode(errors.CodeBadRequest)

// ErrInvalidWorkflowID is returned by ParseWorkflowID for foreign workflow ids.
var ErrInvalidWorkflowID = errors.New("workflow id does not match prefix", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidWorkflowID).
	WithCode(errors.CodeBadRequest)

// ErrConfigRequired is returned by Dial when no configuration is given.
var ErrConfigRequired = errors.New("temporal config is required", errors.CategoryBadInput).
	WithTextCode(TextCodeConfigRequired).
	WithCode(errors.CodeBadRequest)
