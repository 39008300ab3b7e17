package workflows

import "github.com/goliatone/go-errors"

const (
	TextCodeInvalidEvent    = "workflow_invalid_event"
	TextCodeInvalidPayload  = "workflow_invalid_payload"
	TextCodeSubscriberPanic = "workflow_subscriber_panic"
)

// ErrInvalidEvent is returned when an event is triggered without a name.
var ErrInvalidEvent = errors.New("workflow event name is required", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidEvent).
	WithCode(errors.CodeBadRequest)

// ErrInvalidPayload is the template for unexpected event inputs. LoginPayload
// returns copies carrying the event name and input type as metadata; match
// them on TextCodeInvalidPayload.
var ErrInvalidPayload = errors.New("unexpected workflow event payload", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidPayload).
	WithCode(errors.CodeBadRequest)

// ErrSubscriberPanic is the template for errors reported when an in-process
// subscriber panics. Copies carry the recovered value as metadata.
var ErrSubscriberPanic = errors.New("workflow subscriber panicked", errors.CategoryInternal).
	WithTextCode(TextCodeSubscriberPanic).
	WithCode(errors.CodeInternal)
