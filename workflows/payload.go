package workflows

import "fmt"

// LoginPayload extracts the ExternalUserLoggedIn input from an event.
// Both value and pointer inputs are accepted.
func LoginPayload(evt Event) (ExternalUserLoggedIn, error) {
	switch in := evt.Input.(type) {
	case ExternalUserLoggedIn:
		return in, nil
	case *ExternalUserLoggedIn:
		if in != nil {
			return *in, nil
		}
	}
	return ExternalUserLoggedIn{}, ErrInvalidPayload.Clone().WithMetadata(map[string]any{
		"event":      evt.Name,
		"input_type": fmt.Sprintf("%T", evt.Input),
	})
}
