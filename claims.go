package auth

// ExternalUserClaim is a single key/value assertion about a user supplied
// by an external identity provider. Claims are opaque to this package.
type ExternalUserClaim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
