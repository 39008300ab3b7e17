// Package auth holds the identity model shared by the external login
// handlers and the workflow adapters: users, roles, linked external logins
// and the activity sink used for auditing.
//
// External logins:
//   - The external package defines ExternalLoginEventHandler, the contract the
//     identity host invokes after a provider handshake. WorkflowLoginHandler
//     forwards every login to a workflows.Manager as an
//     ExternalUserLoggedInEvent, correlated by the user ID.
//   - Dispatcher fans a login out to every registered handler and LoginService
//     resolves or provisions the local user before doing so.
//
// Workflows:
//   - workflows.Manager is the engine contract. LocalManager runs subscribers
//     in process; workflows/temporal signals a per-user Temporal workflow.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
package auth
