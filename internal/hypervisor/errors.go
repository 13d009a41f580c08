package hypervisor

import "errors"

// Error taxonomy shared by the engine. Higher layers match these with
// errors.Is; human-readable context is added at the failure site with %w.
var (
	// ErrQuery indicates the hypervisor tool returned non-zero for a
	// query that must succeed.
	ErrQuery = errors.New("hypervisor query failed")

	// ErrExternal indicates malformed or unexpected tool output, or a
	// failed installer invocation.
	ErrExternal = errors.New("unexpected hypervisor response")

	// ErrNotValidated indicates a checksum or integrity check failed.
	ErrNotValidated = errors.New("integrity not validated")

	// ErrNotTrusted indicates the trusted configuration source could not
	// be authenticated.
	ErrNotTrusted = errors.New("source not trusted")

	// ErrAlreadyExists indicates an idempotent no-op: the requested thing
	// is already in place.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUserDenied indicates the user refused an interactive confirmation.
	ErrUserDenied = errors.New("denied by user")

	// ErrMissingField indicates a persisted descriptor is missing a
	// required field.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidAdapter indicates operations were attempted against an
	// adapter that failed validation.
	ErrInvalidAdapter = errors.New("hypervisor adapter not validated")
)
