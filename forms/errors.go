package forms

import "errors"

var (
	// ErrPowerNoConvergence is returned when the eigenvalue does not settle
	// within the iteration cap.
	ErrPowerNoConvergence = errors.New("forms: power iteration did not converge")
	// ErrZeroYield is returned when a flux produces no fission neutrons.
	ErrZeroYield = errors.New("forms: zero fission yield")
	// ErrUnknownMaterial is returned for an element marker without a
	// material record.
	ErrUnknownMaterial = errors.New("forms: unknown material")
)
