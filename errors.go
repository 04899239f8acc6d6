package gnss

import "fmt"

// NotReadyError is returned when an operation is attempted before enough
// measurements or configuration are available.
type NotReadyError struct {
	Reason string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("gnss: not ready: %s", e.Reason)
}

// LockedError is returned when a mutator is called while another mutator is
// already running on the same GnssKalmanFilteredEstimator.
type LockedError struct{}

func (e *LockedError) Error() string {
	return "gnss: estimator is locked by a concurrent operation"
}

// InsufficientMeasurementsError is returned by LeastSquaresPvtSolver when
// fewer than four measurements are supplied.
type InsufficientMeasurementsError struct {
	Got, Want int
}

func (e *InsufficientMeasurementsError) Error() string {
	return fmt.Sprintf("gnss: insufficient measurements: got %d, need at least %d", e.Got, e.Want)
}

// SingularGeometryError is returned by LeastSquaresPvtSolver when the
// satellite geometry makes the normal equations singular.
type SingularGeometryError struct{}

func (e *SingularGeometryError) Error() string {
	return "gnss: singular satellite geometry (colinear or degenerate)"
}

// SingularGainError is returned by GnssKalmanEpochEstimator when the
// innovation covariance cannot be inverted.
type SingularGainError struct{}

func (e *SingularGainError) Error() string {
	return "gnss: singular innovation covariance, cannot compute Kalman gain"
}

// NumericalError is returned when a computed state or covariance contains a
// non-finite value.
type NumericalError struct {
	Where string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("gnss: non-finite value produced in %s", e.Where)
}

// ConvergenceError is returned by LeastSquaresPvtSolver when the iteration
// budget is exhausted before the update norm falls below the tolerance.
type ConvergenceError struct {
	Iterations int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("gnss: least-squares solver did not converge within %d iterations", e.Iterations)
}

// InvalidConfigError is returned by constructors and setters when a
// configuration value violates its invariant.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("gnss: invalid config field %q: %s", e.Field, e.Reason)
}

// ConversionError wraps a failure from the frame-conversion collaborator.
type ConversionError struct {
	Err error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("gnss: frame conversion failed: %s", e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
