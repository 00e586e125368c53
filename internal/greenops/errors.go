package greenops

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrInvalidUnit is returned for a mass unit other than g, kg, t or lb.
	ErrInvalidUnit = constError("invalid carbon unit")

	// ErrCalculationOverflow is returned for NaN or infinite inputs and results.
	ErrCalculationOverflow = constError("calculation overflow")
)
