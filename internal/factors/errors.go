package factors

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by table construction and factor resolution.
// Compare with errors.Is.
var (
	// ErrFactorNotFound indicates no record resolved after the full
	// specific -> region -> world fallback chain.
	ErrFactorNotFound = constError("factor not found")

	// ErrInvalidLocationCountry indicates a country that belongs to neither
	// the Europe nor the rest-of-world membership set.
	ErrInvalidLocationCountry = constError("not a valid country")

	// ErrDuplicateRecord indicates two records share the same key and year.
	ErrDuplicateRecord = constError("duplicate factor record")

	// ErrOverlappingRegions indicates a country listed in both region sets.
	ErrOverlappingRegions = constError("country listed in more than one region")

	// ErrInvalidRecord indicates a record with an empty key or out-of-range value.
	ErrInvalidRecord = constError("invalid factor record")
)
