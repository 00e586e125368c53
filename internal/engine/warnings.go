package engine

import (
	"encoding/json"
	"fmt"
)

// WarningKind names a recoverable data-quality problem met during a calculation.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver; String/MarshalJSON use value receivers.
type WarningKind int

const (
	// FactorNotFound: no factor after the specific, region and world lookups.
	FactorNotFound WarningKind = iota + 1
	// InvalidLocationCountry: the country is in neither region set.
	InvalidLocationCountry
	// InvalidDisposalCombination: more than one disposal route on a component.
	InvalidDisposalCombination
	// MissingTravelDistance: a land leg has no distance table entry.
	MissingTravelDistance
	// SeaRouteUnavailable: a sea leg is not tabled and the router failed.
	SeaRouteUnavailable
	// AdditionalFactorNotFound: an additional factor has no record at any year.
	AdditionalFactorNotFound
	// DeconUnitNotFound: HSDU reprocessing with no profile for the configured unit.
	DeconUnitNotFound
	// InvalidComponent: a component with fewer than one use or a negative mass.
	InvalidComponent
)

//nolint:gochecknoglobals // Fixed lookup table.
var warningKindNames = map[WarningKind]string{
	FactorNotFound:             "factor_not_found",
	InvalidLocationCountry:     "invalid_location_country",
	InvalidDisposalCombination: "invalid_disposal_combination",
	MissingTravelDistance:      "missing_travel_distance",
	SeaRouteUnavailable:        "sea_route_unavailable",
	AdditionalFactorNotFound:   "additional_factor_not_found",
	DeconUnitNotFound:          "decon_unit_not_found",
	InvalidComponent:           "invalid_component",
}

// WarningKinds returns every kind in declaration order.
func WarningKinds() []WarningKind {
	return []WarningKind{
		FactorNotFound, InvalidLocationCountry, InvalidDisposalCombination,
		MissingTravelDistance, SeaRouteUnavailable, AdditionalFactorNotFound,
		DeconUnitNotFound, InvalidComponent,
	}
}

// String returns the snake_case name of the kind.
func (k WarningKind) String() string {
	if s, ok := warningKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// MarshalJSON implements json.Marshaler.
func (k WarningKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *WarningKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing warning kind: %w", err)
	}
	for kind, name := range warningKindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown warning kind %q", s)
}

// Stage names one of the five lifecycle stages.
type Stage string

// Lifecycle stages.
const (
	StageManufacture  Stage = "manufacture"
	StageTransport    Stage = "transport"
	StageUse          Stage = "use"
	StageReprocessing Stage = "reprocessing"
	StageDisposal     Stage = "disposal"
)

// Warning is a structured report of a problem the calculator recovered from.
// The affected value was replaced by 0.0, and for manufacture and disposal the
// remaining components of the product were not processed.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Stage     Stage       `json:"stage,omitempty"`
	Product   string      `json:"product"`
	Component string      `json:"component,omitempty"`
	Location  string      `json:"location,omitempty"`
	Region    string      `json:"region,omitempty"`
	Detail    string      `json:"detail"`
}

// String renders the warning as a one-line message.
func (w Warning) String() string {
	msg := fmt.Sprintf("[%s] %s", w.Kind, w.Product)
	if w.Stage != "" {
		msg = string(w.Stage) + " " + msg
	}
	if w.Component != "" {
		msg += "/" + w.Component
	}
	return msg + ": " + w.Detail
}
