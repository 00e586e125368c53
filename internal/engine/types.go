package engine

import (
	"encoding/json"
	"fmt"
)

// ReprocessingKind selects how a component is made ready for reuse.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver; String/MarshalJSON use value receivers.
type ReprocessingKind int

const (
	// ReprocessingNone means the component is not reprocessed.
	ReprocessingNone ReprocessingKind = iota
	// ReprocessingLaundry charges the laundry factor per kg of the component.
	ReprocessingLaundry
	// ReprocessingHSDU sends the product through a sterilisation unit.
	ReprocessingHSDU
)

// String returns the label used in inventories and reports.
func (k ReprocessingKind) String() string {
	switch k {
	case ReprocessingNone:
		return "none"
	case ReprocessingLaundry:
		return "laundry"
	case ReprocessingHSDU:
		return "hsdu"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalJSON implements json.Marshaler.
func (k ReprocessingKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *ReprocessingKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing reprocessing kind: %w", err)
	}
	switch s {
	case "none", "":
		*k = ReprocessingNone
	case "laundry":
		*k = ReprocessingLaundry
	case "hsdu":
		*k = ReprocessingHSDU
	default:
		return fmt.Errorf("unknown reprocessing kind %q", s)
	}
	return nil
}

// Reprocessing describes a component's reprocessing step. FillFraction is
// the share of one decontamination-unit load in [0, 1] and is only read for
// ReprocessingHSDU.
type Reprocessing struct {
	Kind         ReprocessingKind `json:"kind"`
	FillFraction float64          `json:"fill_fraction,omitempty"`
}

// Disposal holds the three end-of-life routes. At most one should be set.
type Disposal struct {
	Recycle    bool `json:"recycle,omitempty"`
	Incinerate bool `json:"incinerate,omitempty"`
	Landfill   bool `json:"landfill,omitempty"`
}

// Count returns how many routes are set.
func (d Disposal) Count() int {
	n := 0
	for _, set := range []bool{d.Recycle, d.Incinerate, d.Landfill} {
		if set {
			n++
		}
	}
	return n
}

// Component is one manufactured input to a product, or a process step.
type Component struct {
	Name string `json:"name"`
	Year int    `json:"year"`

	// Location is "city (country)". Empty means made at the destination.
	Location string  `json:"location,omitempty"`
	MassKg   float64 `json:"mass_kg"`
	Uses     int     `json:"uses"`
	Biogenic bool    `json:"biogenic,omitempty"`

	// DebarkationPort is where the component leaves its origin by sea.
	DebarkationPort string `json:"debarkation_port,omitempty"`

	// ArrivalLocation is where it lands in the UK. Empty means the destination.
	ArrivalLocation string       `json:"arrival_location,omitempty"`
	Reprocessing    Reprocessing `json:"reprocessing"`
	Disposal        Disposal     `json:"disposal"`
}

// Electricity is appliance use per product use.
type Electricity struct {
	PowerW float64 `json:"power_w"`
	Hours  float64 `json:"hours"`
}

// KWh returns the energy drawn per use.
func (e Electricity) KWh() float64 {
	return e.PowerW * e.Hours / 1000
}

// Water is water consumed per product use.
type Water struct {
	Litres float64 `json:"litres"`
}

// Gas is gas burned per product use.
type Gas struct {
	CubicMetres float64 `json:"cubic_metres"`
}

// UsePhase lists the utilities a product consumes while in use.
// A nil field means that utility is not used.
type UsePhase struct {
	Electricity *Electricity `json:"electricity,omitempty"`
	Water       *Water       `json:"water,omitempty"`
	Gas         *Gas         `json:"gas,omitempty"`
}

// Product is a named item built from an ordered list of components.
type Product struct {
	Name       string      `json:"name"`
	Category   string      `json:"category,omitempty"`
	Components []Component `json:"components"`
	Use        UsePhase    `json:"use"`
}
