package engine

import (
	"fmt"

	"github.com/rshade/medcarbon/internal/factors"
)

// Molar masses used to turn a mass of carbon into a mass of CO2.
const (
	molarMassC   = 12.01
	molarMassCO2 = 44.01
)

// CarbonToCO2 returns the mass of CO2 produced by fully oxidising kgCarbon.
func CarbonToCO2(kgCarbon float64) float64 {
	return kgCarbon / molarMassC * molarMassCO2
}

// DisposalDetail splits the disposal stage into its routes. Net is
// Incineration + Recycling + Landfill - BiogenicCredit and may be negative.
type DisposalDetail struct {
	Incineration   float64 `json:"incineration"`
	Recycling      float64 `json:"recycling"`
	Landfill       float64 `json:"landfill"`
	BiogenicCredit float64 `json:"biogenic_credit"`
	Net            float64 `json:"net"`
}

// disposal accumulates per-use masses by route, then converts incinerated
// carbon to CO2, charges disposal transport on every route plus the landfill
// factor, and credits biogenic carbon.
//
// A component with several routes is reported and stops the stage. A
// component with none is a process step and stops the stage silently. A
// carbon content that cannot be resolved also stops the stage.
func (r *run) disposal(components []Component) DisposalDetail {
	var biogenicC, incineratedC, incineratedMass, recycledMass, landfilledMass float64

	for _, comp := range components {
		n := comp.Disposal.Count()
		if n > 1 {
			r.warn(Warning{
				Kind:      InvalidDisposalCombination,
				Stage:     StageDisposal,
				Component: comp.Name,
				Location:  comp.Location,
				Detail:    fmt.Sprintf("%s is disposed of in %d ways; later components ignored", comp.Name, n),
			})
			break
		}
		if n == 0 {
			break
		}

		cc, ok := r.resolveComponent(StageDisposal, comp, factors.CarbonContent)
		if !ok {
			break
		}

		perUse := comp.MassKg / float64(comp.Uses)
		if comp.Biogenic {
			biogenicC += cc * perUse
		}
		switch {
		case comp.Disposal.Incinerate:
			incineratedC += cc * perUse
			incineratedMass += perUse
		case comp.Disposal.Recycle:
			recycledMass += perUse
		case comp.Disposal.Landfill:
			landfilledMass += perUse
		}
	}

	var transport, landfill float64
	if incineratedMass+recycledMass+landfilledMass > 0 {
		transport = r.additional(StageDisposal, r.c.opts.Year,
			factors.NameUnit{Name: factors.DisposalTransport, Unit: factors.UnitKm})
	}
	if landfilledMass > 0 {
		landfill = r.additional(StageDisposal, r.c.opts.Year,
			factors.NameUnit{Name: factors.Landfill, Unit: factors.UnitKg})
	}

	d := DisposalDetail{
		Incineration:   CarbonToCO2(incineratedC) + incineratedMass*transport,
		Recycling:      recycledMass * transport,
		Landfill:       landfilledMass * (transport + landfill),
		BiogenicCredit: CarbonToCO2(biogenicC),
	}
	d.Net = d.Incineration + d.Recycling + d.Landfill - d.BiogenicCredit
	return d
}
