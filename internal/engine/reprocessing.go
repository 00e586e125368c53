package engine

import (
	"fmt"

	"github.com/rshade/medcarbon/internal/factors"
)

// reprocessing charges laundry per kg of each laundered component and, when
// any component goes through the HSDU, one decontamination load scaled by
// the fill fraction. Only the last HSDU fraction in the product counts.
func (r *run) reprocessing(components []Component, detail []ComponentResult) float64 {
	total := 0.0
	hsdu := false
	fill := 0.0
	laundryFactor := 0.0
	laundryResolved := false

	for i, comp := range components {
		switch comp.Reprocessing.Kind {
		case ReprocessingLaundry:
			if !laundryResolved {
				laundryFactor = r.additional(StageReprocessing, r.c.opts.Year,
					factors.NameUnit{Name: factors.Laundry, Unit: factors.UnitKg})
				laundryResolved = true
			}
			e := comp.MassKg * laundryFactor
			detail[i].Reprocessing = e
			total += e
		case ReprocessingHSDU:
			hsdu = true
			fill = comp.Reprocessing.FillFraction
		case ReprocessingNone:
		}
	}

	if hsdu {
		total += r.deconFactor() * fill
	}
	return total
}

// deconFactor is the emissions of one full load of the configured unit.
func (r *run) deconFactor() float64 {
	unit, ok := r.c.tables.DeconUnits.Get(r.c.opts.DeconUnit)
	if !ok {
		r.warn(Warning{
			Kind:   DeconUnitNotFound,
			Stage:  StageReprocessing,
			Detail: fmt.Sprintf("no decontamination unit profile %q, using 0.0", factors.Normalize(r.c.opts.DeconUnit)),
		})
		return 0
	}
	return deconLoad(unit, r.utilityFactors(StageReprocessing, r.c.opts.Year, true, true, true))
}

// deconLoad combines a unit's per-load utility use with utility factors.
func deconLoad(unit factors.DeconUnit, f utilityFactors) float64 {
	water := f.waterPerM3 * 0.001 * unit.WaterLitres
	elec := f.elecPerKWh * unit.ElectricityKWh
	gas := f.gasPerM3 * unit.GasM3
	return water + elec + gas
}
