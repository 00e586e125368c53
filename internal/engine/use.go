package engine

import "github.com/rshade/medcarbon/internal/factors"

// utilityFactors are the combined utility factors for one year, WTT included.
type utilityFactors struct {
	waterPerM3 float64
	elecPerKWh float64
	gasPerM3   float64
}

func (r *run) utilityFactors(stage Stage, year int, water, elec, gas bool) utilityFactors {
	var u utilityFactors
	if water {
		u.waterPerM3 = r.additional(stage, year,
			factors.NameUnit{Name: factors.WaterTreatment, Unit: factors.UnitM3},
			factors.NameUnit{Name: factors.WaterSupply, Unit: factors.UnitM3})
	}
	if elec {
		u.elecPerKWh = r.additional(stage, year,
			factors.NameUnit{Name: factors.ElectricityGeneration, Unit: factors.UnitKWh},
			factors.NameUnit{Name: factors.ElectricityTransmission, Unit: factors.UnitKWh},
			factors.NameUnit{Name: factors.ElectricityGenerationWTT, Unit: factors.UnitKWh},
			factors.NameUnit{Name: factors.ElectricityTransmissionWTT, Unit: factors.UnitKWh})
	}
	if gas {
		u.gasPerM3 = r.additional(stage, year,
			factors.NameUnit{Name: factors.Gas, Unit: factors.UnitM3},
			factors.NameUnit{Name: factors.GasWTT, Unit: factors.UnitM3})
	}
	return u
}

// use sums the water, electricity and gas emissions of one product use.
func (r *run) use(u UsePhase) float64 {
	f := r.utilityFactors(StageUse, r.c.opts.Year, u.Water != nil, u.Electricity != nil, u.Gas != nil)

	total := 0.0
	if u.Water != nil {
		total += f.waterPerM3 * (u.Water.Litres / 1000)
	}
	if u.Electricity != nil {
		total += f.elecPerKWh * u.Electricity.KWh()
	}
	if u.Gas != nil {
		total += f.gasPerM3 * u.Gas.CubicMetres
	}
	return total
}
