package engine

import "github.com/rshade/medcarbon/internal/factors"

// manufacture sums factor x mass / uses over the components. The first
// component whose factor cannot be resolved stops the stage.
func (r *run) manufacture(components []Component, detail []ComponentResult) float64 {
	total := 0.0
	for i, comp := range components {
		f, ok := r.resolveComponent(StageManufacture, comp, factors.EmissionFactor)
		if !ok {
			break
		}
		e := f * comp.MassKg / float64(comp.Uses)
		detail[i].Manufacture = e
		total += e
	}
	return total
}
