package engine

import (
	"fmt"

	"github.com/rshade/medcarbon/internal/factors"
)

// Leg modes.
const (
	modeLand = "land"
	modeSea  = "sea"
)

// travelFactors are the per tonne-km factors for one manufacture year.
type travelFactors struct {
	land float64
	sea  float64
}

// transport sums the land and sea legs that bring each component to the UK:
//
//	origin -> port (land), port -> arrival (sea)    when a port is set
//	origin -> arrival (land)                        otherwise
//
// The sea leg needs both a port and an arrival point. The direct land leg
// runs to the destination when no arrival point is set. Legs whose two ends
// are the same place are skipped, as are components without a manufacture
// location and components made at the destination.
func (r *run) transport(components []Component, detail []ComponentResult) float64 {
	byYear := make(map[int]travelFactors)
	total := 0.0

	for i, comp := range components {
		origin := comp.Location
		if factors.Normalize(origin) == "" || samePlace(origin, r.c.opts.Destination) {
			continue
		}
		arrival := comp.ArrivalLocation
		hasArrival := factors.Normalize(arrival) != ""
		port := comp.DebarkationPort

		type leg struct{ mode, from, to string }
		var legs []leg
		switch {
		case factors.Normalize(port) != "":
			legs = append(legs, leg{modeLand, origin, port})
			if hasArrival {
				legs = append(legs, leg{modeSea, port, arrival})
			}
		case hasArrival:
			legs = append(legs, leg{modeLand, origin, arrival})
		default:
			legs = append(legs, leg{modeLand, origin, r.c.opts.Destination})
		}

		em := 0.0
		for _, l := range legs {
			if samePlace(l.from, l.to) {
				continue
			}
			tf, ok := byYear[comp.Year]
			if !ok {
				tf = r.travelFactors(comp.Year)
				byYear[comp.Year] = tf
			}

			var km, factor float64
			if l.mode == modeLand {
				km = r.landDistance(comp, l.from, l.to)
				factor = tf.land
			} else {
				km = r.seaDistance(comp, l.from, l.to)
				factor = tf.sea
			}
			em += legEmissions(comp.MassKg, km, factor, comp.Uses)
		}

		detail[i].Transport = em
		total += em
	}
	return total
}

func (r *run) travelFactors(year int) travelFactors {
	return travelFactors{
		land: r.additional(StageTransport, year,
			factors.NameUnit{Name: factors.HGVTransport, Unit: factors.UnitKm},
			factors.NameUnit{Name: factors.HGVTransportWTT, Unit: factors.UnitKm}),
		sea: r.additional(StageTransport, year,
			factors.NameUnit{Name: factors.ContainerShipTransport, Unit: factors.UnitKm},
			factors.NameUnit{Name: factors.ContainerShipTransportWTT, Unit: factors.UnitKm}),
	}
}

func (r *run) landDistance(comp Component, from, to string) float64 {
	if km, ok := r.c.tables.LandDistances.Lookup(from, to); ok {
		return km
	}
	r.warn(Warning{
		Kind:      MissingTravelDistance,
		Stage:     StageTransport,
		Component: comp.Name,
		Location:  from,
		Detail:    fmt.Sprintf("no land distance from %q to %q, using 0.0", factors.Normalize(from), factors.Normalize(to)),
	})
	return 0
}

func (r *run) seaDistance(comp Component, from, to string) float64 {
	if km, ok := r.c.tables.SeaDistances.Lookup(from, to); ok {
		return km
	}

	detail := fmt.Sprintf("no sea distance from %q to %q and no router configured, using 0.0",
		factors.Normalize(from), factors.Normalize(to))
	if r.c.router != nil {
		km, err := r.c.router.SeaDistance(r.ctx, from, to)
		if err == nil {
			return km
		}
		detail = fmt.Sprintf("routing %q to %q: %v, using 0.0", factors.Normalize(from), factors.Normalize(to), err)
	}
	r.warn(Warning{
		Kind:      SeaRouteUnavailable,
		Stage:     StageTransport,
		Component: comp.Name,
		Location:  from,
		Detail:    detail,
	})
	return 0
}

// legEmissions converts a per tonne-km factor into kg CO2e per use.
func legEmissions(massKg, km, factorPerTonneKm float64, uses int) float64 {
	return massKg * km * (factorPerTonneKm / 1000) / float64(uses)
}

func samePlace(a, b string) bool {
	return factors.Normalize(a) == factors.Normalize(b)
}
