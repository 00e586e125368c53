// Package geo turns port names into sea distances for legs that are missing
// from the sea distance table.
package geo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rshade/medcarbon/internal/engine"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0088

// Errors returned by the routers.
var (
	ErrUnknownPort   = errors.New("unknown port")
	ErrInvalidDetour = errors.New("detour factor must be at least 1")
)

// Port is a named point with coordinates in decimal degrees.
type Port struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Gazetteer resolves port names to coordinates. Names are matched
// case-insensitively.
type Gazetteer struct {
	ports map[string]Port
}

// NewGazetteer indexes ports, rejecting coordinates outside valid ranges.
func NewGazetteer(ports []Port) (*Gazetteer, error) {
	g := &Gazetteer{ports: make(map[string]Port, len(ports))}
	for _, p := range ports {
		if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
			return nil, fmt.Errorf("port %q: coordinates (%v, %v) out of range", p.Name, p.Latitude, p.Longitude)
		}
		g.ports[normalize(p.Name)] = p
	}
	return g, nil
}

// Lookup returns the port called name.
func (g *Gazetteer) Lookup(name string) (Port, bool) {
	if g == nil {
		return Port{}, false
	}
	p, ok := g.ports[normalize(name)]
	return p, ok
}

// Len returns the number of ports.
func (g *Gazetteer) Len() int {
	if g == nil {
		return 0
	}
	return len(g.ports)
}

// GreatCircleRouter estimates sea distance as the great-circle distance
// between two gazetteer ports. Ships follow sea lanes around land, so the
// figure is a lower bound on the distance sailed; wrap the router in a
// DetourRouter to scale it.
type GreatCircleRouter struct {
	gazetteer *Gazetteer
}

// NewGreatCircleRouter creates a router over g.
func NewGreatCircleRouter(g *Gazetteer) *GreatCircleRouter {
	return &GreatCircleRouter{gazetteer: g}
}

// SeaDistance returns the distance in km between two ports.
func (r *GreatCircleRouter) SeaDistance(ctx context.Context, from, to string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	a, ok := r.gazetteer.Lookup(from)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPort, normalize(from))
	}
	b, ok := r.gazetteer.Lookup(to)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPort, normalize(to))
	}
	return Haversine(a, b), nil
}

// DetourRouter scales another router's distances by a fixed factor.
type DetourRouter struct {
	next   engine.SeaRouter
	factor float64
}

// NewDetourRouter wraps next. factor must be at least 1.
func NewDetourRouter(next engine.SeaRouter, factor float64) (*DetourRouter, error) {
	if factor < 1 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidDetour, factor)
	}
	return &DetourRouter{next: next, factor: factor}, nil
}

// SeaDistance returns the wrapped router's distance times the factor.
func (r *DetourRouter) SeaDistance(ctx context.Context, from, to string) (float64, error) {
	km, err := r.next.SeaDistance(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return km * r.factor, nil
}

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b Port) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
