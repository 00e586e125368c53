package ingest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/rshade/medcarbon/internal/engine"
	"github.com/rshade/medcarbon/internal/logging"
)

// Product-level inventory columns.
const (
	colProduct     = "product"
	colCategory    = "category"
	colElectricity = "electricity"
	colWater       = "water"
	colGas         = "gas"
)

// Per-component column prefixes; the component number follows an underscore.
const (
	colComponent    = "component"
	colYear         = "manu_year"
	colMass         = "mass_kg"
	colUses         = "no_uses"
	colBiogenic     = "biogenic"
	colLocation     = "manu_loc"
	colPort         = "debark_port"
	colArrival      = "depart_loc_uk"
	colReprocessing = "reprocessing"
	colRecycle      = "recycle"
	colIncinerate   = "incinerate"
	colLandfill     = "landfill"
)

// ComponentColumns lists the column prefixes every component slot must have.
//
//nolint:gochecknoglobals // Fixed inventory schema.
var ComponentColumns = []string{
	colComponent, colYear, colMass, colUses, colBiogenic, colLocation,
	colPort, colArrival, colReprocessing, colRecycle, colIncinerate, colLandfill,
}

func slotColumn(prefix string, n int) string {
	return prefix + "_" + strconv.Itoa(n)
}

// componentSlots returns the component numbers present in the header, checking
// that each has the complete set of columns.
func componentSlots(s *sheet) ([]int, error) {
	var slots []int
	for _, h := range s.header {
		rest, ok := strings.CutPrefix(h, colComponent+"_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			continue
		}
		slots = append(slots, n)
	}
	sort.Ints(slots)

	for _, n := range slots {
		for _, prefix := range ComponentColumns {
			if col := slotColumn(prefix, n); !s.has(col) {
				return nil, fmt.Errorf("%s: %w %q", s.file, ErrMissingColumn, col)
			}
		}
	}
	return slots, nil
}

// ReadInventory parses a wide product inventory. Each row is a product; its
// components are read from the numbered column groups and stop at the first
// empty or "0" component name.
func ReadInventory(ctx context.Context, r io.Reader, file string) ([]engine.Product, error) {
	log := logging.FromContext(ctx)

	s, err := readSheet(r, file, colProduct, colCategory, colElectricity, colWater, colGas)
	if err != nil {
		return nil, err
	}
	slots, err := componentSlots(s)
	if err != nil {
		return nil, err
	}

	products := make([]engine.Product, 0, len(s.rows))
	for i, row := range s.rows {
		p, err := readProduct(s, i, row, slots)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	log.Debug().
		Ctx(ctx).
		Str("component", "ingest").
		Str("operation", "read_inventory").
		Str("file", file).
		Int("product_count", len(products)).
		Int("component_slots", len(slots)).
		Msg("inventory parsed")

	return products, nil
}

func readProduct(s *sheet, i int, row []string, slots []int) (engine.Product, error) {
	p := engine.Product{
		Name:     strings.ToLower(s.cell(row, colProduct)),
		Category: strings.ToLower(s.cell(row, colCategory)),
	}
	if p.Name == "" {
		return p, s.rowErr(i, colProduct, fmt.Errorf("%w: empty product name", ErrInvalidValue))
	}

	var err error
	if p.Use.Electricity, err = ParseElectricity(s.cell(row, colElectricity)); err != nil {
		return p, s.rowErr(i, colElectricity, err)
	}
	if p.Use.Water, err = ParseWater(s.cell(row, colWater)); err != nil {
		return p, s.rowErr(i, colWater, err)
	}
	if p.Use.Gas, err = ParseGas(s.cell(row, colGas)); err != nil {
		return p, s.rowErr(i, colGas, err)
	}

	for _, n := range slots {
		if s.text(row, slotColumn(colComponent, n)) == "" {
			break
		}
		c, err := readComponent(s, i, row, n)
		if err != nil {
			return p, err
		}
		p.Components = append(p.Components, c)
	}
	return p, nil
}

func readComponent(s *sheet, i int, row []string, n int) (engine.Component, error) {
	col := func(prefix string) string { return slotColumn(prefix, n) }

	c := engine.Component{
		Name:            s.text(row, col(colComponent)),
		Location:        s.text(row, col(colLocation)),
		DebarkationPort: s.text(row, col(colPort)),
		ArrivalLocation: arrivalLocation(s.text(row, col(colArrival))),
	}

	var err error
	if c.Year, err = s.int(i, row, col(colYear)); err != nil {
		return c, err
	}
	if c.MassKg, err = s.float(i, row, col(colMass)); err != nil {
		return c, err
	}
	if c.Uses, err = s.int(i, row, col(colUses)); err != nil {
		return c, err
	}
	if c.Biogenic, err = s.flag(i, row, col(colBiogenic)); err != nil {
		return c, err
	}
	if c.Reprocessing, err = ParseReprocessing(s.cell(row, col(colReprocessing))); err != nil {
		return c, s.rowErr(i, col(colReprocessing), err)
	}
	if c.Disposal.Recycle, err = s.flag(i, row, col(colRecycle)); err != nil {
		return c, err
	}
	if c.Disposal.Incinerate, err = s.flag(i, row, col(colIncinerate)); err != nil {
		return c, err
	}
	if c.Disposal.Landfill, err = s.flag(i, row, col(colLandfill)); err != nil {
		return c, err
	}
	return c, nil
}
