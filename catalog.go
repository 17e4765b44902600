package treecorr

import "fmt"

// Catalog is the input to Process: point positions plus optional weights,
// scalar values and shear components, all of equal length.
//
// The correlation stubs in this package accept a Catalog but do not read it.
// A pair counter needs Len, the positions and whichever field the kind uses
// (K for scalar kinds, G1/G2 for shear kinds).
type Catalog struct {
	Name string

	X, Y []float64 // positions; radians for angular catalogs
	W    []float64 // per-point weights, nil means unit weight

	K      []float64 // scalar field
	G1, G2 []float64 // shear components
}

// CatalogOption sets an optional column on a Catalog.
type CatalogOption func(*Catalog)

// WithWeights attaches per-point weights.
func WithWeights(w []float64) CatalogOption {
	return func(c *Catalog) { c.W = w }
}

// WithKappa attaches a scalar field.
func WithKappa(k []float64) CatalogOption {
	return func(c *Catalog) { c.K = k }
}

// WithShear attaches the two shear components.
func WithShear(g1, g2 []float64) CatalogOption {
	return func(c *Catalog) {
		c.G1 = g1
		c.G2 = g2
	}
}

// WithName labels the catalog in log records.
func WithName(name string) CatalogOption {
	return func(c *Catalog) { c.Name = name }
}

// NewCatalog builds a catalog from positions and options, checking that
// every column has one entry per point.
func NewCatalog(x, y []float64, opts ...CatalogOption) (*Catalog, error) {
	c := &Catalog{X: x, Y: y}
	for _, opt := range opts {
		opt(c)
	}

	n := len(x)
	columns := []struct {
		key  string
		data []float64
	}{
		{"y", c.Y},
		{"w", c.W},
		{"k", c.K},
		{"g1", c.G1},
		{"g2", c.G2},
	}
	for _, col := range columns {
		if col.key != "y" && col.data == nil {
			continue
		}
		if len(col.data) != n {
			return nil, &ValueError{
				Key:    col.key,
				Value:  len(col.data),
				Reason: fmt.Sprintf("column length must match x (%d)", n),
			}
		}
	}
	if (c.G1 == nil) != (c.G2 == nil) {
		return nil, &ValueError{Key: "g2", Value: len(c.G2), Reason: "g1 and g2 must be given together"}
	}
	return c, nil
}

// Len returns the number of points.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.X)
}

// HasKappa reports whether a scalar field is attached.
func (c *Catalog) HasKappa() bool { return c != nil && c.K != nil }

// HasShear reports whether shear components are attached.
func (c *Catalog) HasShear() bool { return c != nil && c.G1 != nil && c.G2 != nil }

func (c *Catalog) label() string {
	if c == nil {
		return ""
	}
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("catalog(%d)", c.Len())
}
