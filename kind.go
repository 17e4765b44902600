package treecorr

import (
	"strings"
)

// Kind identifies which pair of fields a correlation cross-correlates.
// N is a count (position) field, K a real scalar field and G a spin-2 shear.
type Kind int

const (
	GG Kind = iota + 1 // shear-shear
	NN                 // count-count
	KK                 // scalar-scalar
	NG                 // count-shear
	NK                 // count-scalar
	KG                 // scalar-shear
)

type kindInfo struct {
	name        string
	alias       string
	complex     bool
	cross       bool
	description string
}

var kinds = map[Kind]kindInfo{
	GG: {"GG", "G2", true, false, "shear-shear"},
	NN: {"NN", "N2", false, false, "count-count"},
	KK: {"KK", "K2", false, false, "scalar-scalar"},
	NG: {"NG", "", true, true, "count-shear"},
	NK: {"NK", "", false, true, "count-scalar"},
	KG: {"KG", "", true, true, "scalar-shear"},
}

// Kinds lists every correlation kind in declaration order.
func Kinds() []Kind {
	return []Kind{GG, NN, KK, NG, NK, KG}
}

// ParseKind resolves names such as "gg", "NG" or the legacy "G2".
func ParseKind(s string) (Kind, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	for _, k := range Kinds() {
		info := kinds[k]
		if key == info.name || (info.alias != "" && key == info.alias) {
			return k, nil
		}
	}
	return 0, &ConfigError{Key: "kind", Reason: "unknown correlation kind " + s}
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "Kind(?)"
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// IsComplex reports whether results of this kind are complex-valued.
// Every kind involving a shear field is.
func (k Kind) IsComplex() bool {
	return kinds[k].complex
}

// IsCross reports whether the kind correlates two different field types
// and therefore needs a second catalog.
func (k Kind) IsCross() bool {
	return kinds[k].cross
}

// Description returns a human-readable name, e.g. "count-shear".
func (k Kind) Description() string {
	return kinds[k].description
}
