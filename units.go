package treecorr

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// AngleUnit is the number of radians in one unit of angle.
type AngleUnit float64

// Supported separation units. Separations are stored in radians internally.
const (
	Radians AngleUnit = 1
	Hours   AngleUnit = math.Pi / 12
	Degrees AngleUnit = math.Pi / 180
	Arcmin  AngleUnit = Degrees / 60
	Arcsec  AngleUnit = Degrees / 3600
)

// angleUnits lists every accepted spelling of each unit. Lookup is exact
// after lower-casing and trimming.
var angleUnits = []struct {
	name      string
	unit      AngleUnit
	spellings []string
}{
	{"radians", Radians, []string{"rad", "rads", "radian", "radians"}},
	{"hours", Hours, []string{"hr", "hrs", "hour", "hours"}},
	{"degrees", Degrees, []string{"deg", "degs", "degree", "degrees"}},
	{"arcmin", Arcmin, []string{"arcmin", "arcmins", "arcminute", "arcminutes"}},
	{"arcsec", Arcsec, []string{"arcsec", "arcsecs", "arcsecond", "arcseconds"}},
}

// ParseAngleUnit resolves a sep_units string to its radians-per-unit factor.
func ParseAngleUnit(s string) (AngleUnit, error) {
	_, u, err := lookupAngleUnit(s)
	return u, err
}

// CanonicalAngleUnit returns the canonical spelling of a unit name.
func CanonicalAngleUnit(s string) (string, error) {
	name, _, err := lookupAngleUnit(s)
	return name, err
}

func lookupAngleUnit(s string) (string, AngleUnit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key != "" {
		for _, au := range angleUnits {
			if slices.Contains(au.spellings, key) {
				return au.name, au.unit, nil
			}
		}
	}
	return "", 0, &ConfigError{
		Key:    KeySepUnits,
		Reason: "unknown angle unit " + strconv.Quote(s) + " (want radians, hours, degrees, arcmin or arcsec)",
	}
}

// ToRadians converts v from this unit to radians.
func (u AngleUnit) ToRadians(v float64) float64 {
	return v * float64(u)
}

// FromRadians converts v from radians to this unit.
func (u AngleUnit) FromRadians(v float64) float64 {
	return v / float64(u)
}
