// Package geo provides basic geographic types shared across the library.
package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BoundingBox represents a geographic area bounded by south/west and
// north/east corners.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// ValidateCoords validates latitude and longitude values.
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("invalid latitude: %f (must be between -90 and 90)", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("invalid longitude: %f (must be between -180 and 180)", lon)
	}
	return nil
}

// Validate checks that both corners are valid coordinates and that the box
// is not inverted.
func (b BoundingBox) Validate() error {
	if err := ValidateCoords(b.MinLat, b.MinLon); err != nil {
		return err
	}
	if err := ValidateCoords(b.MaxLat, b.MaxLon); err != nil {
		return err
	}
	if b.MinLat > b.MaxLat {
		return fmt.Errorf("inverted bounding box: south %f above north %f", b.MinLat, b.MaxLat)
	}
	return nil
}

// Directive renders the box as a global Overpass QL bbox setting,
// [bbox:south,west,north,east].
func (b BoundingBox) Directive() string {
	var sb strings.Builder
	sb.WriteString("[bbox:")
	sb.WriteString(strconv.FormatFloat(b.MinLat, 'f', -1, 64))
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatFloat(b.MinLon, 'f', -1, 64))
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatFloat(b.MaxLat, 'f', -1, 64))
	sb.WriteByte(',')
	sb.WriteString(strconv.FormatFloat(b.MaxLon, 'f', -1, 64))
	sb.WriteByte(']')
	return sb.String()
}

// Bound converts the box to an orb bound (lon/lat corner points).
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// FromBound converts an orb bound back to a BoundingBox.
func FromBound(bound orb.Bound) BoundingBox {
	return BoundingBox{
		MinLat: bound.Min.Lat(),
		MinLon: bound.Min.Lon(),
		MaxLat: bound.Max.Lat(),
		MaxLon: bound.Max.Lon(),
	}
}
