package osm

import (
	"fmt"

	"github.com/paulmach/orb"
)

// MissingGeometryError reports a geometry-dependent operation on a way or
// member whose geometry was not requested from the server. It is distinct
// from a structurally valid lookup that happens to match nothing.
type MissingGeometryError struct {
	Kind ElementType
	ID   int64
}

func (e *MissingGeometryError) Error() string {
	return fmt.Sprintf("%s %d has no geometry data; request the query with geometry output", e.Kind, e.ID)
}

// Point returns the coordinate as an orb point (lon, lat order).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// Point returns the node's position as an orb point.
func (n *Node) Point() orb.Point {
	return orb.Point{n.Lon, n.Lat}
}

func lineString(coords []Coordinate) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = c.Point()
	}
	return ls
}

// LineString converts the way's geometry to an orb line string. It fails
// with *MissingGeometryError when no geometry was returned for the way.
func (w *Way) LineString() (orb.LineString, error) {
	if len(w.Geometry) == 0 {
		return nil, &MissingGeometryError{Kind: ElementTypeWay, ID: w.ID}
	}
	return lineString(w.Geometry), nil
}

// Bound returns the bounding extent of the way's geometry. It fails with
// *MissingGeometryError when no geometry was returned for the way.
func (w *Way) Bound() (orb.Bound, error) {
	ls, err := w.LineString()
	if err != nil {
		return orb.Bound{}, err
	}
	return ls.Bound(), nil
}

// LineString converts the member's geometry to an orb line string. It
// fails with *MissingGeometryError when no geometry was returned for the
// member.
func (m *Member) LineString() (orb.LineString, error) {
	if len(m.Geometry) == 0 {
		return nil, &MissingGeometryError{Kind: ElementType(m.Type), ID: m.Ref}
	}
	return lineString(m.Geometry), nil
}

// Bound returns the bounding extent of the member's geometry. It fails
// with *MissingGeometryError when no geometry was returned for the member.
func (m *Member) Bound() (orb.Bound, error) {
	ls, err := m.LineString()
	if err != nil {
		return orb.Bound{}, err
	}
	return ls.Bound(), nil
}
