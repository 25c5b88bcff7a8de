// Package osm defines the typed model for OpenStreetMap elements as
// returned by the Overpass API: nodes, ways, relations and relation
// members, together with tag and geometry accessors.
//
// All values are built once by the response parser and are immutable
// afterwards, so sharing them between goroutines needs no locking.
package osm

// ElementType identifies the kind of an OSM element.
type ElementType string

// Possible element kinds.
const (
	ElementTypeNode     ElementType = "node"
	ElementTypeWay      ElementType = "way"
	ElementTypeRelation ElementType = "relation"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Node is a single OSM point feature.
type Node struct {
	ID   int64
	Lat  float64
	Lon  float64
	Tags Tags
}

// Coordinate returns the node's position.
func (n *Node) Coordinate() Coordinate {
	return Coordinate{Lat: n.Lat, Lon: n.Lon}
}

// Way is an ordered list of node references, optionally with resolved
// geometry. Nodes holds the referenced node IDs and may be empty when the
// query did not ask for them. Geometry is populated only when the query
// requested geometry output; an empty Geometry means "no geometry data",
// which is not distinguishable from a server-sent empty list.
type Way struct {
	ID       int64
	Tags     Tags
	Nodes    []int64
	Geometry []Coordinate
}

// Member is a reference from a relation to another element. Type is kept
// as the server sent it and is not validated against the known kinds.
// Geometry is present only when requested, same as for Way.
type Member struct {
	Type     string
	Ref      int64
	Role     string
	Geometry []Coordinate
}

// Relation groups members under ordered roles. Member order is
// semantically meaningful (outer/inner ring ordering for multipolygons)
// and is preserved exactly as returned.
type Relation struct {
	ID      int64
	Tags    Tags
	Members []Member
}

// Element is the tagged union over Node, Way and Relation. Only the three
// types in this package implement it.
type Element interface {
	ElementType() ElementType
	ElementID() int64
	ElementTags() Tags
}

func (n *Node) ElementType() ElementType { return ElementTypeNode }
func (n *Node) ElementID() int64         { return n.ID }
func (n *Node) ElementTags() Tags        { return n.Tags }

func (w *Way) ElementType() ElementType { return ElementTypeWay }
func (w *Way) ElementID() int64         { return w.ID }
func (w *Way) ElementTags() Tags        { return w.Tags }

func (r *Relation) ElementType() ElementType { return ElementTypeRelation }
func (r *Relation) ElementID() int64         { return r.ID }
func (r *Relation) ElementTags() Tags        { return r.Tags }
