// Package overpass is a client for the Overpass API, a read-only query
// service over OpenStreetMap data. It parses Overpass JSON responses into
// the typed model of pkg/osm and dispatches queries, raw or built with
// pkg/oql, over HTTP.
package overpass

import "github.com/NERVsystems/overpass/pkg/osm"

// Response is the envelope of an Overpass API reply. Elements keeps the
// server's ordering.
type Response struct {
	Version   float64
	Generator string
	Timestamp string
	Elements  []osm.Element
}

// Len returns the number of elements in the response.
func (r *Response) Len() int {
	return len(r.Elements)
}

// Nodes returns the node elements in response order.
func (r *Response) Nodes() []*osm.Node {
	var out []*osm.Node
	for _, e := range r.Elements {
		if n, ok := e.(*osm.Node); ok {
			out = append(out, n)
		}
	}
	return out
}

// Ways returns the way elements in response order.
func (r *Response) Ways() []*osm.Way {
	var out []*osm.Way
	for _, e := range r.Elements {
		if w, ok := e.(*osm.Way); ok {
			out = append(out, w)
		}
	}
	return out
}

// Relations returns the relation elements in response order.
func (r *Response) Relations() []*osm.Relation {
	var out []*osm.Relation
	for _, e := range r.Elements {
		if rel, ok := e.(*osm.Relation); ok {
			out = append(out, rel)
		}
	}
	return out
}
