package overpass

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/NERVsystems/overpass/pkg/osm"
)

// Wire-format shapes for the Overpass JSON response. Fields the server may
// omit keep their zero value and are defaulted after decoding.

type wireCoordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type wireMember struct {
	Type     string           `json:"type"`
	Ref      int64            `json:"ref"`
	Role     string           `json:"role"`
	Geometry []wireCoordinate `json:"geometry"`
}

type wireElement struct {
	Type     string           `json:"type"`
	ID       int64            `json:"id"`
	Lat      float64          `json:"lat"`
	Lon      float64          `json:"lon"`
	Tags     wireTags         `json:"tags"`
	Nodes    []int64          `json:"nodes"`
	Geometry []wireCoordinate `json:"geometry"`
	Members  []wireMember     `json:"members"`
}

type wireResponse struct {
	Version   float64 `json:"version"`
	Generator string  `json:"generator"`
	OSM3S     struct {
		Timestamp string `json:"timestamp_osm_base"`
	} `json:"osm3s"`
	Elements []wireElement `json:"elements"`
}

// wireTags accepts any scalar tag values and coerces them to text. The
// server normally sends strings, but the mapping is tolerant by design.
type wireTags map[string]string

func (t *wireTags) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(wireTags, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	*t = out
	return nil
}

// ParseResponse converts an Overpass JSON body into the typed model. It is
// a pure transformation: element order is preserved, optional fields are
// defaulted (version 0.6, empty generator/timestamp, empty tag maps and
// geometry sequences), and an element whose type is missing or unknown
// aborts the whole parse with a *ParseError.
func ParseResponse(data []byte) (*Response, error) {
	env := wireResponse{Version: 0.6}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}

	resp := &Response{
		Version:   env.Version,
		Generator: env.Generator,
		Timestamp: env.OSM3S.Timestamp,
		Elements:  make([]osm.Element, 0, len(env.Elements)),
	}

	for i, el := range env.Elements {
		parsed, err := parseElement(i, el)
		if err != nil {
			return nil, err
		}
		resp.Elements = append(resp.Elements, parsed)
	}
	return resp, nil
}

func parseElement(index int, el wireElement) (osm.Element, error) {
	switch osm.ElementType(el.Type) {
	case osm.ElementTypeNode:
		return &osm.Node{
			ID:   el.ID,
			Lat:  el.Lat,
			Lon:  el.Lon,
			Tags: tags(el.Tags),
		}, nil
	case osm.ElementTypeWay:
		return &osm.Way{
			ID:       el.ID,
			Tags:     tags(el.Tags),
			Nodes:    el.Nodes,
			Geometry: coordinates(el.Geometry),
		}, nil
	case osm.ElementTypeRelation:
		members := make([]osm.Member, len(el.Members))
		for i, m := range el.Members {
			members[i] = osm.Member{
				Type:     m.Type,
				Ref:      m.Ref,
				Role:     m.Role,
				Geometry: coordinates(m.Geometry),
			}
		}
		return &osm.Relation{
			ID:      el.ID,
			Tags:    tags(el.Tags),
			Members: members,
		}, nil
	default:
		return nil, &ParseError{Index: index, Type: el.Type}
	}
}

func tags(t wireTags) osm.Tags {
	if t == nil {
		return osm.Tags{}
	}
	return osm.Tags(t)
}

func coordinates(coords []wireCoordinate) []osm.Coordinate {
	if len(coords) == 0 {
		return nil
	}
	out := make([]osm.Coordinate, len(coords))
	for i, c := range coords {
		out[i] = osm.Coordinate{Lat: c.Lat, Lon: c.Lon}
	}
	return out
}
