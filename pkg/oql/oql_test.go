package oql

import "testing"

func TestStatementRendering(t *testing.T) {
	tests := []struct {
		name string
		stmt Statement
		want string
	}{
		{
			name: "bare selector",
			stmt: Node(),
			want: "node",
		},
		{
			name: "equals filter",
			stmt: Node().Filter("amenity", "cafe"),
			want: "node[amenity=cafe]",
		},
		{
			name: "exists filter",
			stmt: Way().Filter("building"),
			want: "way[building]",
		},
		{
			name: "chained filters",
			stmt: Node().Filter("amenity", "cafe").Filter("cuisine", "coffee"),
			want: "node[amenity=cafe][cuisine=coffee]",
		},
		{
			name: "regex filter",
			stmt: Node().Match("name", "^Star"),
			want: "node[name~\"^Star\"]",
		},
		{
			name: "case-insensitive regex filter",
			stmt: Node().MatchFold("name", "^starbucks"),
			want: "node[name~\"^starbucks\",i]",
		},
		{
			name: "relation selector",
			stmt: Relation().Filter("type", "multipolygon"),
			want: "relation[type=multipolygon]",
		},
		{
			name: "rel short keyword",
			stmt: Rel().Filter("route", "bus"),
			want: "rel[route=bus]",
		},
		{
			name: "nwr selector",
			stmt: NWR().Filter("amenity", "drinking_water"),
			want: "nwr[amenity=drinking_water]",
		},
		{
			name: "multiple values become regex alternation",
			stmt: Node().Filter("amenity", "cafe", "bar", "pub"),
			want: "node[amenity~\"cafe|bar|pub\"]",
		},
		{
			name: "value inserted verbatim",
			stmt: Node().Filter("name", "Caffè \"Nero\""),
			want: "node[name=Caffè \"Nero\"]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stmt.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilterAllOrder(t *testing.T) {
	stmt := Way().FilterAll(
		Tag("highway", "residential"),
		Key("name"),
		RegexFold("surface", "^asph"),
	)
	want := "way[highway=residential][name][surface~\"^asph\",i]"
	if got := stmt.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStatementImmutability(t *testing.T) {
	base := Node().Filter("amenity", "cafe")

	a := base.Filter("cuisine", "coffee")
	c := base.Filter("outdoor_seating", "yes")

	if got, want := base.String(), "node[amenity=cafe]"; got != want {
		t.Errorf("base changed after branching: got %q, want %q", got, want)
	}
	if got, want := a.String(), "node[amenity=cafe][cuisine=coffee]"; got != want {
		t.Errorf("branch a = %q, want %q", got, want)
	}
	if got, want := c.String(), "node[amenity=cafe][outdoor_seating=yes]"; got != want {
		t.Errorf("branch c = %q, want %q", got, want)
	}
}

// Branching twice from the same prefix must not alias the underlying
// filter storage between the branches.
func TestStatementBranchIsolation(t *testing.T) {
	base := Way().Filter("building")

	a := base.Filter("levels", "2")
	b := base.Match("name", "tower")
	_ = a

	if got, want := b.String(), "way[building][name~\"tower\"]"; got != want {
		t.Errorf("branch b = %q, want %q", got, want)
	}
	if got, want := a.String(), "way[building][levels=2]"; got != want {
		t.Errorf("branch a = %q, want %q", got, want)
	}
}

func TestStringIsDisplayRepresentation(t *testing.T) {
	stmt := Node().Filter("shop", "bakery")
	if stmt.String() != "node[shop=bakery]" {
		t.Errorf("display rendering diverged: %q", stmt.String())
	}
}
