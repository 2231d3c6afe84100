package tile

import "testing"

func TestProfileString(t *testing.T) {
	tests := []struct {
		profile Profile
		want    string
	}{
		{ProfilePreview, "preview"},
		{ProfileCrisp, "crisp"},
		{Profile(9), "Unknown(9)"},
	}

	for _, tt := range tests {
		if got := tt.profile.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIDValueIdentity(t *testing.T) {
	a := ID{Page: 3, Col: 1, Row: 2, Zoom: 1, Rotation: 90, Profile: ProfileCrisp}
	b := ID{Page: 3, Col: 1, Row: 2, Zoom: 1, Rotation: 90, Profile: ProfileCrisp}

	if a != b {
		t.Error("identical IDs should compare equal")
	}

	m := map[ID]int{a: 1}
	if m[b] != 1 {
		t.Error("identical IDs should hash to the same map slot")
	}

	b.Profile = ProfilePreview
	if a == b {
		t.Error("IDs differing in profile should not compare equal")
	}
}

func TestIDBase(t *testing.T) {
	crisp := ID{Page: 1, Col: 2, Row: 3, Profile: ProfileCrisp}
	preview := ID{Page: 1, Col: 2, Row: 3, Profile: ProfilePreview}

	if crisp.Base() != preview.Base() {
		t.Error("Base should be identical for both profiles of one tile")
	}
	if crisp.Base().Profile != ProfilePreview {
		t.Errorf("Base profile = %v, want cleared", crisp.Base().Profile)
	}
	// Base must not mutate the receiver.
	if crisp.Profile != ProfileCrisp {
		t.Error("Base mutated its receiver")
	}
}

func TestIDString(t *testing.T) {
	id := ID{Page: 12, Col: 3, Row: 4, Zoom: 2, Rotation: 90, Profile: ProfileCrisp}
	want := "p12_c3_r4_z2_rot90_crisp"
	if got := id.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 0},
		{90, 90},
		{180, 180},
		{270, 270},
		{360, 0},
		{450, 90},
		{-90, 270},
		{-1, 270},
		{95, 90},
	}

	for _, tt := range tests {
		if got := NormalizeRotation(tt.in); got != tt.want {
			t.Errorf("NormalizeRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestGrid(t *testing.T) {
	tests := []struct {
		name     string
		w, h     float64
		zoom     int
		cols     int
		rows     int
	}{
		{"exact single tile", 256, 256, 0, 1, 1},
		{"one pixel over", 257, 256, 0, 2, 1},
		{"typical page", 1224, 1584, 0, 5, 7},
		{"zoomed in doubles", 256, 256, 1, 2, 2},
		{"zoomed out shrinks", 1024, 1024, -1, 2, 2},
		{"zero size", 0, 100, 0, 0, 0},
		{"negative size", -5, 100, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := Grid(tt.w, tt.h, tt.zoom)
			if cols != tt.cols || rows != tt.rows {
				t.Errorf("Grid(%v, %v, %d) = (%d, %d), want (%d, %d)",
					tt.w, tt.h, tt.zoom, cols, rows, tt.cols, tt.rows)
			}
		})
	}
}

func TestPixelRect(t *testing.T) {
	// A 300x300 page at zoom 0: tile (0,0) is full-size up to the page
	// edge, tile (1,1) is the 44x44 remainder.
	full := ID{Col: 0, Row: 0}.PixelRect(300, 300)
	if full.Dx() != Edge || full.Dy() != Edge {
		t.Errorf("full tile = %dx%d, want %dx%d", full.Dx(), full.Dy(), Edge, Edge)
	}

	edge := ID{Col: 1, Row: 1}.PixelRect(300, 300)
	if edge.Dx() != 44 || edge.Dy() != 44 {
		t.Errorf("edge tile = %dx%d, want 44x44", edge.Dx(), edge.Dy())
	}
}
