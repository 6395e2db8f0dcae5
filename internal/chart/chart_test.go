package chart

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestParseSeries(t *testing.T) {
	tests := []struct {
		name       string
		labels     string
		values     string
		wantLabels []string
		wantValues []float64
	}{
		{"basic", "A, B ,C", "10,20,5", []string{"A", "B", "C"}, []float64{10, 20, 5}},
		{"empty labels dropped", "A,,B, ", "1,2", []string{"A", "B"}, []float64{1, 2}},
		{"non numeric is zero", "A,B", "x,3.5", []string{"A", "B"}, []float64{0, 3.5}},
		{"non finite is zero", "A,B,C,D", "NaN,inf,-Infinity,5", []string{"A", "B", "C", "D"}, []float64{0, 0, 0, 5}},
		{"missing values", "A,B,C", "7", []string{"A", "B", "C"}, []float64{7, 0, 0}},
		{"surplus values", "A", "1,2,3", []string{"A"}, []float64{1}},
		{"nothing", "", "", nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ParseSeries(tt.labels, tt.values)
			if len(s.Labels) != len(tt.wantLabels) {
				t.Fatalf("labels = %q, want %q", s.Labels, tt.wantLabels)
			}
			for i := range tt.wantLabels {
				if s.Labels[i] != tt.wantLabels[i] {
					t.Errorf("label %d = %q, want %q", i, s.Labels[i], tt.wantLabels[i])
				}
			}
			if len(s.Values) != len(tt.wantValues) {
				t.Fatalf("values = %v, want %v", s.Values, tt.wantValues)
			}
			for i := range tt.wantValues {
				if s.Values[i] != tt.wantValues[i] {
					t.Errorf("value %d = %v, want %v", i, s.Values[i], tt.wantValues[i])
				}
			}
			if err := s.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestParseSeriesCapsCategories(t *testing.T) {
	labels := make([]string, 40)
	values := make([]string, 40)
	for i := range labels {
		labels[i] = "L"
		values[i] = "1"
	}
	s := ParseSeries(strings.Join(labels, ","), strings.Join(values, ","))
	if s.Len() != MaxCategories || len(s.Values) != MaxCategories {
		t.Errorf("got %d labels %d values, want %d", s.Len(), len(s.Values), MaxCategories)
	}
}

func TestNiceMax(t *testing.T) {
	tests := []struct {
		max, want float64
	}{
		{0, 50},
		{10, 50},
		{45, 50},
		{60, 100},
		{100, 250},
		{180, 250},
		{900, 1000},
		{-5, 50},
	}
	for _, tt := range tests {
		if got := NiceMax(tt.max); got != tt.want {
			t.Errorf("NiceMax(%v) = %v, want %v", tt.max, got, tt.want)
		}
	}
}

func TestTicks(t *testing.T) {
	got := Ticks(50)
	want := []float64{0, 10, 20, 30, 40, 50}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ticks(50) = %v, want %v", got, want)
		}
	}
}

func TestBarPercentage(t *testing.T) {
	tests := []struct {
		width, panel, want float64
	}{
		{0.35, 88, 0.35},
		{0.5, 44, 1},
		{0.01, 88, 0.1},
		{0.44, 0, 0.44},
	}
	for _, tt := range tests {
		if got := BarPercentage(tt.width, tt.panel); abs(got-tt.want) > 1e-9 {
			t.Errorf("BarPercentage(%v, %v) = %v, want %v", tt.width, tt.panel, got, tt.want)
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#ff5a36")
	if err != nil {
		t.Fatal(err)
	}
	if c != (Color{R: 0xff, G: 0x5a, B: 0x36, A: 0xff}) {
		t.Errorf("got %v", c)
	}
	if c.String() != "#ff5a36" {
		t.Errorf("String = %s", c.String())
	}
	if c, _ := ParseColor("#fff"); c != (Color{255, 255, 255, 255}) {
		t.Errorf("short form = %v", c)
	}
	for _, bad := range []string{"", "#12", "#gggggg", "12345"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) accepted", bad)
		}
	}
}

func TestKindByName(t *testing.T) {
	for _, name := range []string{"bar-vertical", "bar-horizontal", "line"} {
		k, err := KindByName(name)
		if err != nil {
			t.Fatal(err)
		}
		if k.Name() != name {
			t.Errorf("KindByName(%q).Name() = %q", name, k.Name())
		}
	}
	if _, err := KindByName("pie"); err == nil {
		t.Error("pie accepted")
	}
}

func TestFormatter(t *testing.T) {
	f := NewFormatter("en", "%")
	if got := f.Format(1234); got != "1,234%" {
		t.Errorf("Format(1234) = %q", got)
	}
	if got := f.Format(12.5); got != "12.5%" {
		t.Errorf("Format(12.5) = %q", got)
	}
	if got := NewFormatter("not a locale!", "").Format(10); got != "10" {
		t.Errorf("fallback Format(10) = %q", got)
	}
}

func TestToggleHighlight(t *testing.T) {
	s := DefaultStyle()
	if !s.IsHighlighted(5) {
		t.Fatal("category 5 should be highlighted by default")
	}
	s.ToggleHighlight(5)
	s.ToggleHighlight(2)
	if s.IsHighlighted(5) || !s.IsHighlighted(2) {
		t.Errorf("highlighted = %v", s.Highlighted)
	}
	if s.BarColor(2) != s.Highlight || s.BarColor(0) != s.Primary {
		t.Error("BarColor does not follow highlight set")
	}
}

func TestMaskCoversInterior(t *testing.T) {
	m := Mask(RoundedRect(10, 10, 50, 30, Uniform(4)))
	if m == nil {
		t.Fatal("nil mask")
	}
	if a := m.AlphaAt(30, 20).A; a != 0xff {
		t.Errorf("centre alpha = %d", a)
	}
	if a := m.AlphaAt(10, 10).A; a > 0x40 {
		t.Errorf("rounded corner alpha = %d, want near 0", a)
	}
}

func newRenderer(t *testing.T) *Native {
	t.Helper()
	fonts, err := LoadFonts()
	if err != nil {
		t.Fatal(err)
	}
	return NewNative(fonts)
}

func TestNativeColumns(t *testing.T) {
	r := newRenderer(t)
	if _, err := r.CategoryPosition(0); err == nil {
		t.Fatal("expected error before render")
	}
	s := Series{Labels: []string{"A", "B", "C"}, Values: []float64{10, 20, 5}}
	if err := r.Configure(DefaultBar, s, DefaultStyle()); err != nil {
		t.Fatal(err)
	}
	dst := image.NewRGBA(image.Rect(0, 0, 960, 540))
	if err := r.Render(dst, s.Values, 0.5); err != nil {
		t.Fatal(err)
	}

	area := r.LayoutArea()
	if area.Empty() || !area.In(dst.Bounds()) {
		t.Fatalf("layout %v outside %v", area, dst.Bounds())
	}
	var pos [3]image.Point
	for i := range pos {
		p, err := r.CategoryPosition(i)
		if err != nil {
			t.Fatal(err)
		}
		pos[i] = p
	}
	if !(pos[0].X < pos[1].X && pos[1].X < pos[2].X) {
		t.Errorf("categories not left to right: %v", pos)
	}
	if !(pos[1].Y < pos[0].Y && pos[0].Y < pos[2].Y) {
		t.Errorf("bar tops do not follow values: %v", pos)
	}

	want := color.RGBAModel.Convert(DefaultStyle().Primary).(color.RGBA)
	p := pos[0]
	if got := dst.RGBAAt(p.X, p.Y+10); got != want {
		t.Errorf("bar pixel = %v, want %v", got, want)
	}
}

func TestNativeZeroValuesDrawNoBars(t *testing.T) {
	r := newRenderer(t)
	s := Series{Labels: []string{"A", "B"}, Values: []float64{10, 20}}
	r.Configure(DefaultBar, s, DefaultStyle())
	dst := image.NewRGBA(image.Rect(0, 0, 960, 540))
	if err := r.Render(dst, []float64{0, 0}, 0.5); err != nil {
		t.Fatal(err)
	}
	p, _ := r.CategoryPosition(0)
	if p.Y != r.LayoutArea().Max.Y {
		t.Errorf("zero bar anchor y = %d, want baseline %d", p.Y, r.LayoutArea().Max.Y)
	}
	if err := r.Render(dst, []float64{1}, 1); err == nil {
		t.Error("expected error for value count mismatch")
	}
}

func TestNativeHorizontalAndLine(t *testing.T) {
	s := Series{Labels: []string{"A", "B"}, Values: []float64{10, 40}}
	for _, name := range []string{"bar-horizontal", "line"} {
		t.Run(name, func(t *testing.T) {
			r := newRenderer(t)
			k, _ := KindByName(name)
			if err := r.Configure(k, s, DefaultStyle()); err != nil {
				t.Fatal(err)
			}
			dst := image.NewRGBA(image.Rect(0, 0, 960, 540))
			if err := r.Render(dst, s.Values, 0.5); err != nil {
				t.Fatal(err)
			}
			a, _ := r.CategoryPosition(0)
			b, _ := r.CategoryPosition(1)
			if name == "line" && !(b.Y < a.Y) {
				t.Errorf("line point for larger value not higher: %v %v", a, b)
			}
			if name == "bar-horizontal" && !(b.X > a.X && b.Y > a.Y) {
				t.Errorf("horizontal anchors unexpected: %v %v", a, b)
			}
		})
	}
}

func TestSmoothKeepsEndpoints(t *testing.T) {
	pts := []Pt{{0, 0}, {10, 5}, {20, 0}}
	out := Smooth(pts, 0.4, 8)
	if len(out) != 1+2*8 {
		t.Fatalf("got %d points", len(out))
	}
	if out[0] != pts[0] || out[len(out)-1] != pts[2] || out[8] != pts[1] {
		t.Errorf("curve does not pass through data points")
	}
	if got := Smooth(pts, 0, 8); len(got) != 3 {
		t.Errorf("zero tension should keep the polyline")
	}
}
