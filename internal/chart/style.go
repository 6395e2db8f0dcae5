package chart

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// DefaultPanelWidth is the stock panel width in percent of the frame.
const DefaultPanelWidth = 88.0

// Color is an sRGB colour written as #rrggbb or #rrggbbaa in documents.
type Color color.RGBA

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return color.RGBA(c).RGBA() }

func (c Color) String() string {
	n := color.NRGBAModel.Convert(color.RGBA(c)).(color.NRGBA)
	if n.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor reads #rgb, #rrggbb or #rrggbbaa.
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	n := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return Color(color.RGBAModel.Convert(n).(color.RGBA)), nil
}

func mustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// AxisMode selects what sits under each category.
type AxisMode string

const (
	AxisText  AxisMode = "text"
	AxisLogos AxisMode = "logos"
)

// Anchor places the panel horizontally.
type Anchor string

const (
	AnchorCenter Anchor = "center"
	AnchorLeft   Anchor = "left"
	AnchorRight  Anchor = "right"
)

// Style is the visual configuration of the chart panel. Lengths are in
// 1920x1080 units and scaled at render time.
type Style struct {
	Primary   Color `yaml:"primary"`
	Secondary Color `yaml:"secondary"`
	Highlight Color `yaml:"highlight"`
	Text      Color `yaml:"text"`
	Grid      Color `yaml:"grid"`

	Highlighted []int `yaml:"highlighted"`

	PanelWidth  float64  `yaml:"panel_width"`
	Anchor      Anchor   `yaml:"anchor"`
	AxisMode    AxisMode `yaml:"axis_mode"`
	TickSuffix  string   `yaml:"tick_suffix"`
	ValueLabels bool     `yaml:"value_labels"`
	Locale      string   `yaml:"locale"`
}

// DefaultStyle returns the stock look.
func DefaultStyle() Style {
	return Style{
		Primary:     mustColor("#15103a"),
		Secondary:   mustColor("#c9c2f8"),
		Highlight:   mustColor("#ff5a36"),
		Text:        mustColor("#000000"),
		Grid:        Color{A: 38},
		Highlighted: []int{5},
		PanelWidth:  DefaultPanelWidth,
		Anchor:      AnchorCenter,
		AxisMode:    AxisText,
		TickSuffix:  "%",
		Locale:      "en",
	}
}

// Normalize fills zero fields with defaults and clamps the panel width.
func (s *Style) Normalize() {
	def := DefaultStyle()
	if s.Primary == (Color{}) {
		s.Primary = def.Primary
	}
	if s.Secondary == (Color{}) {
		s.Secondary = def.Secondary
	}
	if s.Highlight == (Color{}) {
		s.Highlight = def.Highlight
	}
	if s.Text == (Color{}) {
		s.Text = def.Text
	}
	if s.Grid == (Color{}) {
		s.Grid = def.Grid
	}
	if s.PanelWidth <= 0 {
		s.PanelWidth = def.PanelWidth
	}
	if s.PanelWidth > 100 {
		s.PanelWidth = 100
	}
	switch s.Anchor {
	case AnchorLeft, AnchorRight, AnchorCenter:
	default:
		s.Anchor = AnchorCenter
	}
	if s.AxisMode != AxisLogos {
		s.AxisMode = AxisText
	}
	if s.Locale == "" {
		s.Locale = def.Locale
	}
}

// IsHighlighted reports whether category i uses the highlight colour.
func (s Style) IsHighlighted(i int) bool {
	for _, h := range s.Highlighted {
		if h == i {
			return true
		}
	}
	return false
}

// BarColor is the fill of category i.
func (s Style) BarColor(i int) Color {
	if s.IsHighlighted(i) {
		return s.Highlight
	}
	return s.Primary
}

// ToggleHighlight flips category i in or out of the highlighted set.
func (s *Style) ToggleHighlight(i int) {
	for k, h := range s.Highlighted {
		if h == i {
			s.Highlighted = append(s.Highlighted[:k], s.Highlighted[k+1:]...)
			return
		}
	}
	s.Highlighted = append(s.Highlighted, i)
}
