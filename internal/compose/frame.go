// Package compose turns the overview's state into an ordered list of draw
// operations. It does no drawing itself; the X11 painter executes frames.
package compose

import (
	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/hittest"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// Colors, as 0xRRGGBB.
const (
	ColorBackground     = 0x101418
	ColorDim            = 0x000000
	ColorBorder         = 0x444444
	ColorHover          = 0x4488ff
	ColorBar            = 0x1a1a1a
	ColorPreview        = 0x2a2a2a
	ColorPreviewCurrent = 0x3a3a3a
	ColorAddButton      = 0x2a2a2a
	ColorAddGlyph       = 0xcccccc
	ColorPlaceholder    = 0x23282e
	ColorTitleText      = 0xf5f7fa
	ColorTitleBg        = 0x1f2933
	ColorHintText       = 0xf5f7fa
	ColorHintBg         = 0x1f2933
)

const (
	BorderWidth      = 1
	HoverBorderWidth = 3
	PreviewHighlight = 2
	DefaultMaxScale  = tiling.DefaultMaxScale

	// Wallpaper is darkened so thumbnails stand out.
	DimAlpha = 0x99

	// CharWidth and LineHeight approximate the core "fixed" font.
	CharWidth  = 7
	LineHeight = 16
	titleGap   = 4
	titlePadX  = 4
)

// OpKind selects what an Op draws.
type OpKind int

const (
	// OpFill fills Rect with Color at Alpha.
	OpFill OpKind = iota
	// OpWallpaper draws the root background scaled into Rect.
	OpWallpaper
	// OpThumbnail draws Slot's captured contents scaled into Rect.
	OpThumbnail
	// OpOutline strokes Rect's inner edge Width pixels wide.
	OpOutline
	// OpText draws Text with its top-left at Rect's origin on Background.
	OpText
)

// String returns the string representation of the op kind
func (k OpKind) String() string {
	switch k {
	case OpFill:
		return "fill"
	case OpWallpaper:
		return "wallpaper"
	case OpThumbnail:
		return "thumbnail"
	case OpOutline:
		return "outline"
	case OpText:
		return "text"
	default:
		return "unknown"
	}
}

// Op is one draw operation.
type Op struct {
	Kind       OpKind
	Rect       tiling.Rect
	Color      uint32
	Background uint32
	Alpha      uint8
	Width      int
	Slot       int
	Text       string
}

// Frame is everything needed to paint the overview once.
type Frame struct {
	Width  int
	Height int
	Ops    []Op
}

// Content describes what can be drawn for each slot.
type Content interface {
	// Size returns the captured content size; ok is false when slot has no
	// surface yet.
	Size(slot int) (width, height int, ok bool)
	Title(slot int) string
}

// Scene is the input to Build.
type Scene struct {
	Screen  tiling.Rect
	Content Content

	// Cells are the grid cells as currently laid out, in paint order.
	Cells []hittest.Target
	// Floating is the dragged or flying thumbnail, drawn above everything
	// but the hint panel. Its Rect is the thumbnail itself, not a cell.
	Floating *hittest.Target
	// Zoom is a desktop preview growing to the screen. It covers the
	// whole frame and hides the hint panel.
	Zoom *Zoom

	Hover           int
	HasHover        bool
	HoverDesktop    int
	HasHoverDesktop bool

	Bar *deskbar.Bar

	Wallpaper  bool
	ShowTitles bool
	Hints      []string
	MaxScale   float64
}

// Zoom is a desktop preview drawn at Rect instead of its bar bounds.
type Zoom struct {
	Preview deskbar.Preview
	Rect    tiling.Rect
}

// Build produces the frame for scene. Operations are ordered back to front.
func Build(s Scene) Frame {
	if s.MaxScale <= 0 {
		s.MaxScale = DefaultMaxScale
	}
	f := Frame{Width: s.Screen.Width, Height: s.Screen.Height}

	f.background(s)

	thumbs := make([]tiling.Rect, len(s.Cells))
	for i, c := range s.Cells {
		thumbs[i] = f.thumbnail(s, c.Slot, c.Rect)
	}
	for i, c := range s.Cells {
		if s.HasHover && s.Hover == c.Slot {
			continue
		}
		f.outline(thumbs[i], ColorBorder, BorderWidth)
	}
	for i, c := range s.Cells {
		if s.HasHover && s.Hover == c.Slot {
			f.outline(thumbs[i], ColorHover, HoverBorderWidth)
		}
	}
	if s.ShowTitles && s.Content != nil {
		for i, c := range s.Cells {
			f.title(s.Content.Title(c.Slot), c.Rect, thumbs[i])
		}
	}

	f.bar(s)

	if s.Floating != nil {
		f.content(s, s.Floating.Slot, s.Floating.Rect)
		f.outline(s.Floating.Rect, ColorHover, HoverBorderWidth)
	}

	if s.Zoom != nil {
		f.zoom(s, *s.Zoom)
		return f
	}
	f.hints(s, thumbs)
	return f
}

func (f *Frame) add(op Op) {
	f.Ops = append(f.Ops, op)
}

func (f *Frame) fill(r tiling.Rect, color uint32) {
	if r.Empty() {
		return
	}
	f.add(Op{Kind: OpFill, Rect: r, Color: color, Alpha: 0xff})
}

func (f *Frame) outline(r tiling.Rect, color uint32, width int) {
	if r.Empty() || width <= 0 {
		return
	}
	f.add(Op{Kind: OpOutline, Rect: r, Color: color, Alpha: 0xff, Width: width})
}

func (f *Frame) background(s Scene) {
	if s.Wallpaper {
		f.add(Op{Kind: OpWallpaper, Rect: s.Screen})
		f.add(Op{Kind: OpFill, Rect: s.Screen, Color: ColorDim, Alpha: DimAlpha})
		return
	}
	f.fill(s.Screen, ColorBackground)
}

// thumbnail draws slot aspect-fitted into cell and returns the drawn rect.
func (f *Frame) thumbnail(s Scene, slot int, cell tiling.Rect) tiling.Rect {
	if s.Content != nil {
		if w, h, ok := s.Content.Size(slot); ok {
			r := tiling.FitAspect(cell, w, h, s.MaxScale)
			if !r.Empty() {
				f.add(Op{Kind: OpThumbnail, Rect: r, Slot: slot})
			}
			return r
		}
	}
	r := tiling.FitAspect(cell, s.Screen.Width, s.Screen.Height, s.MaxScale)
	f.fill(r, ColorPlaceholder)
	return r
}

// content draws slot stretched to exactly r.
func (f *Frame) content(s Scene, slot int, r tiling.Rect) {
	if r.Empty() {
		return
	}
	if s.Content != nil {
		if _, _, ok := s.Content.Size(slot); ok {
			f.add(Op{Kind: OpThumbnail, Rect: r, Slot: slot})
			return
		}
	}
	f.fill(r, ColorPlaceholder)
}

// title centers a one-line label under thumb, inside cell when there is no
// room below.
func (f *Frame) title(text string, cell, thumb tiling.Rect) {
	if text == "" || thumb.Empty() {
		return
	}
	maxChars := (cell.Width - 2*titlePadX) / CharWidth
	text = truncate(text, maxChars)
	if text == "" {
		return
	}

	w := len(text)*CharWidth + 2*titlePadX
	h := LineHeight + 2
	y := thumb.Bottom() + titleGap
	if y+h > cell.Bottom() {
		y = thumb.Bottom() - h
	}
	cx, _ := thumb.Center()
	r := tiling.Rect{X: cx - w/2, Y: y, Width: w, Height: h}

	f.fill(r, ColorTitleBg)
	f.add(Op{
		Kind:       OpText,
		Rect:       tiling.Rect{X: r.X + titlePadX, Y: r.Y + 1, Width: w - 2*titlePadX, Height: LineHeight},
		Color:      ColorTitleText,
		Background: ColorTitleBg,
		Alpha:      0xff,
		Text:       text,
	})
}

// truncate shortens s to at most n bytes of printable ASCII, marking the cut
// with "...". Core fonts only cover Latin-1, so other runes become '?'.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			r = '?'
		}
		b = append(b, byte(r))
	}
	if len(b) <= n {
		return string(b)
	}
	if n <= 3 {
		return string(b[:n])
	}
	return string(b[:n-3]) + "..."
}

func (f *Frame) bar(s Scene) {
	b := s.Bar
	if b == nil {
		return
	}
	f.fill(b.Bounds, ColorBar)

	for i, p := range b.Previews {
		bg := uint32(ColorPreview)
		if p.IsCurrent {
			bg = ColorPreviewCurrent
		}
		f.fill(p.Bounds, bg)
		if s.Wallpaper {
			inner := p.Bounds
			if p.IsCurrent {
				inner = inner.Inset(PreviewHighlight)
			}
			if !inner.Empty() {
				f.add(Op{Kind: OpWallpaper, Rect: inner})
			}
		}

		for _, m := range p.Minis {
			f.mini(s, m)
		}

		if s.HasHoverDesktop && s.HoverDesktop == b.Previews[i].Desktop {
			f.outline(p.Bounds, ColorHover, PreviewHighlight)
		}
	}

	f.addButton(b.AddButton)
}

func (f *Frame) mini(s Scene, m deskbar.Mini) {
	if m.Rect.Empty() {
		return
	}
	f.content(s, m.Slot, m.Rect)
	f.outline(m.Rect, ColorBorder, BorderWidth)
}

// zoom draws z.Preview scaled from its bar bounds to z.Rect.
func (f *Frame) zoom(s Scene, z Zoom) {
	if z.Rect.Empty() {
		return
	}
	bg := uint32(ColorPreview)
	if z.Preview.IsCurrent {
		bg = ColorPreviewCurrent
	}
	f.fill(z.Rect, bg)
	if s.Wallpaper {
		f.add(Op{Kind: OpWallpaper, Rect: z.Rect})
	}
	for _, m := range z.Preview.Minis {
		f.mini(s, deskbar.Mini{Slot: m.Slot, Rect: deskbar.MiniRect(z.Preview.Bounds, z.Rect, m.Rect)})
	}
}

func (f *Frame) addButton(r tiling.Rect) {
	if r.Empty() {
		return
	}
	f.fill(r, ColorAddButton)
	f.outline(r, ColorBorder, BorderWidth)

	cx, cy := r.Center()
	arm := r.Width * 2 / 5
	const thick = 2
	f.fill(tiling.Rect{X: cx - arm/2, Y: cy - thick/2, Width: arm, Height: thick}, ColorAddGlyph)
	f.fill(tiling.Rect{X: cx - thick/2, Y: cy - arm/2, Width: thick, Height: arm}, ColorAddGlyph)
}
