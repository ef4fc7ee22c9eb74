package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xcursor"

	"github.com/1broseidon/xoverview/internal/capture"
	"github.com/1broseidon/xoverview/internal/compose"
	"github.com/1broseidon/xoverview/internal/logging"
	"github.com/1broseidon/xoverview/internal/tiling"
)

// Surfaces resolves a slot to its captured picture.
type Surfaces interface {
	Surface(slot int) (capture.Surface, bool)
}

// Painter owns the fullscreen overlay window and executes compose frames
// into it through an off-screen buffer.
type Painter struct {
	c *Connection

	Window xproto.Window
	width  int
	height int

	buffer    xproto.Pixmap
	bufferPic render.Picture
	gc        xproto.Gcontext
	font      xproto.Font
	cursor    xproto.Cursor

	wallpaper    render.Picture
	wallpaperPix xproto.Pixmap
	wallW, wallH int
}

const overlayEvents = xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskKeyPress |
	xproto.EventMaskExposure

// NewPainter creates and maps an override-redirect window covering the
// screen. RequireCompositing must have succeeded on c.
func NewPainter(c *Connection) (*Painter, error) {
	conn := c.XUtil.Conn()
	screen := c.XUtil.Screen()
	p := &Painter{
		c:      c,
		width:  int(screen.WidthInPixels),
		height: int(screen.HeightInPixels),
	}

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}
	// Value list order follows the mask bits: back_pixel, override_redirect, event_mask.
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		c.Root,
		0, 0,
		uint16(p.width), uint16(p.height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{compose.ColorBackground, 1, overlayEvents},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("failed to create overlay window: %w", err)
	}
	p.Window = wid

	if err := p.createBuffer(); err != nil {
		p.Destroy()
		return nil, err
	}
	p.openFont()

	if cur, err := xcursor.CreateCursor(c.XUtil, xcursor.LeftPtr); err == nil {
		p.cursor = cur
		xproto.ChangeWindowAttributes(conn, wid, xproto.CwCursor, []uint32{uint32(cur)})
	}

	xproto.MapWindow(conn, wid)
	xproto.ConfigureWindow(conn, wid, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	return p, nil
}

func (p *Painter) createBuffer() error {
	conn := p.c.XUtil.Conn()
	screen := p.c.XUtil.Screen()

	pix, err := xproto.NewPixmapId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreatePixmapChecked(conn, screen.RootDepth, pix,
		xproto.Drawable(p.Window), uint16(p.width), uint16(p.height)).Check()
	if err != nil {
		return fmt.Errorf("failed to create back buffer: %w", err)
	}
	p.buffer = pix

	format, err := p.c.formats.lookup(screen.RootVisual, screen.RootDepth)
	if err != nil {
		return err
	}
	pic, err := NewCompositor(p.c).picture(xproto.Drawable(pix), format)
	if err != nil {
		return fmt.Errorf("failed to create back buffer picture: %w", err)
	}
	p.bufferPic = pic

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		return err
	}
	err = xproto.CreateGCChecked(conn, gc, xproto.Drawable(pix),
		xproto.GcForeground|xproto.GcBackground|xproto.GcGraphicsExposures,
		[]uint32{compose.ColorTitleText, compose.ColorTitleBg, 0},
	).Check()
	if err != nil {
		return fmt.Errorf("failed to create graphics context: %w", err)
	}
	p.gc = gc
	return nil
}

// openFont loads the first available core font. Text ops are skipped when
// none can be opened.
func (p *Painter) openFont() {
	conn := p.c.XUtil.Conn()
	font, err := xproto.NewFontId(conn)
	if err != nil {
		return
	}
	for _, name := range []string{"fixed", "9x15", "8x13", "6x13"} {
		if xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check() == nil {
			p.font = font
			xproto.ChangeGC(conn, p.gc, xproto.GcFont, []uint32{uint32(font)})
			return
		}
	}
	logging.WithComponent("x11").Warn().Msg("no core font available; titles disabled")
}

// SetWallpaper points wallpaper ops at the root background pixmap. A zero
// pixmap disables them.
func (p *Painter) SetWallpaper(pix xproto.Pixmap) error {
	if pix == p.wallpaperPix && p.wallpaper != 0 {
		return nil
	}
	p.releaseWallpaper()
	if pix == 0 {
		return nil
	}

	conn := p.c.XUtil.Conn()
	geom, err := xproto.GetGeometry(conn, xproto.Drawable(pix)).Reply()
	if err != nil {
		return fmt.Errorf("wallpaper pixmap 0x%x: %w", pix, err)
	}
	format, ok := p.c.formats.byDepth[geom.Depth]
	if !ok {
		screen := p.c.XUtil.Screen()
		if format, err = p.c.formats.lookup(screen.RootVisual, geom.Depth); err != nil {
			return err
		}
	}
	pic, err := NewCompositor(p.c).picture(xproto.Drawable(pix), format)
	if err != nil {
		return err
	}

	p.wallpaper = pic
	p.wallpaperPix = pix
	p.wallW, p.wallH = int(geom.Width), int(geom.Height)
	return nil
}

// HasWallpaper reports whether wallpaper ops can be drawn.
func (p *Painter) HasWallpaper() bool { return p.wallpaper != 0 }

func (p *Painter) releaseWallpaper() {
	if p.wallpaper != 0 {
		render.FreePicture(p.c.XUtil.Conn(), p.wallpaper)
	}
	p.wallpaper = 0
	p.wallpaperPix = 0
	p.wallW, p.wallH = 0, 0
}

// Paint executes f into the back buffer and copies it to the window.
func (p *Painter) Paint(f compose.Frame, surfaces Surfaces) {
	for _, op := range f.Ops {
		switch op.Kind {
		case compose.OpFill:
			p.fill(op.Rect, op.Color, op.Alpha)
		case compose.OpOutline:
			for _, edge := range outlineEdges(op.Rect, op.Width) {
				p.fill(edge, op.Color, op.Alpha)
			}
		case compose.OpWallpaper:
			if p.wallpaper != 0 {
				p.scaled(p.wallpaper, p.wallW, p.wallH, op.Rect, render.PictOpSrc)
			}
		case compose.OpThumbnail:
			if s, ok := surfaces.Surface(op.Slot); ok && s.Valid() {
				p.scaled(render.Picture(s.Picture), s.Width, s.Height, op.Rect, render.PictOpOver)
			} else {
				p.fill(op.Rect, compose.ColorPlaceholder, 0xff)
			}
		case compose.OpText:
			p.text(op)
		}
	}
	p.present()
}

func (p *Painter) present() {
	conn := p.c.XUtil.Conn()
	xproto.CopyArea(conn, xproto.Drawable(p.buffer), xproto.Drawable(p.Window), p.gc,
		0, 0, 0, 0, uint16(p.width), uint16(p.height))
	xproto.GetInputFocus(conn).Reply()
}

// Expose repaints the window from the last frame in the buffer.
func (p *Painter) Expose() {
	p.present()
}

func (p *Painter) fill(r tiling.Rect, rgb uint32, alpha uint8) {
	r = clipRect(r, p.width, p.height)
	if r.Empty() {
		return
	}
	op := byte(render.PictOpSrc)
	if alpha < 0xff {
		op = render.PictOpOver
	}
	render.FillRectangles(p.c.XUtil.Conn(), op, p.bufferPic, renderColor(rgb, alpha),
		[]xproto.Rectangle{{
			X:      int16(r.X),
			Y:      int16(r.Y),
			Width:  uint16(r.Width),
			Height: uint16(r.Height),
		}})
}

// scaled composites a srcW x srcH picture stretched over dst.
func (p *Painter) scaled(src render.Picture, srcW, srcH int, dst tiling.Rect, op byte) {
	if srcW <= 0 || srcH <= 0 || dst.Empty() {
		return
	}
	conn := p.c.XUtil.Conn()
	render.SetPictureTransform(conn, src, scaleTransform(srcW, srcH, dst.Width, dst.Height))
	render.Composite(conn, op, src, 0, p.bufferPic,
		0, 0, 0, 0,
		int16(dst.X), int16(dst.Y), uint16(dst.Width), uint16(dst.Height))
}

func (p *Painter) text(op compose.Op) {
	if p.font == 0 || op.Text == "" {
		return
	}
	text := op.Text
	if len(text) > 255 {
		text = text[:255]
	}
	conn := p.c.XUtil.Conn()
	xproto.ChangeGC(conn, p.gc, xproto.GcForeground|xproto.GcBackground,
		[]uint32{op.Color, op.Background})
	xproto.ImageText8(conn, byte(len(text)), xproto.Drawable(p.buffer), p.gc,
		int16(op.Rect.X), int16(op.Rect.Y+compose.LineHeight-4), text)
}

// Destroy frees every server resource the painter created.
func (p *Painter) Destroy() {
	conn := p.c.XUtil.Conn()
	p.releaseWallpaper()
	if p.bufferPic != 0 {
		render.FreePicture(conn, p.bufferPic)
	}
	if p.gc != 0 {
		xproto.FreeGC(conn, p.gc)
	}
	if p.font != 0 {
		xproto.CloseFont(conn, p.font)
	}
	if p.buffer != 0 {
		xproto.FreePixmap(conn, p.buffer)
	}
	if p.cursor != 0 {
		xproto.FreeCursor(conn, p.cursor)
	}
	if p.Window != 0 {
		xproto.DestroyWindow(conn, p.Window)
	}
	*p = Painter{c: p.c}
}

// fixedOne is 1.0 in XRender's 16.16 fixed point.
const fixedOne = 1 << 16

// scaleTransform maps destination pixels back to source pixels.
func scaleTransform(srcW, srcH, dstW, dstH int) render.Transform {
	return render.Transform{
		Matrix11: render.Fixed(int64(srcW) * fixedOne / int64(dstW)),
		Matrix22: render.Fixed(int64(srcH) * fixedOne / int64(dstH)),
		Matrix33: fixedOne,
	}
}

// renderColor converts 0xRRGGBB and an 8-bit alpha into XRender's
// premultiplied 16-bit color.
func renderColor(rgb uint32, alpha uint8) render.Color {
	channel := func(v uint32) uint16 {
		return uint16(v * 0x101 * uint32(alpha) / 0xff)
	}
	return render.Color{
		Red:   channel(rgb >> 16 & 0xff),
		Green: channel(rgb >> 8 & 0xff),
		Blue:  channel(rgb & 0xff),
		Alpha: uint16(alpha) * 0x101,
	}
}

// outlineEdges returns the four strips covering r's inner edge.
func outlineEdges(r tiling.Rect, width int) []tiling.Rect {
	if r.Empty() || width <= 0 {
		return nil
	}
	width = min(width, r.Width/2+r.Width%2, r.Height/2+r.Height%2)
	inner := r.Height - 2*width
	edges := []tiling.Rect{
		{X: r.X, Y: r.Y, Width: r.Width, Height: width},
		{X: r.X, Y: r.Bottom() - width, Width: r.Width, Height: width},
	}
	if inner > 0 {
		edges = append(edges,
			tiling.Rect{X: r.X, Y: r.Y + width, Width: width, Height: inner},
			tiling.Rect{X: r.Right() - width, Y: r.Y + width, Width: width, Height: inner},
		)
	}
	return edges
}

func clipRect(r tiling.Rect, width, height int) tiling.Rect {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.Right(), width), min(r.Bottom(), height)
	if x1 <= x0 || y1 <= y0 {
		return tiling.Rect{}
	}
	return tiling.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
