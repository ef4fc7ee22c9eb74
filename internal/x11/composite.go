package x11

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/damage"
	"github.com/BurntSushi/xgb/render"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"golang.org/x/image/draw"

	"github.com/1broseidon/xoverview/internal/capture"
	"github.com/1broseidon/xoverview/internal/compose"
)

const (
	placeholderWidth = 256
	placeholderIcon  = 64
	filterBilinear   = "bilinear"
)

type pictFormats struct {
	byVisual map[xproto.Visualid]render.Pictformat
	byDepth  map[byte]render.Pictformat
}

func queryFormats(conn *xgb.Conn) (pictFormats, error) {
	reply, err := render.QueryPictFormats(conn).Reply()
	if err != nil {
		return pictFormats{}, err
	}

	f := pictFormats{
		byVisual: make(map[xproto.Visualid]render.Pictformat),
		byDepth:  make(map[byte]render.Pictformat),
	}
	for _, info := range reply.Formats {
		if info.Type != render.PictTypeDirect || info.Direct.RedShift != 16 {
			continue
		}
		switch {
		case info.Depth == 32 && info.Direct.AlphaMask == 0xff:
		case info.Depth == 24 && info.Direct.AlphaMask == 0:
		default:
			continue
		}
		if _, ok := f.byDepth[info.Depth]; !ok {
			f.byDepth[info.Depth] = info.Id
		}
	}
	for _, screen := range reply.Screens {
		for _, depth := range screen.Depths {
			for _, v := range depth.Visuals {
				f.byVisual[v.Visual] = v.Format
			}
		}
	}
	if len(f.byDepth) == 0 && len(f.byVisual) == 0 {
		return pictFormats{}, errors.New("no usable picture formats")
	}
	return f, nil
}

func (f pictFormats) lookup(visual xproto.Visualid, depth byte) (render.Pictformat, error) {
	if id, ok := f.byVisual[visual]; ok {
		return id, nil
	}
	if id, ok := f.byDepth[depth]; ok {
		return id, nil
	}
	return 0, fmt.Errorf("no picture format for visual 0x%x depth %d", visual, depth)
}

// goneErr maps errors about a missing window or drawable to
// capture.ErrWindowGone.
func goneErr(err error) error {
	if err == nil {
		return nil
	}
	var (
		we xproto.WindowError
		de xproto.DrawableError
	)
	if errors.As(err, &we) || errors.As(err, &de) {
		return fmt.Errorf("%w: %v", capture.ErrWindowGone, err)
	}
	return err
}

// Compositor implements capture.Backend with Composite, Damage and Render.
type Compositor struct {
	c *Connection
}

// NewCompositor creates a capture backend. RequireCompositing must have
// succeeded on c.
func NewCompositor(c *Connection) *Compositor {
	return &Compositor{c: c}
}

// Redirect enables automatic redirection so the server keeps painting the
// window on screen while its pixmap stays nameable.
func (b *Compositor) Redirect(frame uint32) error {
	return goneErr(composite.RedirectWindowChecked(b.c.XUtil.Conn(),
		xproto.Window(frame), composite.RedirectAutomatic).Check())
}

func (b *Compositor) Unredirect(frame uint32) {
	composite.UnredirectWindow(b.c.XUtil.Conn(), xproto.Window(frame), composite.RedirectAutomatic)
}

// Capture names the frame's current backing pixmap and wraps it in a
// bilinear-filtered picture.
func (b *Compositor) Capture(frame uint32) (capture.Surface, error) {
	conn := b.c.XUtil.Conn()
	win := xproto.Window(frame)

	attrs, err := xproto.GetWindowAttributes(conn, win).Reply()
	if err != nil {
		return capture.Surface{}, goneErr(err)
	}
	if attrs.MapState != xproto.MapStateViewable {
		return capture.Surface{}, fmt.Errorf("window 0x%x is not viewable", frame)
	}
	geom, err := xproto.GetGeometry(conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return capture.Surface{}, goneErr(err)
	}
	format, err := b.c.formats.lookup(attrs.Visual, geom.Depth)
	if err != nil {
		return capture.Surface{}, err
	}

	pix, err := xproto.NewPixmapId(conn)
	if err != nil {
		return capture.Surface{}, err
	}
	if err := composite.NameWindowPixmapChecked(conn, win, pix).Check(); err != nil {
		return capture.Surface{}, goneErr(err)
	}

	pic, err := b.picture(xproto.Drawable(pix), format)
	if err != nil {
		xproto.FreePixmap(conn, pix)
		return capture.Surface{}, err
	}

	border := 2 * int(geom.BorderWidth)
	return capture.Surface{
		Picture: uint32(pic),
		Pixmap:  uint32(pix),
		Width:   int(geom.Width) + border,
		Height:  int(geom.Height) + border,
	}, nil
}

func (b *Compositor) picture(d xproto.Drawable, format render.Pictformat) (render.Picture, error) {
	conn := b.c.XUtil.Conn()
	pic, err := render.NewPictureId(conn)
	if err != nil {
		return 0, err
	}
	if err := render.CreatePictureChecked(conn, pic, d, format, 0, nil).Check(); err != nil {
		return 0, goneErr(err)
	}
	render.SetPictureFilter(conn, pic, uint16(len(filterBilinear)), filterBilinear, nil)
	return pic, nil
}

// Placeholder draws the window's icon centered on a dark tile with the
// window's aspect ratio.
func (b *Compositor) Placeholder(w capture.Window) (capture.Surface, error) {
	xu := b.c.XUtil

	width := placeholderWidth
	height := width * 3 / 4
	if w.Geometry.Width > 0 && w.Geometry.Height > 0 {
		height = max(width*w.Geometry.Height/w.Geometry.Width, 1)
	}

	img := xgraphics.New(xu, image.Rect(0, 0, width, height))
	bg := compose.ColorPlaceholder
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{
		R: uint8(bg >> 16), G: uint8(bg >> 8), B: uint8(bg), A: 0xff,
	}}, image.Point{}, draw.Src)

	if icon, err := xgraphics.FindIcon(xu, xproto.Window(w.Client), placeholderIcon, placeholderIcon); err == nil {
		side := min(placeholderIcon, width, height)
		dst := image.Rect(0, 0, side, side).Add(image.Pt((width-side)/2, (height-side)/2))
		draw.CatmullRom.Scale(img, dst, icon, icon.Bounds(), draw.Over, nil)
		icon.Destroy()
	}

	if err := img.CreatePixmap(); err != nil {
		return capture.Surface{}, fmt.Errorf("placeholder pixmap: %w", err)
	}
	img.XDraw()

	screen := xu.Screen()
	format, err := b.c.formats.lookup(screen.RootVisual, screen.RootDepth)
	if err != nil {
		img.Destroy()
		return capture.Surface{}, err
	}
	pic, err := b.picture(xproto.Drawable(img.Pixmap), format)
	if err != nil {
		img.Destroy()
		return capture.Surface{}, err
	}

	return capture.Surface{
		Picture:     uint32(pic),
		Pixmap:      uint32(img.Pixmap),
		Width:       width,
		Height:      height,
		Placeholder: true,
	}, nil
}

// Release frees a surface's picture and pixmap.
func (b *Compositor) Release(s capture.Surface) {
	conn := b.c.XUtil.Conn()
	if s.Picture != 0 {
		render.FreePicture(conn, render.Picture(s.Picture))
	}
	if s.Pixmap != 0 {
		xproto.FreePixmap(conn, xproto.Pixmap(s.Pixmap))
	}
}

// Watch attaches a damage object reporting only empty → non-empty changes.
func (b *Compositor) Watch(frame uint32) (uint32, error) {
	conn := b.c.XUtil.Conn()
	id, err := damage.NewDamageId(conn)
	if err != nil {
		return 0, err
	}
	if err := damage.CreateChecked(conn, id, xproto.Drawable(frame), damage.ReportLevelNonEmpty).Check(); err != nil {
		return 0, goneErr(err)
	}
	return uint32(id), nil
}

func (b *Compositor) Unwatch(id uint32) {
	damage.Destroy(b.c.XUtil.Conn(), damage.Damage(id))
}

// Subtract empties the damage region so the next change is reported again.
func (b *Compositor) Subtract(id uint32) {
	damage.Subtract(b.c.XUtil.Conn(), damage.Damage(id), xfixes.Region(0), xfixes.Region(0))
}
