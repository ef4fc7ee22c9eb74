package compose

import (
	"math"
	"testing"

	"github.com/1broseidon/xoverview/internal/deskbar"
	"github.com/1broseidon/xoverview/internal/hittest"
	"github.com/1broseidon/xoverview/internal/interaction"
	"github.com/1broseidon/xoverview/internal/tiling"
)

var screen = tiling.Rect{Width: 1920, Height: 1080}

type fakeContent map[int]string

func (c fakeContent) Size(slot int) (int, int, bool) {
	_, ok := c[slot]
	return 800, 600, ok
}

func (c fakeContent) Title(slot int) string { return c[slot] }

func baseScene() Scene {
	return Scene{
		Screen:  screen,
		Content: fakeContent{0: "terminal", 1: "editor"},
		Cells: []hittest.Target{
			{Slot: 0, Rect: tiling.Rect{X: 50, Y: 200, Width: 400, Height: 400}},
			{Slot: 1, Rect: tiling.Rect{X: 470, Y: 200, Width: 400, Height: 400}},
		},
	}
}

func opsOf(f Frame, kind OpKind) []Op {
	var out []Op
	for _, op := range f.Ops {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

func indexOf(f Frame, match func(Op) bool) int {
	for i, op := range f.Ops {
		if match(op) {
			return i
		}
	}
	return -1
}

func TestBuild_ThumbnailsKeepAspect(t *testing.T) {
	s := baseScene()
	f := Build(s)

	if f.Width != 1920 || f.Height != 1080 {
		t.Fatalf("frame size %dx%d", f.Width, f.Height)
	}
	if f.Ops[0].Kind != OpFill || f.Ops[0].Rect != screen || f.Ops[0].Color != ColorBackground {
		t.Fatalf("first op should clear the screen, got %+v", f.Ops[0])
	}

	thumbs := opsOf(f, OpThumbnail)
	if len(thumbs) != 2 {
		t.Fatalf("thumbnails = %d, want 2", len(thumbs))
	}
	want := tiling.FitAspect(s.Cells[0].Rect, 800, 600, DefaultMaxScale)
	if thumbs[0].Slot != 0 || thumbs[0].Rect != want {
		t.Fatalf("thumbnail = %+v, want rect %+v", thumbs[0], want)
	}
}

func TestBuild_HoverBorder(t *testing.T) {
	s := baseScene()
	s.Hover, s.HasHover = 1, true
	f := Build(s)

	var hover, normal int
	for _, op := range opsOf(f, OpOutline) {
		switch {
		case op.Color == ColorHover && op.Width == HoverBorderWidth:
			hover++
			if op.Rect != tiling.FitAspect(s.Cells[1].Rect, 800, 600, DefaultMaxScale) {
				t.Fatalf("hover border on wrong rect %+v", op.Rect)
			}
		case op.Color == ColorBorder:
			normal++
		}
	}
	if hover != 1 || normal != 1 {
		t.Fatalf("hover=%d normal=%d, want 1 and 1", hover, normal)
	}

	lastNormal := indexOf(f, func(op Op) bool { return op.Kind == OpOutline && op.Color == ColorBorder })
	firstHover := indexOf(f, func(op Op) bool { return op.Kind == OpOutline && op.Color == ColorHover })
	if firstHover < lastNormal {
		t.Fatalf("hover border must be drawn after normal borders")
	}
}

func TestBuild_MissingContentGetsPlaceholder(t *testing.T) {
	s := baseScene()
	s.Content = fakeContent{0: "terminal"}
	f := Build(s)

	if got := len(opsOf(f, OpThumbnail)); got != 1 {
		t.Fatalf("thumbnails = %d, want 1", got)
	}
	if indexOf(f, func(op Op) bool { return op.Kind == OpFill && op.Color == ColorPlaceholder }) < 0 {
		t.Fatalf("expected a placeholder fill")
	}
}

func TestBuild_Titles(t *testing.T) {
	s := baseScene()
	s.ShowTitles = true
	f := Build(s)

	texts := opsOf(f, OpText)
	if len(texts) != 2 || texts[0].Text != "terminal" || texts[1].Text != "editor" {
		t.Fatalf("titles = %+v", texts)
	}
	for i, op := range texts {
		if !op.Rect.Within(s.Cells[i].Rect) {
			t.Fatalf("title %q at %+v escapes cell %+v", op.Text, op.Rect, s.Cells[i].Rect)
		}
	}

	s.ShowTitles = false
	if got := len(opsOf(Build(s), OpText)); got != 0 {
		t.Fatalf("titles drawn while disabled: %d", got)
	}
}

func TestBuild_WallpaperIsDimmed(t *testing.T) {
	s := baseScene()
	s.Wallpaper = true
	f := Build(s)

	if f.Ops[0].Kind != OpWallpaper || f.Ops[0].Rect != screen {
		t.Fatalf("first op = %+v, want wallpaper", f.Ops[0])
	}
	if f.Ops[1].Kind != OpFill || f.Ops[1].Alpha != DimAlpha {
		t.Fatalf("second op = %+v, want dim fill", f.Ops[1])
	}
}

func TestBuild_BarAndFloatingOrder(t *testing.T) {
	s := baseScene()
	s.Bar = deskbar.Build(deskbar.Input{
		Screen: screen,
		Props:  deskbar.Props{Present: true, Count: 3, Current: 1},
	}, deskbar.DefaultOptions())
	s.Bar.Previews[2].Minis = []deskbar.Mini{{Slot: 0, Rect: tiling.Rect{X: s.Bar.Previews[2].Bounds.X + 2, Y: 30, Width: 40, Height: 20}}}
	s.HoverDesktop, s.HasHoverDesktop = 2, true
	s.Floating = &hittest.Target{Slot: 1, Rect: tiling.Rect{X: 900, Y: 300, Width: 200, Height: 200}}
	s.Hints = DefaultHints(true)
	s.Cells = s.Cells[:1]

	f := Build(s)

	barFill := indexOf(f, func(op Op) bool { return op.Kind == OpFill && op.Rect == s.Bar.Bounds })
	current := indexOf(f, func(op Op) bool { return op.Kind == OpFill && op.Color == ColorPreviewCurrent })
	mini := indexOf(f, func(op Op) bool { return op.Kind == OpThumbnail && op.Rect.Width == 40 })
	hovered := indexOf(f, func(op Op) bool {
		return op.Kind == OpOutline && op.Rect == s.Bar.Previews[2].Bounds && op.Color == ColorHover
	})
	add := indexOf(f, func(op Op) bool { return op.Kind == OpFill && op.Rect == s.Bar.AddButton })
	floating := indexOf(f, func(op Op) bool { return op.Kind == OpThumbnail && op.Slot == 1 })
	hint := indexOf(f, func(op Op) bool { return op.Kind == OpFill && op.Color == ColorHintBg })
	grid := indexOf(f, func(op Op) bool { return op.Kind == OpThumbnail && op.Slot == 0 })

	for name, idx := range map[string]int{
		"bar": barFill, "current": current, "mini": mini, "hovered": hovered,
		"add": add, "floating": floating, "hint": hint, "grid": grid,
	} {
		if idx < 0 {
			t.Fatalf("missing %s op", name)
		}
	}
	if !(grid < barFill && barFill < current && current < mini && mini < hovered &&
		hovered < add && add < floating && floating < hint) {
		t.Fatalf("unexpected order: grid=%d bar=%d current=%d mini=%d hovered=%d add=%d floating=%d hint=%d",
			grid, barFill, current, mini, hovered, add, floating, hint)
	}
}

type sizedContent struct{ w, h int }

func (c sizedContent) Size(int) (int, int, bool) { return c.w, c.h, true }
func (sizedContent) Title(int) string            { return "" }

func TestBuild_DraggedContentStaysUnderPointer(t *testing.T) {
	cell := tiling.Rect{X: 100, Y: 300, Width: 900, Height: 480}
	origin := tiling.FitAspect(cell, 400, 300, DefaultMaxScale)
	d := interaction.DragState{Slot: 1, Origin: origin, OffsetX: 300, OffsetY: 200}
	px, py := 1200, 700

	wantX := float64(d.OffsetX) / float64(origin.Width)
	wantY := float64(d.OffsetY) / float64(origin.Height)
	for _, scale := range []float64{1, 0.75, 0.5} {
		f := Build(Scene{
			Screen:   screen,
			Content:  sizedContent{400, 300},
			Floating: &hittest.Target{Slot: 1, Rect: d.RectAt(px, py, scale)},
		})
		thumbs := opsOf(f, OpThumbnail)
		if len(thumbs) != 1 {
			t.Fatalf("scale %v: thumbnails = %d, want 1", scale, len(thumbs))
		}
		r := thumbs[0].Rect
		gotX := float64(px-r.X) / float64(r.Width)
		gotY := float64(py-r.Y) / float64(r.Height)
		if math.Abs(gotX-wantX) > 0.01 || math.Abs(gotY-wantY) > 0.01 {
			t.Fatalf("scale %v: pointer at (%.3f,%.3f) of the content, want (%.3f,%.3f)", scale, gotX, gotY, wantX, wantY)
		}
	}
}

func TestBuild_ZoomCoversFrameAndScalesMinis(t *testing.T) {
	s := baseScene()
	s.Bar = deskbar.Build(deskbar.Input{
		Screen: screen,
		Props:  deskbar.Props{Present: true, Count: 2, Current: 0},
	}, deskbar.DefaultOptions())
	s.Hints = DefaultHints(true)
	p := s.Bar.Previews[1]
	p.Minis = []deskbar.Mini{{Slot: 0, Rect: tiling.Rect{X: p.Bounds.X, Y: p.Bounds.Y, Width: p.Bounds.Width / 2, Height: p.Bounds.Height / 2}}}
	s.Zoom = &Zoom{Preview: p, Rect: screen}

	f := Build(s)

	zoom := indexOf(f, func(op Op) bool { return op.Kind == OpFill && op.Rect == screen && op.Color == ColorPreview })
	if zoom < 0 {
		t.Fatalf("missing zoomed preview fill")
	}
	var minis []Op
	for _, op := range f.Ops[zoom:] {
		if op.Kind == OpThumbnail {
			minis = append(minis, op)
		}
	}
	if len(minis) != 1 {
		t.Fatalf("minis above the zoomed preview = %d, want 1", len(minis))
	}
	if r := minis[0].Rect; abs(r.X) > 1 || abs(r.Y) > 1 || abs(r.Width-screen.Width/2) > 2 || abs(r.Height-screen.Height/2) > 2 {
		t.Fatalf("mini drawn at %+v, want the top-left quarter of the screen", r)
	}
	if indexOf(f, func(op Op) bool { return op.Kind == OpFill && op.Color == ColorHintBg }) >= 0 {
		t.Fatalf("hints drawn during zoom")
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"a long window title", 10, "a long ..."},
		{"abc", 2, "ab"},
		{"naïve", 10, "na?ve"},
		{"anything", 0, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestChooseHintPosition(t *testing.T) {
	bounds := tiling.Rect{Width: 1000, Height: 800}

	x, y := chooseHintPosition(bounds, nil, 200, 100)
	if x != 1000-hintMargin-200 || y != 800-hintMargin-100 {
		t.Fatalf("default corner = (%d,%d), want bottom-right", x, y)
	}

	avoid := []tiling.Rect{{X: 700, Y: 600, Width: 300, Height: 200}}
	x, y = chooseHintPosition(bounds, avoid, 200, 100)
	if x != hintMargin || y != 800-hintMargin-100 {
		t.Fatalf("with bottom-right covered = (%d,%d), want bottom-left", x, y)
	}

	all := []tiling.Rect{bounds}
	x, y = chooseHintPosition(bounds, all, 200, 100)
	if x != 1000-hintMargin-200 || y != 800-hintMargin-100 {
		t.Fatalf("fully covered = (%d,%d), want first candidate", x, y)
	}
}

func TestDefaultHints(t *testing.T) {
	if len(DefaultHints(true)) != len(DefaultHints(false))+1 {
		t.Fatalf("bar legend should add one line")
	}
}
