package overlay

import (
	"fmt"
	"sync"

	"github.com/1broseidon/tabtile/internal/droptarget"
	"github.com/1broseidon/tabtile/internal/geometry"
	"github.com/1broseidon/tabtile/internal/group"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

const dragThreshold = 6

// Handlers receive pointer input on bars. They run on the X event goroutine.
type Handlers struct {
	Click   func(id group.ID, index int, button int)
	Drag    func(source group.ID, window group.WindowID, p geometry.Point)
	Drop    func(source group.ID, window group.WindowID, p geometry.Point)
	DragEnd func(source group.ID)
}

// Painter owns one override-redirect bar window per visible group.
type Painter struct {
	xu       *xgbutil.XUtil
	root     xproto.Window
	handlers Handlers

	mu      sync.Mutex
	layout  droptarget.Layout
	palette Palette
	bars    map[group.ID]*bar
	font    xproto.Font
}

type bar struct {
	win    xproto.Window
	gc     xproto.Gcontext
	scene  Scene
	view   group.View
	mapped bool

	pressed  int
	pressX   int
	pressY   int
	dragging bool
}

// NewPainter creates a painter drawing onto the given root window.
func NewPainter(xu *xgbutil.XUtil, root xproto.Window, layout droptarget.Layout, palette Palette, handlers Handlers) *Painter {
	return &Painter{
		xu:       xu,
		root:     root,
		handlers: handlers,
		layout:   layout,
		palette:  palette,
		bars:     make(map[group.ID]*bar),
	}
}

// Configure swaps metrics and colours; the next Paint picks them up.
func (p *Painter) Configure(layout droptarget.Layout, palette Palette) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.layout = layout
	p.palette = palette
}

// Paint brings the bar windows in line with views. Groups on another
// workspace than current, or whose active window is fullscreen, are hidden.
func (p *Painter) Paint(views []group.View, current group.WorkspaceID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[group.ID]struct{}, len(views))
	for _, v := range views {
		seen[v.ID] = struct{}{}
		b, ok := p.bars[v.ID]
		if !ok {
			var err error
			b, err = p.createBar(v.ID)
			if err != nil {
				return fmt.Errorf("create bar for group %s: %w", v.ID, err)
			}
			p.bars[v.ID] = b
		}
		b.view = v
		b.scene = Compose(v, p.layout, p.palette)

		if !visible(v, current) {
			p.hide(b)
			continue
		}
		p.show(b)
	}

	for id, b := range p.bars {
		if _, ok := seen[id]; !ok {
			p.destroy(b)
			delete(p.bars, id)
		}
	}
	return nil
}

func visible(v group.View, current group.WorkspaceID) bool {
	if len(v.Windows) == 0 || v.Frame.Empty() {
		return false
	}
	if current != 0 && v.WorkspaceID != 0 && v.WorkspaceID != current {
		return false
	}
	if v.ActiveIndex < len(v.Windows) && v.Windows[v.ActiveIndex].Fullscreen {
		return false
	}
	return true
}

// Cleanup destroys every bar and the shared font.
func (p *Painter) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, b := range p.bars {
		p.destroy(b)
		delete(p.bars, id)
	}
	if p.font != 0 {
		xproto.CloseFont(p.xu.Conn(), p.font)
		p.font = 0
	}
}

func (p *Painter) show(b *bar) {
	conn := p.xu.Conn()
	r := b.scene.Bar
	xproto.ConfigureWindow(
		conn,
		b.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(r.X),
			uint32(r.Y),
			uint32(max(r.Width, 1)),
			uint32(max(r.Height, 1)),
			xproto.StackModeAbove,
		},
	)
	if !b.mapped {
		xproto.MapWindow(conn, b.win)
		b.mapped = true
	}
	p.draw(b)
}

func (p *Painter) hide(b *bar) {
	if !b.mapped {
		return
	}
	xproto.UnmapWindow(p.xu.Conn(), b.win)
	b.mapped = false
}

func (p *Painter) draw(b *bar) {
	conn := p.xu.Conn()
	drawable := xproto.Drawable(b.win)

	xproto.ChangeWindowAttributes(conn, b.win, xproto.CwBackPixel, []uint32{p.palette.Background})
	xproto.ClearArea(conn, false, b.win, 0, 0, 0, 0)

	fill := func(seg Segment) {
		xproto.ChangeGC(conn, b.gc, xproto.GcForeground, []uint32{seg.Color})
		xproto.PolyFillRectangle(conn, drawable, b.gc, []xproto.Rectangle{toRectangle(seg.Rect)})
	}

	baseline := b.scene.Bar.Height/2 + 5
	for _, seg := range b.scene.Tabs {
		fill(seg)
		if seg.Label == "" || p.font == 0 {
			continue
		}
		xproto.ChangeGC(conn, b.gc, xproto.GcForeground|xproto.GcBackground, []uint32{p.palette.Text, seg.Color})
		xproto.ImageText8(
			conn,
			byte(len(seg.Label)),
			drawable,
			b.gc,
			int16(seg.Rect.X+textPaddingX),
			int16(baseline),
			seg.Label,
		)
	}
	for _, dot := range b.scene.Dots {
		fill(dot)
	}
	if b.scene.Indicator != nil {
		fill(Segment{Rect: *b.scene.Indicator, Color: p.palette.DropIndicator})
	}
}

func toRectangle(r geometry.Rect) xproto.Rectangle {
	return xproto.Rectangle{
		X:      int16(r.X),
		Y:      int16(r.Y),
		Width:  uint16(max(r.Width, 0)),
		Height: uint16(max(r.Height, 0)),
	}
}

func (p *Painter) createBar(id group.ID) (*bar, error) {
	conn := p.xu.Conn()
	screen := p.xu.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, err
	}

	// Value list order follows the bit positions of the mask (low to high).
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		p.root,
		0, 0,
		1, 1,
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{
			p.palette.Background,
			1,
			xproto.EventMaskExposure | xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease | xproto.EventMaskButtonMotion,
		},
	).Check()
	if err != nil {
		return nil, err
	}

	p.ensureFont()

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		xproto.DestroyWindow(conn, wid)
		return nil, err
	}
	mask := uint32(xproto.GcForeground | xproto.GcBackground | xproto.GcGraphicsExposures)
	values := []uint32{p.palette.Text, p.palette.Background, 0}
	if p.font != 0 {
		mask = xproto.GcForeground | xproto.GcBackground | xproto.GcFont | xproto.GcGraphicsExposures
		values = []uint32{p.palette.Text, p.palette.Background, uint32(p.font), 0}
	}
	if err := xproto.CreateGCChecked(conn, gc, xproto.Drawable(wid), mask, values).Check(); err != nil {
		xproto.DestroyWindow(conn, wid)
		return nil, err
	}

	b := &bar{win: wid, gc: gc, pressed: -1}
	p.connect(id, b)
	return b, nil
}

func (p *Painter) ensureFont() {
	if p.font != 0 {
		return
	}
	conn := p.xu.Conn()
	font, err := xproto.NewFontId(conn)
	if err != nil {
		return
	}
	for _, name := range []string{"fixed", "9x15", "8x13", "6x13"} {
		if xproto.OpenFontChecked(conn, font, uint16(len(name)), name).Check() == nil {
			p.font = font
			return
		}
	}
}

func (p *Painter) destroy(b *bar) {
	conn := p.xu.Conn()
	xevent.Detach(p.xu, b.win)
	if b.gc != 0 {
		xproto.FreeGC(conn, b.gc)
	}
	if b.win != 0 {
		xproto.DestroyWindow(conn, b.win)
	}
	b.win = 0
	b.gc = 0
	b.mapped = false
}

func (p *Painter) connect(id group.ID, b *bar) {
	win := b.win
	xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
		if ev.Count != 0 {
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if b.mapped {
			p.draw(b)
		}
	}).Connect(p.xu, win)

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		p.mu.Lock()
		idx, ok := p.layout.IndexAt(droptarget.SlotsOf(b.view.Windows), b.scene.Bar.Width, int(ev.EventX))
		if !ok {
			idx = -1
		}
		b.pressed = idx
		b.pressX, b.pressY = int(ev.RootX), int(ev.RootY)
		b.dragging = false
		p.mu.Unlock()
	}).Connect(p.xu, win)

	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		p.mu.Lock()
		if b.pressed < 0 || b.pressed >= len(b.view.Windows) {
			p.mu.Unlock()
			return
		}
		pt := geometry.Point{X: int(ev.RootX), Y: int(ev.RootY)}
		if !b.dragging && abs(pt.X-b.pressX)+abs(pt.Y-b.pressY) < dragThreshold {
			p.mu.Unlock()
			return
		}
		b.dragging = true
		wid := b.view.Windows[b.pressed].ID
		p.mu.Unlock()

		if p.handlers.Drag != nil {
			p.handlers.Drag(id, wid, pt)
		}
	}).Connect(p.xu, win)

	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		p.mu.Lock()
		pressed, dragging := b.pressed, b.dragging
		var wid group.WindowID
		if pressed >= 0 && pressed < len(b.view.Windows) {
			wid = b.view.Windows[pressed].ID
		}
		b.pressed = -1
		b.dragging = false
		p.mu.Unlock()

		if pressed < 0 {
			return
		}
		if !dragging {
			if p.handlers.Click != nil {
				p.handlers.Click(id, pressed, int(ev.Detail))
			}
			return
		}
		if p.handlers.Drop != nil {
			p.handlers.Drop(id, wid, geometry.Point{X: int(ev.RootX), Y: int(ev.RootY)})
		}
		if p.handlers.DragEnd != nil {
			p.handlers.DragEnd(id)
		}
	}).Connect(p.xu, win)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
