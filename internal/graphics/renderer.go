package graphics

import (
	"image/color"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"sound-engine/internal/spatial"
)

// Scene colours
var (
	colorBackground = color.RGBA{20, 22, 30, 255}
	colorWall       = color.RGBA{200, 200, 210, 255}
	colorListener   = color.RGBA{80, 200, 255, 255}
	colorEmitter    = color.RGBA{255, 170, 60, 255}
	colorSilent     = color.RGBA{110, 110, 110, 255}
	colorRange      = color.RGBA{255, 170, 60, 60}
)

// Marker is a sound source drawn on the map.
type Marker struct {
	Pos     spatial.Vec2
	Range   float64 // audible radius, 0 to hide
	Playing bool
}

// Scene is everything the renderer draws in one frame.
type Scene struct {
	Listener spatial.Vec2
	Walls    []spatial.Segment
	Markers  []Marker
	Text     []string
}

// Renderer draws a top-down view of the sound world centred on the
// listener, scaled by Zoom pixels per world unit.
type Renderer struct {
	screenWidth  int
	screenHeight int
	Zoom         float64

	// Fade effect
	fadeTexture *ebiten.Image
	fadeAlpha   float64
}

// NewRenderer creates a new scene renderer
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		screenWidth:  width,
		screenHeight: height,
		Zoom:         8,
	}
}

// Init creates the fade overlay
func (r *Renderer) Init() error {
	r.fadeTexture = ebiten.NewImage(r.screenWidth, r.screenHeight)
	r.fadeTexture.Fill(color.RGBA{0, 0, 0, 255})
	log.Println("Graphics renderer initialized")
	return nil
}

// SetFade dims the scene, e.g. while the game is paused
func (r *Renderer) SetFade(alpha float64) {
	r.fadeAlpha = math.Max(0, math.Min(1, alpha))
}

// ToScreen maps a world position to screen pixels.
func (r *Renderer) ToScreen(listener, p spatial.Vec2) (float32, float32) {
	d := p.Sub(listener).Scale(r.Zoom)
	return float32(float64(r.screenWidth)/2 + d.X), float32(float64(r.screenHeight)/2 + d.Y)
}

// ToWorld maps screen pixels back to a world position.
func (r *Renderer) ToWorld(listener spatial.Vec2, x, y int) spatial.Vec2 {
	return spatial.Vec2{
		X: listener.X + (float64(x)-float64(r.screenWidth)/2)/r.Zoom,
		Y: listener.Y + (float64(y)-float64(r.screenHeight)/2)/r.Zoom,
	}
}

// Draw renders the scene
func (r *Renderer) Draw(screen *ebiten.Image, s *Scene) {
	screen.Fill(colorBackground)

	for _, w := range s.Walls {
		x0, y0 := r.ToScreen(s.Listener, w.A)
		x1, y1 := r.ToScreen(s.Listener, w.B)
		vector.StrokeLine(screen, x0, y0, x1, y1, 2, colorWall, true)
	}

	for _, m := range s.Markers {
		x, y := r.ToScreen(s.Listener, m.Pos)
		clr := colorSilent
		if m.Playing {
			clr = colorEmitter
		}
		if m.Range > 0 {
			vector.StrokeCircle(screen, x, y, float32(m.Range*r.Zoom), 1, colorRange, true)
		}
		vector.DrawFilledCircle(screen, x, y, 5, clr, true)
	}

	lx, ly := r.ToScreen(s.Listener, s.Listener)
	vector.DrawFilledCircle(screen, lx, ly, 6, colorListener, true)

	if r.fadeAlpha > 0 {
		opts := &ebiten.DrawImageOptions{}
		opts.ColorScale.ScaleAlpha(float32(r.fadeAlpha))
		screen.DrawImage(r.fadeTexture, opts)
	}

	for i, line := range s.Text {
		ebitenutil.DebugPrintAt(screen, line, 10, 10+i*16)
	}
}

// GetScreenSize returns the screen dimensions
func (r *Renderer) GetScreenSize() (int, int) {
	return r.screenWidth, r.screenHeight
}
