package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// MouseState represents the current mouse state
type MouseState struct {
	X, Y         int
	LeftButton   bool
	RightButton  bool
	LeftPressed  bool
	RightPressed bool
}

// watchedKeys are the keys whose state is tracked between frames.
var watchedKeys = []ebiten.Key{
	ebiten.KeyEscape,
	ebiten.KeySpace,
	ebiten.KeyArrowUp,
	ebiten.KeyArrowDown,
	ebiten.KeyArrowLeft,
	ebiten.KeyArrowRight,
	ebiten.KeyP,
	ebiten.KeyM,
	ebiten.KeyR,
	ebiten.KeyMinus,
	ebiten.KeyEqual,
	ebiten.KeyDigit1,
	ebiten.KeyDigit2,
	ebiten.KeyDigit3,
	ebiten.KeyDigit4,
	ebiten.KeyDigit5,
}

// Manager handles all input from keyboard and mouse
type Manager struct {
	mouse     MouseState
	prevMouse MouseState
	keys      map[ebiten.Key]bool
	prevKeys  map[ebiten.Key]bool
}

// NewManager creates a new input manager
func NewManager() *Manager {
	return &Manager{
		keys:     make(map[ebiten.Key]bool),
		prevKeys: make(map[ebiten.Key]bool),
	}
}

// Update updates the input state
func (m *Manager) Update() {
	m.prevMouse = m.mouse
	m.mouse.X, m.mouse.Y = ebiten.CursorPosition()
	m.mouse.LeftButton = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	m.mouse.RightButton = ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	m.mouse.LeftPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
	m.mouse.RightPressed = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight)

	for k, v := range m.keys {
		m.prevKeys[k] = v
	}
	for _, k := range watchedKeys {
		m.keys[k] = ebiten.IsKeyPressed(k)
	}
}

// GetMousePosition returns the current mouse position
func (m *Manager) GetMousePosition() (int, int) {
	return m.mouse.X, m.mouse.Y
}

// IsMouseButtonJustPressed returns true if the specified mouse button was just pressed this frame
func (m *Manager) IsMouseButtonJustPressed(button ebiten.MouseButton) bool {
	switch button {
	case ebiten.MouseButtonLeft:
		return m.mouse.LeftPressed
	case ebiten.MouseButtonRight:
		return m.mouse.RightPressed
	default:
		return false
	}
}

// IsKeyPressed returns true if the specified key is currently pressed
func (m *Manager) IsKeyPressed(key ebiten.Key) bool {
	return m.keys[key]
}

// IsKeyJustPressed returns true if the specified key was just pressed this frame
func (m *Manager) IsKeyJustPressed(key ebiten.Key) bool {
	return m.keys[key] && !m.prevKeys[key]
}

// Direction returns the arrow key movement as a unit-free vector, with y
// pointing down the screen.
func (m *Manager) Direction() (dx, dy float64) {
	if m.keys[ebiten.KeyArrowLeft] {
		dx--
	}
	if m.keys[ebiten.KeyArrowRight] {
		dx++
	}
	if m.keys[ebiten.KeyArrowUp] {
		dy--
	}
	if m.keys[ebiten.KeyArrowDown] {
		dy++
	}
	return dx, dy
}

// DigitJustPressed returns n for a just pressed digit key 1..5, or 0.
func (m *Manager) DigitJustPressed() int {
	for n, k := range []ebiten.Key{ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4, ebiten.KeyDigit5} {
		if m.IsKeyJustPressed(k) {
			return n + 1
		}
	}
	return 0
}
