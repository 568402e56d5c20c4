package engine

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"sound-engine/internal/audio"
	"sound-engine/internal/filesystem"
	"sound-engine/internal/graphics"
	"sound-engine/internal/input"
	"sound-engine/internal/music"
	"sound-engine/internal/settings"
	"sound-engine/internal/soundbank"
	"sound-engine/internal/spatial"

	"github.com/hajimehoshi/ebiten/v2"
)

const (
	walkSpeed  = 12.0 // world units per second
	stepPeriod = 400 * time.Millisecond
	dripPeriod = 1500 * time.Millisecond
)

// Game is the sound engine demo: the player walks a small level with the
// arrow keys while the engine positions the sounds around them.
type Game struct {
	graphics   *graphics.Renderer
	audio      *audio.Engine
	input      *input.Manager
	filesystem *filesystem.Manager
	settings   *settings.Manager
	bank       *soundbank.Bank
	rng        *rand.Rand

	screenWidth  int
	screenHeight int
	debug        bool

	listener spatial.Vec2
	motor    *orbiter
	walls    []spatial.Segment

	motorSnd audio.Handle
	dripSnd  audio.Handle
	stepWait time.Duration
	paused   bool
	mode     music.Mode

	initialized bool
}

// NewGame creates a new game instance
func NewGame() *Game {
	return &Game{
		screenWidth:  800,
		screenHeight: 600,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		motor:        &orbiter{centre: motorTrack, radius: 12, speed: 0.8},
		mode:         music.ModeAmbient,
	}
}

// Init initializes all game subsystems
func (g *Game) Init() error {
	var err error

	g.settings = settings.NewManager("./config/settings.json")
	if err = g.settings.Load(); err != nil {
		log.Printf("Warning: failed to load settings: %v", err)
	}
	config := g.settings.GetConfig()

	g.filesystem = filesystem.NewManager(config.AssetsPath)
	if err = g.filesystem.Init(); err != nil {
		return fmt.Errorf("failed to initialize filesystem: %w", err)
	}
	for _, name := range config.Archives {
		if err := g.filesystem.MountGPK(name); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	// Overrides: audio.ini from the assets, then the environment
	ini := settings.NewINIManager(g.filesystem)
	if err := ini.Load("audio.ini"); err == nil {
		if err := g.settings.Update(ini.ApplyTo); err != nil {
			log.Printf("Warning: ignoring audio.ini: %v", err)
		}
	}
	if err := g.settings.Update(func(c *settings.Config) { c.ApplyEnv(os.Getenv) }); err != nil {
		log.Printf("Warning: ignoring environment overrides: %v", err)
	}
	config = g.settings.GetConfig()
	g.screenWidth, g.screenHeight = config.ScreenWidth, config.ScreenHeight
	g.debug = config.DebugMode

	acfg := audio.ConfigFromSettings(config)
	g.bank, err = soundbank.Load(g.filesystem, config.SoundCatalog, SoundIDs, acfg.SampleRate)
	if err != nil {
		log.Printf("Warning: sound effects disabled: %v", err)
		g.bank = soundbank.NewBank(acfg.SampleRate)
	}
	catalog, err := music.LoadCatalog(g.filesystem, config.MusicCatalog)
	if err != nil {
		log.Printf("Warning: music disabled: %v", err)
		catalog = nil
	}

	g.audio = openAudio(acfg, g.bank, catalog, g.filesystem)
	g.settings.OnChange(g.onSettingsChanged)

	for _, w := range levelWalls() {
		g.audio.GeomStaticAdd(w.tr, w.poly)
		g.walls = append(g.walls, w.poly.Segments(w.tr)...)
	}
	drip := audio.Params(SndDrip).At(dripPos)
	drip.LoopPeriod = dripPeriod
	g.dripSnd = g.audio.Play(0, drip, true)
	g.audio.SetMusicMode(g.mode)

	g.graphics = graphics.NewRenderer(g.screenWidth, g.screenHeight)
	if err = g.graphics.Init(); err != nil {
		return fmt.Errorf("failed to initialize graphics: %w", err)
	}
	g.input = input.NewManager()

	g.initialized = true
	log.Println("Sound demo initialized successfully")
	return nil
}

func (g *Game) onSettingsChanged(_, cur settings.Config) {
	if err := g.audio.ApplySettings(audio.ConfigFromSettings(cur)); err != nil {
		log.Printf("Error: applying audio settings: %v", err)
	}
}

// Update updates the game logic
func (g *Game) Update() error {
	if !g.initialized {
		return nil
	}
	dt := time.Second / time.Duration(ebiten.TPS())
	g.input.Update()

	if g.input.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleKeys()

	if !g.paused {
		g.walk(dt)
		g.motor.advance(dt)
	}
	g.motorSnd = g.audio.Play(g.motorSnd, audio.Params(SndMotor).Following(g.motor), true)

	g.audio.Sync(g.listener, dt)
	return nil
}

func (g *Game) handleKeys() {
	in := g.input
	if in.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
		g.audio.SetPause(g.paused)
		fade := 0.0
		if g.paused {
			fade = 0.5
		}
		g.graphics.SetFade(fade)
		g.click()
	}
	if in.IsKeyJustPressed(ebiten.KeyM) {
		g.audio.SetMuted(!g.audio.IsMuted())
	}
	if in.IsKeyJustPressed(ebiten.KeyR) {
		g.changeSettings(func(c *settings.Config) { c.Reverb = !c.Reverb })
	}
	if in.IsKeyJustPressed(ebiten.KeyMinus) {
		g.changeSettings(func(c *settings.Config) { c.MasterVolume -= 0.1 })
	}
	if in.IsKeyJustPressed(ebiten.KeyEqual) {
		g.changeSettings(func(c *settings.Config) { c.MasterVolume += 0.1 })
	}
	if d := in.DigitJustPressed(); d > 0 {
		g.mode = music.Mode(d - 1)
		g.audio.SetMusicMode(g.mode)
		g.click()
	}

	if in.IsKeyJustPressed(ebiten.KeySpace) {
		g.audio.Play(0, audio.Params(SndBell).At(g.listener.Add(spatial.Vec2{Y: -15})), false)
	}
	if in.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := in.GetMousePosition()
		g.audio.Play(0, audio.Params(SndBell).At(g.graphics.ToWorld(g.listener, x, y)), false)
	}
}

func (g *Game) changeSettings(fn func(*settings.Config)) {
	if err := g.settings.Update(fn); err != nil {
		log.Printf("Warning: settings change rejected: %v", err)
	}
	g.click()
}

// click plays the menu feedback sound, which is heard even while paused.
func (g *Game) click() {
	g.audio.Play(0, audio.Params(SndClick), false)
}

// walk moves the listener and plays footsteps while the arrows are held.
func (g *Game) walk(dt time.Duration) {
	dx, dy := g.input.Direction()
	if dx == 0 && dy == 0 {
		g.stepWait = 0
		return
	}
	d := spatial.Vec2{X: dx, Y: dy}
	g.listener = g.listener.Add(d.Scale(walkSpeed * dt.Seconds() / d.Len()))

	g.stepWait -= dt
	if g.stepWait <= 0 {
		step := audio.Params(SndStep)
		step.PitchSel = g.rng.Float64()
		g.audio.Play(0, step, false)
		g.stepWait = stepPeriod
	}
}

// Draw renders the game
func (g *Game) Draw(screen *ebiten.Image) {
	if !g.initialized {
		return
	}
	scene := &graphics.Scene{
		Listener: g.listener,
		Walls:    g.walls,
		Markers: []graphics.Marker{
			g.marker(SndMotor, g.motor.Position(), g.motorSnd),
			g.marker(SndDrip, dripPos, g.dripSnd),
		},
	}

	stats := g.audio.Stats()
	scene.Text = append(scene.Text,
		fmt.Sprintf("FPS: %.2f", ebiten.ActualFPS()),
		stats.String(),
		fmt.Sprintf("music mode %s, %s", g.mode, g.musicLine()),
		"arrows move, space/click bell, P pause, M mute, R reverb, -/= volume, 1-5 music",
	)
	if g.debug {
		scene.Text = append(scene.Text, g.audio.DebugLines()...)
	}
	g.graphics.Draw(screen, scene)
}

func (g *Game) marker(id soundbank.ID, pos spatial.Vec2, h audio.Handle) graphics.Marker {
	m := graphics.Marker{Pos: pos, Playing: g.audio.Playing(h)}
	if snd := g.bank.Get(id); snd.OK() {
		m.Range = snd.MaxDist
	}
	return m
}

func (g *Game) musicLine() string {
	if sel, ok := g.audio.NowPlaying(); ok {
		return "playing " + sel.String()
	}
	return "no music"
}

// Layout returns the game's screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.screenWidth, g.screenHeight
}

// Run starts the demo and shuts the sound engine down when the window closes
func (g *Game) Run() error {
	if err := g.Init(); err != nil {
		return err
	}
	defer g.Close()

	ebiten.SetWindowSize(g.screenWidth, g.screenHeight)
	ebiten.SetWindowTitle("Sound Engine Demo")
	ebiten.SetWindowResizable(false)

	return ebiten.RunGame(g)
}

// Close releases the audio device and mounted archives
func (g *Game) Close() {
	if g.audio != nil {
		if err := g.audio.Close(); err != nil {
			log.Printf("Error: closing sound engine: %v", err)
		}
	}
	if g.filesystem != nil {
		g.filesystem.Close()
	}
}

// openAudio starts the sound engine. When the configured output cannot be
// opened the demo keeps running on a silent engine.
func openAudio(cfg audio.Config, bank *soundbank.Bank, catalog *music.Catalog, fs music.Opener) *audio.Engine {
	e, err := audio.New(cfg, bank, catalog, fs)
	if err == nil {
		return e
	}
	log.Printf("Failed to initialize audio, continuing without sound: %v", err)

	silent := cfg
	silent.Backend = audio.BackendNone
	if e, err = audio.New(silent, bank, catalog, fs); err == nil {
		return e
	}
	silent = audio.DefaultConfig()
	silent.Backend = audio.BackendNone
	e, err = audio.New(silent, nil, nil, nil)
	if err != nil {
		panic(fmt.Sprintf("silent audio engine: %v", err))
	}
	return e
}
