package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-imguiws/internal/config"
	diag "github.com/coreman2200/funtimes-imguiws/internal/diagnostics"
	"github.com/coreman2200/funtimes-imguiws/internal/frame"
	"github.com/coreman2200/funtimes-imguiws/internal/gui"
	"github.com/coreman2200/funtimes-imguiws/internal/pacing"
	"github.com/coreman2200/funtimes-imguiws/internal/ws"
)

// Surface is where frames go and input comes from (the websocket server).
type Surface interface {
	Publish(f *frame.Frame) error
	DrainInput() []frame.Event
	Clients() int
	Diagnose(d diag.Diagnostic)
	Close() error
}

// Renderer produces frames (the imgui context).
type Renderer interface {
	Apply(events []frame.Event)
	Frame(dt float32, build func()) *frame.Frame
	Close()
}

// Scene issues the widgets for one frame.
type Scene interface {
	Build(s gui.Stats)
}

type App struct {
	cfg      *config.Config
	surface  Surface
	renderer Renderer
	scene    Scene
	clock    pacing.Clock

	frames      uint64
	lastOverrun time.Time
}

// Start validates the document root, creates the GUI context and starts the
// server, in that order. A missing index file fails before anything is
// created or bound.
func Start(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	srv := ws.New(ws.Options{
		Addr:  cfg.Addr(),
		Root:  cfg.HTTPRoot,
		Index: cfg.IndexFile,
		Name:  cfg.Name,
		FPS:   cfg.FPS,
	})
	if err := srv.Init(); err != nil {
		return nil, err
	}

	ctx, err := gui.NewContext(cfg.Theme, cfg.Display.Width, cfg.Display.Height)
	if err != nil {
		return nil, err
	}
	if err := srv.SetFontTexture(ctx.FontTexture()); err != nil {
		ctx.Close()
		return nil, err
	}
	if err := srv.Start(); err != nil {
		ctx.Close()
		return nil, err
	}
	log.Info().Str("url", fmt.Sprintf("localhost:%d", cfg.Port)).Msg("serving")

	return New(cfg, srv, ctx, gui.NewDemo(), nil), nil
}

// New wires an App from parts. A nil clock selects the system clock.
func New(cfg *config.Config, s Surface, r Renderer, scene Scene, clock pacing.Clock) *App {
	if clock == nil {
		clock = pacing.SystemClock()
	}
	return &App{cfg: cfg, surface: s, renderer: r, scene: scene, clock: clock}
}

func (a *App) Frames() uint64 { return a.frames }

// Run ticks at cfg.FPS until ctx is done. The timer is created here so the
// first tick is one period after the loop starts.
func (a *App) Run(ctx context.Context) error {
	timer, err := pacing.NewFixedRate(a.cfg.FPS, pacing.Options{
		Guard:         time.Duration(a.cfg.Pacing.GuardMicros) * time.Microsecond,
		SleepFraction: a.cfg.Pacing.SleepFraction,
		FinalSpin:     a.cfg.Pacing.FinalSpin,
		Clock:         a.clock,
	})
	if err != nil {
		return err
	}
	start := a.clock.Now()
	budget := 2 * timer.Period()
	log.Info().Float64("fps", timer.Rate()).Dur("period", timer.Period()).Msg("render loop starting")

	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("frames", a.frames).Msg("render loop stopped")
			return nil
		default:
		}

		timer.Wait()
		dt := timer.DeltaSeconds()
		delta := time.Duration(dt * float64(time.Second))
		now := a.clock.Now()
		if a.frames > 0 && delta > budget && now.Sub(a.lastOverrun) >= time.Second {
			a.lastOverrun = now
			a.surface.Diagnose(diag.Overrun(delta, budget))
		}

		a.renderer.Apply(a.surface.DrainInput())
		stats := gui.Stats{
			TargetFPS: timer.Rate(),
			Delta:     delta,
			Clients:   a.surface.Clients(),
			FrameID:   a.frames + 1,
			Uptime:    now.Sub(start),
		}
		f := a.renderer.Frame(float32(dt), func() { a.scene.Build(stats) })
		if err := a.surface.Publish(f); err != nil {
			log.Warn().Err(err).Msg("publish frame")
		}
		a.frames++
	}
}

func (a *App) Close() error {
	err := a.surface.Close()
	a.renderer.Close()
	return err
}
