package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/flipbook/internal/blobcache"
	"github.com/linuxmatters/flipbook/internal/cli"
	"github.com/linuxmatters/flipbook/internal/config"
	"github.com/linuxmatters/flipbook/internal/frame"
	"github.com/linuxmatters/flipbook/internal/player"
	"github.com/linuxmatters/flipbook/internal/renderer"
	"github.com/linuxmatters/flipbook/internal/source"
	"github.com/linuxmatters/flipbook/internal/ui"
	"golang.org/x/term"
)

type playCmd struct {
	Source string `arg:"" help:"Image directory, animation-list or frame-list XML, or a single image" type:"existingpath"`

	Scale      string        `help:"Scale type, one of ${scale_types}" default:"${default_scale}"`
	Interval   time.Duration `help:"Display time for frames that carry none" default:"80ms"`
	Repeat     int           `help:"Passes for looping sequences, 0 loops forever" default:"0"`
	Quality    string        `help:"Resampling: nearest, approx, bilinear or catmull-rom" default:"${default_quality}"`
	Background string        `help:"Canvas colour as 6 hex digits" placeholder:"RRGGBB"`
	Label      bool          `help:"Draw a frame counter on every frame"`
	NoCache    bool          `help:"Play without the frame cache"`
	Precache   bool          `help:"Cache every frame before playback starts"`

	Out    string `help:"Write frames as PNG files to this directory instead of the terminal" placeholder:"DIR" type:"path"`
	Width  int    `help:"Headless canvas width" default:"${default_width}"`
	Height int    `help:"Headless canvas height" default:"${default_height}"`
	Frames int    `help:"Stop headless playback after this many frames, 0 plays to the end" default:"0"`
}

func (c *playCmd) runtimeConfig(g *Globals) (*config.RuntimeConfig, error) {
	rc := g.runtimeConfig()
	rc.ScaleType = c.Scale
	rc.Quality = c.Quality
	if c.Interval > 0 {
		interval := c.Interval
		rc.FrameInterval = &interval
	}
	if c.Background != "" {
		r, gr, b, err := config.ParseHexColor(c.Background)
		if err != nil {
			return nil, err
		}
		rc.BackgroundColorR, rc.BackgroundColorG, rc.BackgroundColorB = &r, &gr, &b
	}
	return rc, nil
}

// options builds the engine options shared by both surfaces
func (c *playCmd) options(rc *config.RuntimeConfig, log player.Logger, mgr *blobcache.Manager) (player.Options, error) {
	st, err := renderer.ParseScaleType(rc.GetScaleType())
	if err != nil {
		return player.Options{}, err
	}
	interp, err := renderer.ParseQuality(rc.GetQuality())
	if err != nil {
		return player.Options{}, err
	}
	r, g, b := rc.GetBackgroundColor()

	opts := player.Options{
		Logger:        log,
		Decoder:       source.FileDecoder{},
		Precache:      c.Precache,
		Background:    color.RGBA{R: r, G: g, B: b, A: 255},
		Quality:       interp,
		ScaleType:     st,
		FrameInterval: rc.GetFrameInterval(),
		RepeatCount:   c.Repeat,
	}
	if !c.NoCache {
		opts.OpenCache = cacheOpener(mgr)
	}
	if c.Label {
		labeler, err := renderer.NewLabeler(config.LabelFontSize)
		if err != nil {
			return player.Options{}, fmt.Errorf("load label font: %w", err)
		}
		opts.Labeler = labeler
	}
	return opts, nil
}

func (c *playCmd) Run(g *Globals) error {
	headless := c.Out != "" || !isTerminal()

	rc, err := c.runtimeConfig(g)
	if err != nil {
		return err
	}
	log, closer, err := g.logger(!headless)
	if err != nil {
		return err
	}
	defer closer.Close()

	seq, err := source.Parse(c.Source)
	if err != nil {
		return err
	}

	mgr := blobcache.NewManager(rc.GetCacheDir())
	defer mgr.CloseAll()

	opts, err := c.options(rc, log, mgr)
	if err != nil {
		return err
	}
	if opts.Labeler != nil {
		defer opts.Labeler.Close()
	}

	log.Debugf("playing %q: %d frames, scale %s, cache %s", seq.ID, seq.Len(), opts.ScaleType, mgr.Dir())

	if headless {
		return c.runHeadless(seq, opts, log)
	}
	return c.runTerminal(seq, opts)
}

func (c *playCmd) runTerminal(seq *frame.Sequence, opts player.Options) error {
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		cols, rows = 0, 0
	}

	var p *tea.Program
	surface := ui.NewTerminalSurface(ui.PreviewForWindow(cols, rows), func(m tea.Msg) { p.Send(m) })
	opts.OnStateChange = func(s player.State) { p.Send(ui.StateMsg{State: s}) }
	opts.OnFrame = func(index, total int) { p.Send(ui.ProgressMsg{Index: index, Total: total}) }

	e, err := player.New(surface, opts)
	if err != nil {
		return err
	}
	model := ui.NewModel(e, surface, seq.ID)
	p = tea.NewProgram(model, tea.WithAltScreen())

	// The engine reports back through p.Send, which blocks until the
	// program loop is running
	go func() {
		e.SetSequence(seq)
		e.OnSurfaceAvailable()
		e.Start()
	}()

	_, runErr := p.Run()

	e.OnSurfaceUnavailable()
	e.Wait()

	if runErr != nil {
		return fmt.Errorf("running UI: %w", runErr)
	}
	fmt.Print(model.CompletionSummary())
	return nil
}

func (c *playCmd) runHeadless(seq *frame.Sequence, opts player.Options, log *cli.Logger) error {
	out := c.Out
	if out == "" {
		out = "frames"
	}
	surface, err := renderer.NewPNGSurface(out, c.Width, c.Height)
	if err != nil {
		return err
	}

	finished := make(chan player.State, 1)
	opts.OnStateChange = func(s player.State) {
		log.Debugf("state %s", s)
		if s == player.StateEnd || s == player.StateDestroy {
			select {
			case finished <- s:
			default:
			}
		}
	}

	e, err := player.New(surface, opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	e.SetSequence(seq)
	e.OnSurfaceAvailable()
	e.Start()

wait:
	for {
		select {
		case <-finished:
			break wait
		case <-ctx.Done():
			log.Infof("interrupted")
			break wait
		case <-surface.Written():
			if surface.Err() != nil {
				break wait
			}
			if c.Frames > 0 && surface.Count() >= c.Frames {
				break wait
			}
		}
	}
	elapsed := time.Since(start)

	e.OnSurfaceUnavailable()
	e.Wait()

	if err := surface.Err(); err != nil {
		return err
	}

	st := e.Stats()
	cli.PrintSummary("Frames written", []cli.SummaryRow{
		{Key: "Sequence", Value: seq.ID},
		{Key: "Output", Value: out},
		{Key: "Frames", Value: fmt.Sprint(surface.Count())},
		{Key: "Cache", Value: fmt.Sprintf("%d hits, %d misses", st.CacheHits, st.CacheMisses)},
		{Key: "Decode errors", Value: fmt.Sprint(st.DecodeErrors)},
		{Key: "Elapsed", Value: cli.FormatDuration(elapsed)},
		{Key: "Rate", Value: cli.FormatRate(int64(surface.Count()), elapsed)},
	})
	return nil
}
