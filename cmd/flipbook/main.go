package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/flipbook/internal/cli"
	"github.com/linuxmatters/flipbook/internal/config"
	"github.com/linuxmatters/flipbook/internal/renderer"
	"golang.org/x/term"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

// versionFlag prints the styled version banner and exits before any
// required arguments are checked
type versionFlag bool

func (versionFlag) BeforeReset(app *kong.Kong) error {
	cli.PrintVersion(version)
	app.Exit(0)
	return nil
}

// Globals are flags shared by every command
type Globals struct {
	CacheDir string      `help:"Frame cache directory (default: user cache dir)" placeholder:"DIR" type:"path"`
	LogLevel string      `help:"Log level: debug, info, error or silent" default:"info"`
	Log      string      `help:"Write log lines to this file; the terminal player logs nowhere else" placeholder:"FILE" type:"path"`
	Version  versionFlag `help:"Show version information"`
}

var CLI struct {
	Globals

	Play     playCmd     `cmd:"" default:"withargs" help:"Play a frame sequence"`
	Precache precacheCmd `cmd:"" help:"Decode a sequence into the frame cache"`
	Cache    struct {
		Prune pruneCmd `cmd:"" help:"Delete cached versions a sequence no longer uses"`
		Clear clearCmd `cmd:"" help:"Delete the whole frame cache"`
	} `cmd:"" help:"Manage the frame cache"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("flipbook"),
		kong.Description("Play image sequences in the terminal with a persistent frame cache."),
		kong.Vars{
			"version":         version,
			"default_scale":   config.DefaultScaleType,
			"default_quality": config.DefaultQuality,
			"default_width":   fmt.Sprint(config.HeadlessWidth),
			"default_height":  fmt.Sprint(config.HeadlessHeight),
			"scale_types":     fmt.Sprint(renderer.ScaleTypeNames()),
		},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if err := ctx.Run(&CLI.Globals); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// runtimeConfig collects the shared overrides
func (g *Globals) runtimeConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{CacheDir: g.CacheDir}
}

// logger builds the log sink. When the terminal UI owns the screen only
// --log receives output.
func (g *Globals) logger(tui bool) (*cli.Logger, io.Closer, error) {
	level, err := cli.ParseLevel(g.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if g.Log != "" {
		f, err := tea.LogToFile(g.Log, "flipbook")
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return cli.NewLogger(f, level), f, nil
	}
	if tui {
		return cli.NewLogger(io.Discard, cli.LevelSilent), nopCloser{}, nil
	}
	return cli.NewLogger(os.Stderr, level), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
