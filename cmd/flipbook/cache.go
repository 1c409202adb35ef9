package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/flipbook/internal/blobcache"
	"github.com/linuxmatters/flipbook/internal/cli"
	"github.com/linuxmatters/flipbook/internal/frame"
	"github.com/linuxmatters/flipbook/internal/framecache"
	"github.com/linuxmatters/flipbook/internal/player"
	"github.com/linuxmatters/flipbook/internal/source"
	"github.com/linuxmatters/flipbook/internal/ui"
)

// cacheOptions maps a sequence's cache attributes onto blob store limits
func cacheOptions(seq *frame.Sequence) blobcache.Options {
	return blobcache.Options{
		MaxEntries: int(seq.CacheMaxEntries),
		MaxBytes:   int64(seq.CacheMaxBytes),
		Version:    seq.CacheVersion,
	}
}

// cacheOpener opens each sequence's cache through mgr
func cacheOpener(mgr *blobcache.Manager) player.CacheOpener {
	return func(seq *frame.Sequence) (framecache.Store, error) {
		c, err := mgr.Open(seq.ID, cacheOptions(seq))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type precacheCmd struct {
	Source string `arg:"" help:"Image directory, animation-list or frame-list XML" type:"existingpath"`
}

func (c *precacheCmd) Run(g *Globals) error {
	tui := isTerminal()
	log, closer, err := g.logger(tui)
	if err != nil {
		return err
	}
	defer closer.Close()

	seq, err := source.Parse(c.Source)
	if err != nil {
		return err
	}

	mgr := blobcache.NewManager(g.runtimeConfig().GetCacheDir())
	store, err := mgr.Open(seq.ID, cacheOptions(seq))
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(seq.ID, seq.CacheVersion); err != nil {
			log.Errorf("close cache %s: %v", seq.ID, err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if tui {
		return runPrecacheTUI(ctx, seq, store)
	}

	start := time.Now()
	stats, err := framecache.Precache(ctx, store, framecache.NewCodec(), seq, source.FileDecoder{},
		func(done, total int, name string, cached bool) {
			log.Debugf("[%d/%d] %s cached=%v", done, total, name, cached)
		})
	if err != nil {
		return err
	}

	cs := store.Stats()
	cli.PrintSummary("Cache ready", []cli.SummaryRow{
		{Key: "Sequence", Value: seq.ID},
		{Key: "Stored", Value: fmt.Sprint(stats.Cached)},
		{Key: "Present", Value: fmt.Sprint(stats.Present)},
		{Key: "Failed", Value: fmt.Sprint(stats.Failed)},
		{Key: "Cache", Value: fmt.Sprintf("%d entries, %s", cs.Entries, cli.FormatBytes(cs.Bytes))},
		{Key: "Elapsed", Value: cli.FormatDuration(time.Since(start))},
	})
	return nil
}

func runPrecacheTUI(ctx context.Context, seq *frame.Sequence, store *blobcache.Cache) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewPrecacheModel(seq.ID)
	p := tea.NewProgram(model)

	done := make(chan error, 1)
	go func() {
		start := time.Now()
		stats, err := framecache.Precache(ctx, store, framecache.NewCodec(), seq, source.FileDecoder{},
			func(n, total int, name string, cached bool) {
				p.Send(ui.PrecacheProgress{Done: n, Total: total, Name: name, Cached: cached})
			})
		cs := store.Stats()
		p.Send(ui.PrecacheComplete{
			Stats:      stats,
			Elapsed:    time.Since(start),
			Entries:    cs.Entries,
			CacheBytes: cs.Bytes,
			Err:        err,
		})
		done <- err
	}()

	_, runErr := p.Run()
	// Quitting early interrupts the pass; entries written so far stay
	cancel()
	err := <-done

	if runErr != nil {
		return fmt.Errorf("running UI: %w", runErr)
	}
	if summary := model.CompletionSummary(); summary != "" {
		fmt.Print(summary)
	}
	return err
}

type pruneCmd struct {
	Source string `arg:"" help:"Sequence whose current cache version is kept" type:"existingpath"`
}

func (c *pruneCmd) Run(g *Globals) error {
	seq, err := source.Parse(c.Source)
	if err != nil {
		return err
	}

	mgr := blobcache.NewManager(g.runtimeConfig().GetCacheDir())
	removed, err := mgr.Prune(seq.ID, seq.CacheVersion)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		cli.PrintSuccess(fmt.Sprintf("nothing to prune for %s (version %d)", seq.ID, seq.CacheVersion))
		return nil
	}
	for _, path := range removed {
		cli.PrintInfo("Removed", filepath.Base(path))
	}
	cli.PrintSuccess(fmt.Sprintf("pruned %d files for %s", len(removed), seq.ID))
	return nil
}

type clearCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

func (c *clearCmd) Run(g *Globals) error {
	mgr := blobcache.NewManager(g.runtimeConfig().GetCacheDir())

	if !c.Yes {
		cli.PrintWarning(fmt.Sprintf("this deletes everything in %s; pass --yes to confirm", mgr.Dir()))
		return nil
	}
	if err := mgr.Clear(); err != nil {
		return err
	}
	cli.PrintSuccess("cleared " + mgr.Dir())
	return nil
}
