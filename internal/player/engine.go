package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/flipbook/internal/config"
	"github.com/linuxmatters/flipbook/internal/frame"
	"github.com/linuxmatters/flipbook/internal/framecache"
	"github.com/linuxmatters/flipbook/internal/queue"
	"github.com/linuxmatters/flipbook/internal/renderer"
	"golang.org/x/image/math/f64"
	"golang.org/x/sync/semaphore"
)

// ErrNoDecoder is returned by New when Options.Decoder is nil
var ErrNoDecoder = errors.New("player: decoder is required")

// Engine plays a frame sequence onto a RenderHost.
//
// Decoding and rendering each run on their own Looper. Decoded frames move
// from the decode side to the render side through a bounded queue and come
// back through a second one, so at most config.BufferSize pixel buffers
// exist per session. Every control method is safe to call from any
// goroutine.
type Engine struct {
	opts Options
	log  Logger
	host RenderHost

	state stateCell

	decodeLooper *Looper
	renderLooper *Looper
	decoded      *queue.FrameQueue // decode -> render
	recycled     *queue.FrameQueue // render -> decode

	// Held for the duration of one decode or one draw; teardown waits at
	// most config.LockTimeout for each
	decodeLock *semaphore.Weighted
	drawLock   *semaphore.Weighted

	// Frame currently being written by the decoder. Teardown clears it to
	// tell an in-flight decode its buffer is gone.
	scratch atomic.Pointer[frame.Frame]

	sess       atomic.Pointer[session]
	generation atomic.Uint64

	surfaceAlive atomic.Bool
	renderParked atomic.Bool // Render wanted to start while the surface was gone

	scaleType atomic.Int32
	matrix    atomic.Pointer[f64.Aff3]
	interval  atomic.Int64
	repeat    atomic.Int32

	// Render goroutine only
	compositor *renderer.Compositor
	held       *frame.Frame

	// Decode goroutine only
	codec *framecache.Codec

	released chan struct{} // Closed once teardown has dropped the codec's pooled buffers

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	seq *frame.Sequence // Last sequence handed to SetSequence

	stats counters
}

// session is one load of a sequence. Frames carry the session generation
// so the renderer can discard anything decoded for an earlier load.
type session struct {
	seq   *frame.Sequence
	gen   uint64
	cache framecache.Store

	// Decode goroutine only
	decodeIndex int
	decodePass  int

	// Render goroutine only
	drawPass int
}

// New creates an idle engine drawing to host. Call OnSurfaceAvailable once
// the host can accept frames.
func New(host RenderHost, opts Options) (*Engine, error) {
	if opts.Decoder == nil {
		return nil, ErrNoDecoder
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = config.DefaultFrameDuration
	}

	e := &Engine{
		opts:       opts,
		log:        opts.Logger,
		host:       host,
		decodeLock: semaphore.NewWeighted(1),
		drawLock:   semaphore.NewWeighted(1),
		codec:      framecache.NewCodec(),
		released:   make(chan struct{}),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	release := func(f *frame.Frame) { f.Release() }
	e.decoded = queue.New(config.BufferSize, release)
	e.recycled = queue.New(config.BufferSize, release)

	onPanic := func(name string, v interface{}) {
		e.log.Errorf("%s task panicked: %v", name, v)
	}
	e.decodeLooper = NewLooper("decode", onPanic)
	e.renderLooper = NewLooper("render", onPanic)

	e.compositor = renderer.NewCompositor(opts.Background, opts.Quality)
	if opts.Labeler != nil {
		e.compositor.SetLabeler(opts.Labeler)
	}

	e.scaleType.Store(int32(opts.ScaleType))
	m := renderer.Identity
	e.matrix.Store(&m)
	e.interval.Store(int64(opts.FrameInterval))
	e.repeat.Store(int32(opts.RepeatCount))

	return e, nil
}

// SetSequence replaces whatever is playing with seq. The engine returns to
// idle; frames of the previous sequence still in flight are discarded.
// Loading, cache opening and optional precaching happen on the decode
// goroutine.
func (e *Engine) SetSequence(seq *frame.Sequence) {
	if e.state.load() == StateDestroy {
		return
	}
	e.mu.Lock()
	e.seq = seq
	e.mu.Unlock()

	e.reload(seq, false)
}

// Start begins playback. From pause it behaves like Resume; after Stop or
// the end of a one-shot sequence it plays the current sequence again from
// the first frame.
func (e *Engine) Start() {
	e.mu.Lock()
	seq := e.seq
	e.mu.Unlock()
	if seq == nil {
		e.log.Debugf("start ignored: no sequence")
		return
	}

	prev, ok := e.state.transition(StateStart, StateIdle, StatePause)
	if ok {
		if prev == StateIdle {
			e.decodeLooper.Post(e.decodeStep)
		}
		e.startRender()
		e.notify(StateStart)
		return
	}

	if prev == StateStop || prev == StateEnd {
		e.reload(seq, true)
	}
}

// Pause freezes rendering on the current frame. Decoding continues until
// the buffers are full.
func (e *Engine) Pause() {
	if _, ok := e.state.transition(StatePause, StateStart); ok {
		e.notify(StatePause)
	}
}

// Resume continues from a pause
func (e *Engine) Resume() {
	if _, ok := e.state.transition(StateStart, StatePause); ok {
		e.startRender()
		e.notify(StateStart)
	}
}

// Stop halts playback. Start plays again from the beginning.
func (e *Engine) Stop() {
	if _, ok := e.state.transition(StateStop, StateStart, StatePause); ok {
		e.notify(StateStop)
	}
}

// Destroy tears the engine down. Blocked workers are released, pixel
// buffers are dropped and the loopers exit. Safe to call more than once
// and from any goroutine, including engine callbacks.
func (e *Engine) Destroy() {
	if !e.state.destroy() {
		return
	}
	e.cancel()
	e.decodeLooper.Cancel()
	e.renderLooper.Cancel()

	drawHeld := e.tryLock(e.drawLock, "draw")
	decodeHeld := e.tryLock(e.decodeLock, "decode")

	e.decoded.Destroy()
	e.recycled.Destroy()
	e.scratch.Store(nil)
	e.sess.Store(nil)

	if decodeHeld {
		e.decodeLock.Release(1)
	}
	if drawHeld {
		e.drawLock.Release(1)
	}

	e.decodeLooper.Quit()
	e.renderLooper.Quit()
	go func() {
		<-e.decodeLooper.Done()
		e.codec.Clear()
		close(e.released)
	}()

	e.log.Debugf("engine destroyed")
	e.notify(StateDestroy)
}

// Wait blocks until both worker goroutines have exited after Destroy and
// the decode scratch buffers are released
func (e *Engine) Wait() {
	<-e.decodeLooper.Done()
	<-e.renderLooper.Done()
	<-e.released
}

// OnSurfaceAvailable tells the engine the host can draw again. A render
// chain that was parked waiting for the surface starts now.
func (e *Engine) OnSurfaceAvailable() {
	e.surfaceAlive.Store(true)
	if e.renderParked.CompareAndSwap(true, false) && e.state.load() == StateStart {
		e.renderLooper.Restart(e.renderStep)
	}
}

// OnSurfaceUnavailable tells the engine the surface is gone for good. Any
// in-flight draw gets up to config.LockTimeout to finish, then the engine
// is destroyed.
func (e *Engine) OnSurfaceUnavailable() {
	e.surfaceAlive.Store(false)
	if e.tryLock(e.drawLock, "draw") {
		e.drawLock.Release(1)
	}
	e.Destroy()
}

// SetScaleType changes how frames are fitted from the next drawn frame on
func (e *Engine) SetScaleType(st renderer.ScaleType) {
	e.scaleType.Store(int32(st))
}

// ScaleType returns the current scale type
func (e *Engine) ScaleType() renderer.ScaleType {
	return renderer.ScaleType(e.scaleType.Load())
}

// SetMatrix sets the transform used with renderer.ScaleMatrix
func (e *Engine) SetMatrix(m f64.Aff3) {
	e.matrix.Store(&m)
}

// SetFrameInterval sets the duration used for frames that carry none
func (e *Engine) SetFrameInterval(d time.Duration) {
	if d <= 0 {
		d = config.DefaultFrameDuration
	}
	e.interval.Store(int64(d))
}

// SetRepeatCount sets how many passes a looping sequence plays; 0 or less
// loops forever. One-shot sequences ignore it.
func (e *Engine) SetRepeatCount(n int) {
	e.repeat.Store(int32(n))
}

// State returns the lifecycle state
func (e *Engine) State() State {
	return e.state.load()
}

// IsPaused reports whether playback is paused
func (e *Engine) IsPaused() bool {
	return e.state.load() == StatePause
}

// IsDestroyed reports whether Destroy has run
func (e *Engine) IsDestroyed() bool {
	return e.state.load() == StateDestroy
}

// Sequence returns the sequence last passed to SetSequence
func (e *Engine) Sequence() *frame.Sequence {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Stats returns a snapshot of the engine counters
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

// reload cancels both chains, empties the queues and posts a load of seq.
// The queues reopen immediately; only a destroyed engine rejects frames.
func (e *Engine) reload(seq *frame.Sequence, autoStart bool) {
	if _, ok := e.state.transition(StateIdle); !ok {
		return
	}
	e.decodeLooper.Cancel()
	e.renderLooper.Cancel()
	e.sess.Store(nil)
	e.resetBuffers()

	gen := e.generation.Add(1)
	e.decodeLooper.Post(func(uint64) {
		e.load(seq, gen, autoStart)
	})
	e.notify(StateIdle)
}

func (e *Engine) resetBuffers() {
	drawHeld := e.tryLock(e.drawLock, "draw")
	decodeHeld := e.tryLock(e.decodeLock, "decode")

	e.decoded.ResetData()
	e.recycled.ResetData()
	e.scratch.Store(nil)

	if decodeHeld {
		e.decodeLock.Release(1)
	}
	if drawHeld {
		e.drawLock.Release(1)
	}
}

// load runs on the decode goroutine
func (e *Engine) load(seq *frame.Sequence, gen uint64, autoStart bool) {
	if e.state.load() == StateDestroy || e.generation.Load() != gen {
		return
	}
	if seq.Len() == 0 {
		e.log.Errorf("sequence %q has no frames", seqID(seq))
		return
	}

	s := &session{seq: seq, gen: gen}

	if e.opts.OpenCache != nil {
		store, err := e.opts.OpenCache(seq)
		if err != nil {
			e.log.Errorf("cache unavailable for %q, playing without it: %v", seqID(seq), err)
		} else {
			s.cache = store
		}
	}

	if e.opts.Precache && s.cache != nil {
		st, err := framecache.Precache(e.ctx, s.cache, e.codec, seq, e.opts.Decoder, nil)
		if err != nil {
			e.log.Debugf("precache stopped: %v", err)
			return
		}
		e.log.Infof("precached %q: %d stored, %d present, %d failed", seqID(seq), st.Cached, st.Present, st.Failed)
		if e.generation.Load() != gen {
			return
		}
	}

	// Fresh buffers for the new session; Offer stops once the queue is full
	for e.recycled.Offer(frame.New()) {
	}

	e.sess.Store(s)
	e.log.Debugf("loaded %q: %d frames, generation %d", seqID(seq), seq.Len(), gen)

	if autoStart {
		e.Start()
		return
	}
	if e.state.load() == StateStart {
		e.startRender()
	}
}

// decodeStep decodes one frame and reposts itself. It parks in Take when
// every buffer is waiting to be drawn.
func (e *Engine) decodeStep(token uint64) {
	if st := e.state.load(); st != StateStart && st != StatePause {
		return
	}
	s := e.sess.Load()
	if s == nil {
		return
	}

	idx := s.decodeIndex
	if idx >= s.seq.Len() {
		s.decodePass++
		if passes := s.seq.Passes(int(e.repeat.Load())); passes > 0 && s.decodePass >= passes {
			e.log.Debugf("decode finished after %d passes", s.decodePass)
			return
		}
		idx = 0
		s.decodeIndex = 0
	}

	f, ok := e.recycled.Take()
	if !ok {
		return
	}
	if e.sess.Load() != s || e.state.load().Terminal() {
		e.recycle(f)
		return
	}

	if !e.decodeInto(s, idx, f) {
		e.recycle(f)
		return
	}
	if !e.decoded.Put(f) {
		return
	}

	s.decodeIndex = idx + 1
	e.decodeLooper.Repost(token, 0, e.decodeStep)
}

// decodeInto fills f with frame idx, from the cache when possible. It
// returns false when teardown took the buffer away mid-decode.
func (e *Engine) decodeInto(s *session, idx int, f *frame.Frame) bool {
	if err := e.decodeLock.Acquire(e.ctx, 1); err != nil {
		return false
	}
	defer e.decodeLock.Release(1)

	e.scratch.Store(f)
	defer e.scratch.CompareAndSwap(f, nil)

	d := s.seq.At(idx)
	f.Index = idx
	f.Generation = s.gen
	w, h := f.Width, f.Height

	if s.cache != nil {
		res, err := e.codec.Load(s.cache, d.LogicalName, f)
		switch {
		case err != nil:
			e.stats.cacheErrors.Add(1)
			e.log.Errorf("cache read for %s: %v", d.LogicalName, err)
		case res.Hit:
			e.stats.cacheHits.Add(1)
			e.finishDecode(f, w, h)
			return e.scratch.Load() == f
		default:
			e.stats.cacheMisses.Add(1)
		}
	}

	if e.scratch.Load() != f {
		return false
	}

	if err := e.opts.Decoder.Decode(d, f); err != nil {
		// Keep the slot so timing is unaffected; the renderer skips it
		e.stats.decodeErrors.Add(1)
		e.log.Errorf("decode frame %d (%s): %v", idx, d.SourceRef, err)
		f.Stale = true
		return e.scratch.Load() == f
	}
	e.finishDecode(f, w, h)

	if s.cache != nil && e.scratch.Load() == f {
		if err := e.codec.Save(s.cache, d.LogicalName, f); err != nil {
			e.stats.cacheErrors.Add(1)
			e.log.Errorf("cache write for %s: %v", d.LogicalName, err)
		}
	}
	return e.scratch.Load() == f
}

func (e *Engine) finishDecode(f *frame.Frame, prevW, prevH int) {
	f.Stale = false
	e.stats.framesDecoded.Add(1)
	if f.Width != prevW || f.Height != prevH {
		e.stats.bufferReallocs.Add(1)
		e.log.Debugf("frame %d buffer resized %dx%d -> %dx%d", f.Index, prevW, prevH, f.Width, f.Height)
	}
}

// renderStep draws one frame and reposts itself after that frame's
// duration
func (e *Engine) renderStep(token uint64) {
	if e.state.load() != StateStart {
		return
	}
	if !e.surfaceAlive.Load() {
		e.renderParked.Store(true)
		return
	}

	f := e.held
	e.held = nil
	if f == nil {
		var ok bool
		if f, ok = e.decoded.Take(); !ok {
			return
		}
	}

	s := e.sess.Load()
	if s == nil || f.Generation != s.gen {
		e.stats.staleDropped.Add(1)
		e.recycle(f)
		if s != nil {
			e.renderLooper.Repost(token, 0, e.renderStep)
		}
		return
	}

	if e.state.load() != StateStart {
		// Paused while waiting for the frame
		e.held = f
		return
	}

	canvas, ok := e.host.AcquireDrawTarget()
	if !ok {
		e.held = f
		e.stats.skippedTicks.Add(1)
		e.renderLooper.Repost(token, e.frameInterval(), e.renderStep)
		return
	}

	if err := e.drawLock.Acquire(e.ctx, 1); err != nil {
		e.held = f
		return
	}
	if e.surfaceAlive.Load() && !f.Stale {
		label := ""
		if e.opts.Labeler != nil {
			label = fmt.Sprintf("%d/%d", f.Index+1, s.seq.Len())
		}
		e.compositor.Compose(canvas, f, renderer.ScaleType(e.scaleType.Load()), *e.matrix.Load(), label)
		e.host.Submit(canvas)
		e.stats.framesRendered.Add(1)
	}
	e.drawLock.Release(1)

	idx := f.Index
	e.recycle(f)

	if e.opts.OnFrame != nil {
		e.opts.OnFrame(idx, s.seq.Len())
	}

	if s.seq.IsLast(idx) {
		s.drawPass++
		if passes := s.seq.Passes(int(e.repeat.Load())); passes > 0 && s.drawPass >= passes {
			if _, ok := e.state.transition(StateEnd, StateStart); ok {
				e.log.Infof("finished %q after %d passes", seqID(s.seq), s.drawPass)
				e.notify(StateEnd)
			}
			return
		}
	}

	e.renderLooper.Repost(token, s.seq.At(idx).Duration(e.frameInterval()), e.renderStep)
}

func (e *Engine) startRender() {
	if e.state.load() != StateStart {
		return
	}
	if !e.surfaceAlive.Load() {
		e.renderParked.Store(true)
		// The surface may have come back between the two loads
		if !e.surfaceAlive.Load() || !e.renderParked.CompareAndSwap(true, false) {
			return
		}
	}
	e.renderLooper.Restart(e.renderStep)
}

func (e *Engine) recycle(f *frame.Frame) {
	if !e.recycled.Offer(f) {
		f.Release()
	}
}

func (e *Engine) frameInterval() time.Duration {
	return time.Duration(e.interval.Load())
}

// tryLock acquires sem, giving up after config.LockTimeout
func (e *Engine) tryLock(sem *semaphore.Weighted, name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), config.LockTimeout)
	defer cancel()
	if err := sem.Acquire(ctx, 1); err != nil {
		e.log.Debugf("%s lock busy after %v, continuing", name, config.LockTimeout)
		return false
	}
	return true
}

func (e *Engine) notify(s State) {
	if e.opts.OnStateChange != nil {
		e.opts.OnStateChange(s)
	}
}

func seqID(s *frame.Sequence) string {
	if s == nil || s.ID == "" {
		return "untitled"
	}
	return s.ID
}
