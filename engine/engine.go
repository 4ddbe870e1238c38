package engine

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-clouds/engine/profiler"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
)

// frameTaskBuffer bounds the number of RunOnFrame tasks waiting for the next frame.
const frameTaskBuffer = 16

// engine implements the Engine interface.
// Coordinates the fixed tick and frame goroutines.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	frameTasks      chan func()        // Work handed over from other goroutines, run at the start of a frame

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	// tickMu serializes frame and fixed ticks so components never run concurrently
	tickMu sync.Mutex

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  func(deltaTime float32)

	scenesMu sync.RWMutex
	scenes   map[int]scene.Scene

	frameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames  uint64        // quit after this many frames; 0 = unlimited

	frames      atomic.Uint64
	fixedTicks  atomic.Uint64
	initialized bool
}

// Engine is the main entry point for the engine.
// It orchestrates a fixed-rate tick loop and a variable-rate frame loop over the registered scenes.
type Engine interface {
	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine fixed tick rate in ticks per second.
	// FixedTick is called on every active scene at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 50 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called after each fixed tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called after each frame.
	//
	// Parameters:
	//   - callback: function to call each frame, receiving the delta time in seconds
	SetFrameCallback(callback func(deltaTime float32))

	// SetFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the frame loop.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetFrameLimit(fps float64)

	// AddScene registers a scene at the given key.
	// Scenes are ticked in ascending key order.
	//
	// Parameters:
	//   - key: the order key (lower ticks first)
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by order key.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Initialize activates every registered scene in key order. Run calls it if it has not
	// been called yet.
	//
	// Returns:
	//   - error: the joined scene initialization errors, or nil
	Initialize() error

	// RunOnFrame hands fn to the frame loop. It runs at the start of the next frame while
	// the tick lock is held, so it may safely mutate components. If too many tasks are
	// pending the call blocks until the frame loop catches up.
	//
	// Parameters:
	//   - fn: the work to run
	RunOnFrame(fn func())

	// StepFrame runs one frame synchronously: pending RunOnFrame tasks, then Tick on every
	// active scene, then the frame callback.
	//
	// Parameters:
	//   - deltaTime: the frame delta in seconds
	StepFrame(deltaTime float32)

	// StepFixed runs one fixed tick synchronously.
	//
	// Parameters:
	//   - deltaTime: the fixed delta in seconds
	StepFixed(deltaTime float32)

	// FrameCount returns the number of frames run so far.
	//
	// Returns:
	//   - uint64: the frame count
	FrameCount() uint64

	// FixedTickCount returns the number of fixed ticks run so far.
	//
	// Returns:
	//   - uint64: the fixed tick count
	FixedTickCount() uint64

	// Run starts the fixed tick and frame loops and blocks until Quit is called or the
	// frame budget is reached, then shuts every scene down.
	Run()

	// Shutdown shuts every registered scene down in reverse key order.
	Shutdown()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		frameTasks:      make(chan func(), frameTaskBuffer),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 50,
	}

	for _, opt := range options {
		opt(e)
	}

	e.profiler.SetDispatchCounter(e.dispatchCount)
	return e
}

func (e *engine) Run() {
	if err := e.Initialize(); err != nil {
		log.Printf("[Engine] %v", err)
	}
	e.running.Store(true)
	e.handle()
	e.wg.Wait()
	e.running.Store(false)
	e.Shutdown()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the fixed tick, frame, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleFrame()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Fires FixedTick at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.recoverAndQuit("fixed tick")

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.StepFixed(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleFrame runs the uncapped (or frame-limited) frame loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleFrame() {
	defer e.wg.Done()
	defer e.recoverAndQuit("frame")

	lastFrame := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastFrame).Seconds())
			lastFrame = now

			e.StepFrame(dt)

			if e.maxFrames > 0 && e.frames.Load() >= e.maxFrames {
				log.Printf("[Engine] frame budget of %d reached, quitting", e.maxFrames)
				e.signalQuit()
				return
			}

			// Frame rate limiting
			if e.frameLimit > 0 {
				elapsed := time.Since(now)
				if remaining := e.frameLimit - elapsed; remaining > 0 {
					select {
					case <-e.quitChannel:
						return
					case <-time.After(remaining):
					}
				}
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// recoverAndQuit recovers a panic inside an engine goroutine, logs it, and signals quit.
func (e *engine) recoverAndQuit(loop string) {
	if r := recover(); r != nil {
		log.Printf("[Engine] %s goroutine recovered from panic: %v", loop, r)
		e.signalQuit()
	}
}

func (e *engine) StepFrame(deltaTime float32) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.drainFrameTasks()
	for _, s := range e.activeScenes() {
		s.Tick(deltaTime)
	}
	if e.frameCallback != nil {
		e.frameCallback(deltaTime)
	}
	e.frames.Add(1)

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
}

func (e *engine) StepFixed(deltaTime float32) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	for _, s := range e.activeScenes() {
		s.FixedTick(deltaTime)
	}
	if e.tickCallback != nil {
		e.tickCallback(deltaTime)
	}
	e.fixedTicks.Add(1)

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.FixedTick()
	}
}

// drainFrameTasks runs every pending RunOnFrame task without blocking.
func (e *engine) drainFrameTasks() {
	for {
		select {
		case fn := <-e.frameTasks:
			fn()
		default:
			return
		}
	}
}

func (e *engine) RunOnFrame(fn func()) {
	if fn == nil {
		return
	}
	select {
	case e.frameTasks <- fn:
	case <-e.quitChannel:
	}
}

// sortedScenes returns the registered scenes in ascending key order.
func (e *engine) sortedScenes() []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		out = append(out, e.scenes[k])
	}
	return out
}

// activeScenes returns the active scenes in ascending key order.
func (e *engine) activeScenes() []scene.Scene {
	all := e.sortedScenes()
	active := all[:0]
	for _, s := range all {
		if s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// dispatchCount sums compute dispatches over the distinct renderers of all scenes.
func (e *engine) dispatchCount() uint64 {
	seen := make(map[renderer.Renderer]struct{})
	var total uint64
	for _, s := range e.sortedScenes() {
		r := s.Renderer()
		if r == nil {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		total += r.DispatchCount()
	}
	return total
}

func (e *engine) Initialize() error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	if e.initialized {
		return nil
	}
	e.initialized = true

	var errs []error
	for _, s := range e.sortedScenes() {
		if err := s.Initialize(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("engine: failed to initialize scenes: %w", err)
	}
	return nil
}

func (e *engine) Shutdown() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	scenes := e.sortedScenes()
	for i := len(scenes) - 1; i >= 0; i-- {
		scenes[i].Shutdown()
	}
	e.initialized = false
}

func (e *engine) FrameCount() uint64 {
	return e.frames.Load()
}

func (e *engine) FixedTickCount() uint64 {
	return e.fixedTicks.Load()
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 50
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback func(deltaTime float32)) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.frameCallback = callback
}

// SetFrameLimit sets an optional frame rate cap.
// Pass 0 to uncap the frame loop.
func (e *engine) SetFrameLimit(fps float64) {
	if fps <= 0 {
		e.frameLimit = 0
		return
	}
	e.frameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
