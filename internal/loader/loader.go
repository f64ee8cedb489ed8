// Package loader decodes scene assets on a background goroutine and hands
// the finished scene to the render thread over a channel.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/Faultbox/meshspy/internal/logger"
	"github.com/Faultbox/meshspy/pkg/formats"
	"github.com/Faultbox/meshspy/pkg/scene"
)

var (
	// ErrBusy is returned by Request while another load is in flight.
	ErrBusy = errors.New("a load is already in progress")
	// ErrDecodePanic marks a result whose decoder panicked.
	ErrDecodePanic = errors.New("decoder panicked")
)

// DecodeFunc turns a file into a scene. It must not touch the GPU.
type DecodeFunc func(ctx context.Context, path string) (*scene.Data, error)

// Options configure a Loader.
type Options struct {
	// Decode overrides the glTF decoder.
	Decode         DecodeFunc
	MaxTextureSize int
	Workers        int
	Logger         *zap.Logger
}

// Result is the outcome of one Request. Exactly one of Scene and Err is set.
type Result struct {
	Path    string
	Scene   *scene.Data
	Err     error
	Elapsed time.Duration
}

// Loader runs at most one decode at a time.
type Loader struct {
	decode  DecodeFunc
	log     *zap.Logger
	sem     *semaphore.Weighted
	busy    atomic.Bool
	results chan Result
	wg      sync.WaitGroup
}

// New creates a loader. Results must be drained with Poll or Results.
func New(opts Options) *Loader {
	log := opts.Logger
	if log == nil {
		log = logger.Named("loader")
	}
	decode := opts.Decode
	if decode == nil {
		gltfOpts := formats.GLTFOptions{
			MaxTextureSize: opts.MaxTextureSize,
			Workers:        opts.Workers,
			Logger:         log,
		}
		decode = func(ctx context.Context, path string) (*scene.Data, error) {
			return formats.DecodeGLTF(ctx, path, gltfOpts)
		}
	}
	return &Loader{
		decode:  decode,
		log:     log,
		sem:     semaphore.NewWeighted(1),
		results: make(chan Result, 1),
	}
}

// Request starts decoding path in the background. It returns ErrBusy
// without side effects if a previous request has not delivered its result.
func (l *Loader) Request(path string) error {
	if !l.sem.TryAcquire(1) {
		l.log.Warn("load rejected, loader busy", zap.String("path", path))
		return ErrBusy
	}
	l.busy.Store(true)
	l.log.Info("loading", zap.String("path", path))

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.sem.Release(1)
		defer l.busy.Store(false)

		l.results <- l.run(path)
	}()
	return nil
}

func (l *Loader) run(path string) Result {
	start := time.Now()
	data, err := l.decodeSafe(path)
	res := Result{Path: path, Elapsed: time.Since(start)}

	switch {
	case err != nil:
		res.Err = err
		l.log.Error("load failed", zap.String("path", path), zap.Error(err))
	case data == nil:
		res.Err = errors.New("decoder returned no scene")
		l.log.Error("load failed", zap.String("path", path), zap.Error(res.Err))
	default:
		data.Success = true
		data.Error = ""
		res.Scene = data
		st := data.Stats()
		l.log.Info("loaded",
			zap.String("path", path),
			zap.Int("meshes", st.Meshes),
			zap.Int("vertices", st.Vertices),
			zap.Int("triangles", st.Triangles),
			zap.Int("textures", st.Textures),
			zap.Duration("elapsed", res.Elapsed),
		)
	}
	return res
}

// decodeSafe runs the decoder, turning a panic into ErrDecodePanic so a
// malformed asset is reported like any other failed load.
func (l *Loader) decodeSafe(path string) (data *scene.Data, err error) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("decoder panicked", zap.String("path", path), zap.Any("panic", r), zap.Stack("stack"))
			data, err = nil, fmt.Errorf("%w: %v", ErrDecodePanic, r)
		}
	}()
	return l.decode(context.Background(), path)
}

// Results exposes the result channel for select loops.
func (l *Loader) Results() <-chan Result { return l.results }

// Poll returns a finished result without blocking.
func (l *Loader) Poll() (Result, bool) {
	select {
	case res := <-l.results:
		return res, true
	default:
		return Result{}, false
	}
}

// Busy reports whether a request is decoding or waiting to deliver.
func (l *Loader) Busy() bool { return l.busy.Load() }

// Wait blocks until every started request has delivered its result. The
// result channel holds one value, so callers draining with Poll must do so
// before or concurrently with Wait.
func (l *Loader) Wait() { l.wg.Wait() }
