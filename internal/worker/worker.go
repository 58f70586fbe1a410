package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/edgespell/spellbridge/internal/codec"
	"github.com/edgespell/spellbridge/internal/config"
	"github.com/edgespell/spellbridge/internal/contract"
	"github.com/edgespell/spellbridge/internal/spell"
	"github.com/edgespell/spellbridge/internal/wasm"
	"github.com/edgespell/spellbridge/pkg/suggest"
)

// Worker hosts one spell.Checker (and its private runtime) in its own
// goroutine and exposes it to a controller over a pair of message channels.
// No memory is shared with the controller: every payload crossing the
// channels is an independent copy.
//
// Requests are processed one at a time, synchronously, in arrival order.
type Worker struct {
	requests  chan Request
	responses chan Response

	init   Init
	logger *zap.Logger

	// buildStack assembles the worker's private bridge stack. Tests swap in
	// a stack backed by an in-process guest.
	buildStack func(ctx context.Context) (*spell.Checker, *wasm.Runtime, suggest.LookupOptions, error)

	quit chan struct{}
	done chan struct{}
}

// Start launches a worker. The controller reads Responses() for the Ready
// sentinel (or a terminal Error) before sending any request.
func Start(ctx context.Context, logger *zap.Logger, init Init) *Worker {
	w := &Worker{
		requests:  make(chan Request),
		responses: make(chan Response),
		init:      init,
		logger:    logger.With(zap.String("component", "spell-worker")),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	w.buildStack = w.initialize
	go w.run(ctx)
	return w
}

// Requests is the controller-to-worker channel.
func (w *Worker) Requests() chan<- Request {
	return w.requests
}

// Responses is the worker-to-controller channel. It is closed when the
// worker exits, whether from Stop, context cancellation, or a terminal
// initialization error.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

// Stop asks the worker to exit. It does not interrupt an in-flight guest
// call; there is no way to abort one.
func (w *Worker) Stop() {
	select {
	case <-w.quit:
	default:
		close(w.quit)
	}
	<-w.done
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.responses)

	checker, runtime, defaults, err := w.buildStack(ctx)
	if runtime != nil {
		defer runtime.Close(context.Background())
	}
	if err != nil {
		// Initialization failure is terminal: one error message, no Ready,
		// worker exits. The controller must discard it.
		w.logger.Error("Worker initialization failed", zap.Error(err))
		w.send(ctx, Error{Message: err.Error()})
		return
	}

	w.send(ctx, Ready{})
	w.logger.Info("Worker ready")

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.quit:
			return
		case req := <-w.requests:
			w.send(ctx, w.handle(ctx, checker, defaults, req))
		}
	}
}

// initialize builds the worker's private bridge stack and streams every
// dictionary source into the guest.
func (w *Worker) initialize(ctx context.Context) (*spell.Checker, *wasm.Runtime, suggest.LookupOptions, error) {
	var none suggest.LookupOptions

	cfg, err := config.Load(w.init.ConfigPath)
	if err != nil {
		return nil, nil, none, fmt.Errorf("load config: %w", err)
	}

	ct, err := contract.Load(cfg.ContractPath)
	if err != nil {
		return nil, nil, none, err
	}

	opts := spell.Options{
		MaxDictionaryEditDistance: cfg.MaxDictionaryEditDistance,
		CountThreshold:            cfg.CountThreshold,
		ChunkSize:                 cfg.ChunkSize,
	}
	if len(w.init.OptionsJSON) > 0 {
		if err := json.Unmarshal(w.init.OptionsJSON, &opts); err != nil {
			return nil, nil, none, fmt.Errorf("decode options: %w", err)
		}
	}

	runtime, err := wasm.NewRuntime(ctx, w.logger, ct, &wasm.Config{
		MemoryPages: cfg.MemoryPages,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return nil, nil, none, err
	}

	compiled, err := wasm.NewLoader(runtime, w.logger).LoadFile(ctx, w.init.ModulePath)
	if err != nil {
		return nil, runtime, none, err
	}

	instance, err := runtime.Instantiate(ctx, compiled)
	if err != nil {
		return nil, runtime, none, err
	}

	checker, err := spell.New(ctx, instance, ct, codec.UTF8(), opts, w.logger)
	if err != nil {
		return nil, runtime, none, err
	}

	if err := w.ingestFile(ctx, checker, w.init.DictionaryPath, false); err != nil {
		return nil, runtime, none, err
	}
	if w.init.BigramPath != "" {
		if err := w.ingestFile(ctx, checker, w.init.BigramPath, true); err != nil {
			return nil, runtime, none, err
		}
	}

	defaults := suggest.LookupOptions{
		Verbosity:       suggest.Closest,
		MaxEditDistance: opts.MaxDictionaryEditDistance,
	}
	return checker, runtime, defaults, nil
}

func (w *Worker) ingestFile(ctx context.Context, checker *spell.Checker, path string, bigram bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dictionary %s: %w", path, err)
	}
	defer f.Close()

	w.logger.Info("Ingesting dictionary",
		zap.String("path", path),
		zap.Bool("bigram", bigram),
	)
	return checker.IngestReader(ctx, f, bigram)
}

// handle serves one request. The raw result window is already an
// independent copy by the time it leaves the checker.
func (w *Worker) handle(ctx context.Context, checker *spell.Checker, defaults suggest.LookupOptions, req Request) Response {
	opts := defaults
	if req.Options != nil {
		opts = *req.Options
	}

	var (
		payload []byte
		err     error
	)
	if strings.IndexFunc(req.Word, unicode.IsSpace) >= 0 {
		payload, err = checker.LookupCompoundRaw(ctx, req.Word, opts.MaxEditDistance)
	} else {
		payload, err = checker.LookupRaw(ctx, req.Word, opts)
	}
	if err != nil {
		return Error{Message: err.Error()}
	}
	return Result{Payload: payload}
}

func (w *Worker) send(ctx context.Context, resp Response) {
	select {
	case w.responses <- resp:
	case <-ctx.Done():
	case <-w.quit:
	}
}
