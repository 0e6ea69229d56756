package recognize

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"screen-ocr/internal/domain"
	"screen-ocr/internal/engine"
	"screen-ocr/internal/imgops"
)

const (
	// DefaultMaxPixels caps the upscaled image area.
	DefaultMaxPixels = 16_000_000

	unsharpRadius = 10
	unsharpAmount = 1.0
)

// Request contains one captured image and execution callbacks for one run.
type Request struct {
	JobID       string
	Image       image.Image
	LangIndices []int
	Features    domain.Features
	OnStage     func(stage domain.JobStatus)
	OnProgress  func(percent int)
}

// Result is the recognized text of a successful run.
type Result struct {
	Text string
}

// PipelineError is a stage-aware recognition failure.
type PipelineError struct {
	Stage   domain.JobStatus `json:"stage"`
	Message string           `json:"message"`
	Err     error            `json:"-"`
}

// Error formats pipeline failures for logs and results.
func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Options tunes preprocessing.
type Options struct {
	MaxPixels int64
	DebugDump bool
	DebugDir  string
	Logger    *slog.Logger
}

// Pipeline preprocesses an image and hands it to a recognizer.
type Pipeline struct {
	recognizer engine.Recognizer
	maxPixels  int64
	dumper     *imgops.DebugDumper
	logger     *slog.Logger
}

// NewPipeline constructs a pipeline around recognizer.
func NewPipeline(recognizer engine.Recognizer, opts Options) *Pipeline {
	p := &Pipeline{
		recognizer: recognizer,
		maxPixels:  opts.MaxPixels,
		logger:     opts.Logger,
	}
	if p.maxPixels <= 0 {
		p.maxPixels = DefaultMaxPixels
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if opts.DebugDump {
		p.dumper = &imgops.DebugDumper{Dir: opts.DebugDir}
	}
	return p
}

// Run performs preprocessing and recognition. It returns context.Canceled
// when ctx ends before recognition completes, and a *PipelineError when the
// recognizer reports a failure.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if req.Image == nil || req.Image.Bounds().Empty() {
		return Result{}, &PipelineError{
			Stage:   domain.JobStatusPreprocessing,
			Message: "image is empty",
		}
	}

	tracker := newTracker(2, req.OnProgress)

	emitStage(req.OnStage, domain.JobStatusPreprocessing)
	tracker.advance()
	gray, err := p.preprocess(ctx, req.Image, tracker.update)
	if err != nil {
		return Result{}, err
	}

	emitStage(req.OnStage, domain.JobStatusRecognizing)
	tracker.advance()
	rec := p.recognizer.Recognize(gray, req.LangIndices, req.Features, func(percent int) bool {
		if percent >= 0 {
			tracker.update(float64(percent) / 100)
		}
		return ctx.Err() == nil
	})

	switch rec.Status {
	case domain.ResultStatusTerminated:
		return Result{}, context.Canceled
	case domain.ResultStatusError:
		return Result{}, &PipelineError{
			Stage:   domain.JobStatusRecognizing,
			Message: rec.Text,
			Err:     &domain.RecognizerError{Op: domain.RecognizerOpRecognize, Err: fmt.Errorf("%s", rec.Text)},
		}
	}

	tracker.finish()
	p.logger.Debug("recognition finished", "job", req.JobID, "bytes", len(rec.Text))
	return Result{Text: rec.Text}, nil
}

// preprocess converts to grayscale, upscales, and sharpens img, reporting
// fractional progress of the phase. It stops with ctx.Err() between steps.
func (p *Pipeline) preprocess(ctx context.Context, img image.Image, progress func(float64)) (*image.Gray, error) {
	p.dump(1, "original", img)

	gray := imgops.ToGray(img)
	p.dump(2, "grayscale", gray)
	progress(0.1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	factor := imgops.UpscaleFactor(w, h, p.maxPixels)
	resized := gray
	if factor > 1 {
		resized = imgops.Resize(gray, w*factor, h*factor)
	}
	p.dump(3, "resize", resized)
	progress(0.2)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sharpened := imgops.UnsharpMask(resized, unsharpRadius, unsharpAmount, func(f float64) {
		progress(0.2 + 0.8*f)
	})
	p.dump(4, "unsharp_mask", sharpened)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sharpened, nil
}

// dump writes a debug image when dumping is enabled.
func (p *Pipeline) dump(step int, name string, img image.Image) {
	if p.dumper == nil {
		return
	}
	if err := p.dumper.Dump(step, name, img); err != nil {
		p.logger.Warn("debug image dump failed", "step", name, "err", err)
	}
}

// emitStage forwards stage updates when callback is configured.
func emitStage(cb func(stage domain.JobStatus), stage domain.JobStatus) {
	if cb != nil {
		cb(stage)
	}
}
