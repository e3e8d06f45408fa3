// Package evidence writes the screenshots and markup dumps a run leaves
// behind, through a storage.BlobStorage.
package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/hairizuanbinnoorazman/ui-verify/browser"
	"github.com/hairizuanbinnoorazman/ui-verify/logger"
	"github.com/hairizuanbinnoorazman/ui-verify/storage"
	"github.com/hairizuanbinnoorazman/ui-verify/testrun"
)

// ErrIncompleteWrite is returned when stored evidence does not read back
// at the size that was written.
var ErrIncompleteWrite = errors.New("evidence incomplete after write")

const (
	DefaultSuccessPath    = "success.png"
	DefaultFailurePath    = "error.png"
	DefaultMarkupPath     = "error.html"
	DefaultLoginDebugPath = "login_debug.png"

	elementTimeout = 5 * time.Second
)

// Paths are the fixed evidence locations inside the storage. Each run
// overwrites them.
type Paths struct {
	Success    string
	Failure    string
	Markup     string
	LoginDebug string
}

// LoginDebugMarkup is the markup dump that accompanies the login debug
// screenshot.
func (p Paths) LoginDebugMarkup() string {
	if p.LoginDebug == "" {
		return ""
	}
	return strings.TrimSuffix(p.LoginDebug, path.Ext(p.LoginDebug)) + ".html"
}

// Options configures a Recorder.
type Options struct {
	Paths Paths

	// FullPage captures the whole scrollable page instead of the viewport
	// for failure and login debug screenshots. Success screenshots are
	// always full page.
	FullPage bool

	// LogMarkup raises the raw markup dump from debug to info level.
	LogMarkup bool
}

// Recorder captures evidence for one run. All captures are best effort:
// errors are returned for the caller to record, never panicked or retried.
type Recorder struct {
	store  storage.BlobStorage
	opts   Options
	logger logger.Logger
	assets []testrun.Asset
}

// NewRecorder creates a Recorder, filling default paths.
func NewRecorder(store storage.BlobStorage, opts Options, log logger.Logger) *Recorder {
	if opts.Paths.Success == "" {
		opts.Paths.Success = DefaultSuccessPath
	}
	if opts.Paths.Failure == "" {
		opts.Paths.Failure = DefaultFailurePath
	}
	return &Recorder{store: store, opts: opts, logger: log}
}

// Assets returns the evidence written so far.
func (r *Recorder) Assets() []testrun.Asset {
	out := make([]testrun.Asset, len(r.assets))
	copy(out, r.assets)
	return out
}

// Prepare removes outcome files left by a previous run, so that afterwards
// exactly one of the success and failure screenshots exists. It also
// forgets the assets recorded by a previous run.
func (r *Recorder) Prepare(ctx context.Context) error {
	r.assets = nil

	stale := []string{
		r.opts.Paths.Success,
		r.opts.Paths.Failure,
		r.opts.Paths.Markup,
		r.opts.Paths.LoginDebug,
		r.opts.Paths.LoginDebugMarkup(),
	}

	var errs []error
	for _, p := range stale {
		if p == "" {
			continue
		}
		exists, err := r.store.Exists(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("check %s: %w", p, err))
			continue
		}
		if !exists {
			continue
		}
		if err := r.store.Delete(ctx, p); err != nil && !errors.Is(err, storage.ErrFileNotFound) {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
			continue
		}
		r.logger.Debug(ctx, "removed stale evidence", map[string]interface{}{"path": p})
	}
	return errors.Join(errs...)
}

// CaptureSuccess writes a full-page screenshot to the success path.
func (r *Recorder) CaptureSuccess(ctx context.Context, page browser.Page) error {
	return r.capturePage(ctx, page, r.opts.Paths.Success, true, "success screenshot")
}

// CaptureFailure writes the failure screenshot, then logs and dumps the
// page markup. It carries on after a failed screenshot so the markup still
// has a chance to be written.
func (r *Recorder) CaptureFailure(ctx context.Context, page browser.Page) error {
	var errs []error
	if err := r.capturePage(ctx, page, r.opts.Paths.Failure, r.opts.FullPage, "failure screenshot"); err != nil {
		errs = append(errs, err)
	}
	if err := r.captureMarkup(ctx, page, r.opts.Paths.Markup, "failure markup"); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CaptureLoginDebug is called when the login form never appeared.
func (r *Recorder) CaptureLoginDebug(ctx context.Context, page browser.Page) error {
	var errs []error
	if err := r.capturePage(ctx, page, r.opts.Paths.LoginDebug, r.opts.FullPage, "login debug screenshot"); err != nil {
		errs = append(errs, err)
	}
	if err := r.captureMarkup(ctx, page, r.opts.Paths.LoginDebugMarkup(), "login debug markup"); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CaptureElement writes a screenshot of one element's bounding box.
func (r *Recorder) CaptureElement(ctx context.Context, el browser.Element, p, description string) error {
	if p == "" {
		return nil
	}
	data, err := el.Screenshot(ctx, elementTimeout)
	if err != nil {
		return fmt.Errorf("capture %s: %w", description, err)
	}
	return r.write(ctx, p, data, testrun.AssetTypeImage, description)
}

func (r *Recorder) capturePage(ctx context.Context, page browser.Page, p string, fullPage bool, description string) error {
	if p == "" {
		return nil
	}
	data, err := page.Screenshot(ctx, fullPage)
	if err != nil {
		return fmt.Errorf("capture %s: %w", description, err)
	}
	return r.write(ctx, p, data, testrun.AssetTypeImage, description)
}

func (r *Recorder) captureMarkup(ctx context.Context, page browser.Page, p, description string) error {
	html, err := page.Content(ctx)
	if err != nil {
		return fmt.Errorf("capture %s: %w", description, err)
	}

	if summary, err := Summarize(html); err == nil {
		fields := summary.Fields()
		fields["url"] = page.URL()
		r.logger.Info(ctx, "page at failure", fields)
	}

	dump := map[string]interface{}{"markup": html}
	if r.opts.LogMarkup {
		r.logger.Info(ctx, "page markup", dump)
	} else {
		r.logger.Debug(ctx, "page markup", dump)
	}

	if p == "" {
		return nil
	}
	return r.write(ctx, p, []byte(html), testrun.AssetTypeDocument, description)
}

func (r *Recorder) write(ctx context.Context, p string, data []byte, assetType testrun.AssetType, description string) error {
	if err := r.store.Upload(ctx, p, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", description, err)
	}
	if err := r.verify(ctx, p, int64(len(data))); err != nil {
		return fmt.Errorf("write %s: %w", description, err)
	}

	location, err := r.store.GetURL(ctx, p)
	if err != nil {
		location = p
	}

	asset := testrun.Asset{
		AssetType:   assetType,
		AssetPath:   p,
		Location:    location,
		FileName:    path.Base(p),
		FileSize:    int64(len(data)),
		MimeType:    mime.TypeByExtension(path.Ext(p)),
		Description: description,
		UploadedAt:  time.Now(),
	}
	if err := asset.Validate(); err != nil {
		return fmt.Errorf("record %s: %w", description, err)
	}
	r.assets = append(r.assets, asset)

	r.logger.Info(ctx, "evidence saved", map[string]interface{}{
		"kind":     description,
		"location": location,
		"bytes":    len(data),
	})
	return nil
}

// verify reads a written file back and checks its size.
func (r *Recorder) verify(ctx context.Context, p string, size int64) error {
	rc, err := r.store.Download(ctx, p)
	if err != nil {
		return fmt.Errorf("read back %s: %w", p, err)
	}
	defer rc.Close()

	n, err := io.Copy(io.Discard, rc)
	if err != nil {
		return fmt.Errorf("read back %s: %w", p, err)
	}
	if n != size {
		return fmt.Errorf("%w: %s has %d bytes, wrote %d", ErrIncompleteWrite, p, n, size)
	}
	return nil
}
