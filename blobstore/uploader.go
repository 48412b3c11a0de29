package blobstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"
)

// Uploader copies finished dataset artifacts from the local filesystem into
// a BlobStore, optionally throttled to a byte rate so archival does not
// starve the generation pipeline.
type Uploader struct {
	store   BlobStore
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewUploader creates an uploader for store. bytesPerSec <= 0 disables
// throttling. A nil logger discards logs.
func NewUploader(store BlobStore, bytesPerSec int64, logger *slog.Logger) *Uploader {
	var limiter *rate.Limiter
	if bytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Uploader{store: store, limiter: limiter, logger: logger}
}

// UploadFile stores the file at path under name.
func (u *Uploader) UploadFile(ctx context.Context, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var r io.Reader = f
	if u.limiter != nil {
		r = &throttledReader{ctx: ctx, r: f, limiter: u.limiter}
	}

	if err := u.store.Put(ctx, name, r, info.Size()); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}

	u.logger.Info("uploaded artifact", "name", name, "bytes", info.Size())

	return nil
}

// UploadAll stores each path under prefix joined with its base name.
func (u *Uploader) UploadAll(ctx context.Context, prefix string, paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		name := filepath.ToSlash(filepath.Join(prefix, filepath.Base(p)))
		if err := u.UploadFile(ctx, name, p); err != nil {
			return err
		}
	}

	return nil
}

// throttledReader paces reads through the shared limiter. Read sizes are
// clamped to the limiter burst so WaitN never fails outright.
type throttledReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
}

func (t *throttledReader) Read(p []byte) (int, error) {
	if burst := t.limiter.Burst(); len(p) > burst {
		p = p[:burst]
	}

	n, err := t.r.Read(p)
	if n > 0 {
		if werr := t.limiter.WaitN(t.ctx, n); werr != nil {
			return n, werr
		}
	}

	return n, err
}
