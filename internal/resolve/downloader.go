package resolve

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/atelierlab/archharvest/internal/fetch"
	"github.com/atelierlab/archharvest/internal/record"
)

// Downloader fetches a gallery entry page, resolves the intended image, and
// streams its bytes to disk.
type Downloader struct {
	fetcher fetch.Fetcher
	logger  *zap.Logger
}

// NewDownloader constructs a Downloader.
func NewDownloader(fetcher fetch.Fetcher, logger *zap.Logger) *Downloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{fetcher: fetcher, logger: logger}
}

// DownloadTarget resolves and downloads the image the entry page at pageURL
// refers to, saving it under saveDir as baseFilename plus the derived
// extension. Any transport, payload, or IO failure fails this item only;
// sibling items are unaffected.
func (d *Downloader) DownloadTarget(ctx context.Context, pageURL, saveDir, baseFilename string) (record.Image, error) {
	html, err := d.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return record.Image{}, fmt.Errorf("entry page: %w", err)
	}

	payload, err := ParsePayload(html)
	if err != nil {
		return record.Image{}, err
	}

	entry := ResolveTarget(pageURL, payload)
	imageURL, err := ImageURL(entry)
	if err != nil {
		return record.Image{}, err
	}

	filename := baseFilename + Extension(imageURL)
	dest := filepath.Join(saveDir, filename)
	if err := d.fetcher.Download(ctx, imageURL, dest); err != nil {
		return record.Image{}, fmt.Errorf("image download: %w", err)
	}

	d.logger.Info("image downloaded",
		zap.String("page_url", pageURL),
		zap.String("image_url", imageURL),
		zap.String("file", dest))

	tags := TagNames(entry)
	if tags == nil {
		tags = []string{}
	}
	return record.Image{
		Filename: filename,
		Tags:     tags,
		Caption:  entry.Caption,
	}, nil
}
