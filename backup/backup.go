// Package backup mirrors a Gyazo account into a local directory.
//
// A backup directory holds the image files, an optional thumbs/
// subdirectory, images.json with the merged image metadata and
// manifest.yaml summarizing the last run. Images deleted on the server
// stay in images.json so repeated runs never lose history.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"
	"github.com/s0up4200/gyazo/filter"
	"github.com/s0up4200/gyazo/gyazo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	IndexFile    = "images.json"
	ManifestFile = "manifest.yaml"
	ThumbsDir    = "thumbs"

	DefaultConcurrency = 4
	DefaultPerPage     = 100
)

// Source is the part of the Gyazo client a backup needs
type Source interface {
	ListAllImages(ctx context.Context, perPage int) (*gyazo.ImageCollection, error)
	gyazo.Downloader
}

// Options controls a backup run
type Options struct {
	Dir         string
	PerPage     int
	Concurrency int
	// Thumbs also downloads thumbnails of images that have a full file
	Thumbs bool
	// Filter restricts the remote images; nil keeps all
	Filter filter.Filter
}

// Result summarizes a backup run
type Result struct {
	Total      int
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
}

// Manifest is written to manifest.yaml after each run
type Manifest struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	Total       int       `yaml:"total"`
	Downloaded  int       `yaml:"downloaded"`
	Skipped     int       `yaml:"skipped"`
	Failed      int       `yaml:"failed"`
	Bytes       int64     `yaml:"bytes"`
	Size        string    `yaml:"size"`
	Filter      string    `yaml:"filter,omitempty"`
}

// Backup runs backups against a Source
type Backup struct {
	source Source
	logger zerolog.Logger
	opts   Options
}

// New creates a backup. Zero-valued options fall back to defaults.
func New(source Source, logger zerolog.Logger, opts Options) *Backup {
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Backup{
		source: source,
		logger: logger.With().Str("component", "backup").Logger(),
		opts:   opts,
	}
}

// download is a single file to fetch
type download struct {
	image gyazo.Image
	path  string
	thumb bool
}

// Run performs the backup
func (b *Backup) Run(ctx context.Context) (*Result, error) {
	if b.opts.Dir == "" {
		return nil, errors.New("backup directory is required")
	}
	if err := os.MkdirAll(b.opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	local, err := LoadIndex(b.opts.Dir)
	if err != nil {
		return nil, err
	}

	remote, err := b.source.ListAllImages(ctx, b.opts.PerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	if b.opts.Filter != nil {
		remote = filter.Apply(b.opts.Filter, remote)
	}

	b.logger.Info().
		Int("remote", remote.Len()).
		Int("local", local.Len()).
		Msg("Fetched image lists")

	merged := gyazo.Union(remote, local)
	result := &Result{Total: merged.Len()}

	var pending []download
	for _, d := range b.plan(merged) {
		if fileExists(d.path) {
			result.Skipped++
			continue
		}
		pending = append(pending, d)
	}

	if err := b.fetchAll(ctx, pending, result); err != nil {
		return result, err
	}

	if err := writeIndex(b.opts.Dir, merged); err != nil {
		return result, err
	}
	if err := b.writeManifest(result); err != nil {
		return result, err
	}

	b.logger.Info().
		Int("total", result.Total).
		Int("downloaded", result.Downloaded).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Str("size", units.HumanSize(float64(result.Bytes))).
		Msg("Backup complete")

	return result, nil
}

// plan lists the files that belong on disk for images
func (b *Backup) plan(images *gyazo.ImageCollection) []download {
	var downloads []download
	for _, img := range images.Images {
		name := img.Filename()
		if name != "" {
			downloads = append(downloads, download{image: img, path: filepath.Join(b.opts.Dir, name)})
		}

		thumb := img.ThumbFilename()
		if thumb != "" && (name == "" || b.opts.Thumbs) {
			downloads = append(downloads, download{
				image: img,
				path:  filepath.Join(b.opts.Dir, ThumbsDir, thumb),
				thumb: true,
			})
		}
	}
	return downloads
}

// fetchAll downloads pending files. Individual failures are logged and
// counted; only cancellation aborts the run.
func (b *Backup) fetchAll(ctx context.Context, pending []download, result *Result) error {
	if len(pending) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)

	// Use mutex to protect result counters
	var mu sync.Mutex

	for _, d := range pending {
		g.Go(func() error {
			n, err := b.fetch(ctx, d)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				b.logger.Warn().
					Err(err).
					Str("image_id", d.image.ImageID).
					Str("path", d.path).
					Msg("Failed to download image")

				mu.Lock()
				result.Failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result.Downloaded++
			result.Bytes += n
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

func (b *Backup) fetch(ctx context.Context, d download) (int64, error) {
	var (
		data []byte
		err  error
	)
	if d.thumb {
		data, err = b.source.DownloadThumb(ctx, d.image)
	} else {
		data, err = b.source.Download(ctx, d.image)
	}
	if err != nil {
		return 0, err
	}

	if err := writeFileAtomic(d.path, data); err != nil {
		return 0, err
	}

	b.logger.Debug().
		Str("image_id", d.image.ImageID).
		Str("path", d.path).
		Str("size", units.HumanSize(float64(len(data)))).
		Msg("Downloaded image")

	return int64(len(data)), nil
}

func (b *Backup) writeManifest(result *Result) error {
	m := Manifest{
		GeneratedAt: time.Now().UTC(),
		Total:       result.Total,
		Downloaded:  result.Downloaded,
		Skipped:     result.Skipped,
		Failed:      result.Failed,
		Bytes:       result.Bytes,
		Size:        units.HumanSize(float64(result.Bytes)),
	}
	if cf, ok := b.opts.Filter.(filter.CompiledFilter); ok {
		m.Filter = cf.Expression()
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return writeFileAtomic(filepath.Join(b.opts.Dir, ManifestFile), data)
}

// LoadIndex reads images.json from dir. A missing index is an empty collection.
func LoadIndex(dir string) (*gyazo.ImageCollection, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return gyazo.NewImageCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IndexFile, err)
	}

	var images gyazo.ImageCollection
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", IndexFile, err)
	}
	return &images, nil
}

// LoadManifest reads manifest.yaml from dir
func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
	}
	return &m, nil
}

func writeIndex(dir string, images *gyazo.ImageCollection) error {
	data, err := images.JSON("  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", IndexFile, err)
	}
	return writeFileAtomic(filepath.Join(dir, IndexFile), data)
}

// writeFileAtomic writes through a temp file so readers never see a partial file
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
