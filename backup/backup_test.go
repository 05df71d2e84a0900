package backup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/s0up4200/gyazo/filter"
	"github.com/s0up4200/gyazo/gyazo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	images  []gyazo.Image
	listErr error
	failIDs map[string]bool

	mu     sync.Mutex
	calls  []string
	thumbs []string
}

func (f *fakeSource) ListAllImages(_ context.Context, _ int) (*gyazo.ImageCollection, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return gyazo.NewImageCollection(f.images...), nil
}

func (f *fakeSource) Download(_ context.Context, img gyazo.Image) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, img.ImageID)
	f.mu.Unlock()
	if f.failIDs[img.ImageID] {
		return nil, &gyazo.APIError{StatusCode: http.StatusNotFound, Message: "Not Found"}
	}
	return []byte("full-" + img.ImageID), nil
}

func (f *fakeSource) DownloadThumb(_ context.Context, img gyazo.Image) ([]byte, error) {
	f.mu.Lock()
	f.thumbs = append(f.thumbs, img.ImageID)
	f.mu.Unlock()
	return []byte("thumb-" + img.ImageID), nil
}

func image(id, typ string, created time.Time) gyazo.Image {
	return gyazo.Image{
		ImageID:      id,
		Type:         typ,
		URL:          "https://i.gyazo.com/" + id + "." + typ,
		ThumbURL:     "https://thumb.gyazo.com/thumb/200/" + id + "." + typ,
		PermalinkURL: "https://gyazo.com/" + id,
		CreatedAt:    &created,
	}
}

func TestRunDownloadsAndWritesIndex(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)
	src := &fakeSource{images: []gyazo.Image{
		image("aaa", "png", now),
		image("bbb", "jpg", now.Add(-time.Hour)),
	}}

	result, err := New(src, zerolog.Nop(), Options{Dir: dir, Concurrency: 2}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &Result{Total: 2, Downloaded: 2, Bytes: int64(len("full-aaa") + len("full-bbb"))}, result)

	data, err := os.ReadFile(filepath.Join(dir, "aaa.png"))
	require.NoError(t, err)
	assert.Equal(t, "full-aaa", string(data))
	assert.NoDirExists(t, filepath.Join(dir, ThumbsDir))

	index, err := LoadIndex(dir)
	require.NoError(t, err)
	require.Equal(t, 2, index.Len())
	assert.Equal(t, "aaa", index.Images[0].ImageID)

	manifest, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, manifest.Downloaded)
	assert.Equal(t, result.Bytes, manifest.Bytes)
	assert.NotEmpty(t, manifest.Size)
}

func TestRunSkipsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aaa.png"), []byte("old"), 0o644))

	src := &fakeSource{images: []gyazo.Image{image("aaa", "png", time.Now())}}
	result, err := New(src, zerolog.Nop(), Options{Dir: dir}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Downloaded)
	assert.Empty(t, src.calls)

	data, err := os.ReadFile(filepath.Join(dir, "aaa.png"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestRunKeepsImagesDeletedOnServer(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	first := &fakeSource{images: []gyazo.Image{image("aaa", "png", now), image("old", "png", now.Add(-48*time.Hour))}}
	_, err := New(first, zerolog.Nop(), Options{Dir: dir}).Run(context.Background())
	require.NoError(t, err)

	second := &fakeSource{images: []gyazo.Image{image("aaa", "png", now), image("new", "png", now.Add(time.Hour))}}
	result, err := New(second, zerolog.Nop(), Options{Dir: dir}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, []string{"new"}, second.calls)

	index, err := LoadIndex(dir)
	require.NoError(t, err)
	var ids []string
	for _, img := range index.Images {
		ids = append(ids, img.ImageID)
	}
	assert.Equal(t, []string{"new", "aaa", "old"}, ids)
}

func TestRunCountsFailures(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{
		images: []gyazo.Image{
			image("good", "png", time.Now()),
			image("gone", "png", time.Now().Add(-time.Minute)),
		},
		failIDs: map[string]bool{"gone": true},
	}

	result, err := New(src, zerolog.Nop(), Options{Dir: dir}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 1, result.Failed)
	assert.FileExists(t, filepath.Join(dir, "good.png"))
	assert.NoFileExists(t, filepath.Join(dir, "gone.png"))
	assert.FileExists(t, filepath.Join(dir, IndexFile))
}

func TestRunThumbnails(t *testing.T) {
	dir := t.TempDir()
	thumbOnly := gyazo.Image{
		ImageID:  "thumbonly",
		ThumbURL: "https://thumb.gyazo.com/thumb/200/thumbonly.png",
	}
	src := &fakeSource{images: []gyazo.Image{image("aaa", "png", time.Now()), thumbOnly}}

	t.Run("fallback only", func(t *testing.T) {
		result, err := New(src, zerolog.Nop(), Options{Dir: dir}).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, result.Downloaded)
		assert.FileExists(t, filepath.Join(dir, ThumbsDir, "thumbonly.png"))
		assert.NoFileExists(t, filepath.Join(dir, ThumbsDir, "aaa.png"))
	})

	t.Run("all thumbnails", func(t *testing.T) {
		result, err := New(src, zerolog.Nop(), Options{Dir: dir, Thumbs: true}).Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, result.Downloaded)
		assert.Equal(t, 2, result.Skipped)
		assert.FileExists(t, filepath.Join(dir, ThumbsDir, "aaa.png"))
	})
}

func TestRunWithFilter(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{images: []gyazo.Image{
		image("png1", "png", time.Now()),
		image("jpg1", "jpg", time.Now().Add(-time.Minute)),
	}}

	f, err := filter.NewExprCompiler().Compile(`Type == "jpg"`)
	require.NoError(t, err)

	result, err := New(src, zerolog.Nop(), Options{Dir: dir, Filter: f}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, []string{"jpg1"}, src.calls)

	manifest, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, `Type == "jpg"`, manifest.Filter)
}

func TestRunListError(t *testing.T) {
	src := &fakeSource{listErr: &gyazo.APIError{StatusCode: http.StatusUnauthorized, Message: "Unauthorized"}}

	_, err := New(src, zerolog.Nop(), Options{Dir: t.TempDir()}).Run(context.Background())
	require.Error(t, err)

	var apiErr *gyazo.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsUnauthorized())
}

func TestRunRequiresDir(t *testing.T) {
	_, err := New(&fakeSource{}, zerolog.Nop(), Options{}).Run(context.Background())
	assert.Error(t, err)
}

func TestLoadIndexInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, IndexFile), []byte("{not json"), 0o644))

	_, err := LoadIndex(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), IndexFile)
}

func TestRunAgainstServer(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/images":
			w.Header().Set("X-Total-Count", "1")
			w.Header().Set("X-Current-Page", "1")
			w.Header().Set("X-Per-Page", "100")
			_, _ = w.Write([]byte(`[{"image_id":"abc","type":"png","url":"` + server.URL + `/files/abc.png","created_at":"2024-01-02T03:04:05+0000"}]`))
		case strings.HasPrefix(r.URL.Path, "/files/"):
			_, _ = w.Write([]byte("PNGDATA"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := gyazo.NewClient(zerolog.Nop(), gyazo.WithAccessToken("token"), gyazo.WithAPIURL(server.URL))
	require.NoError(t, err)

	dir := t.TempDir()
	result, err := New(client, zerolog.Nop(), Options{Dir: dir}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, int64(7), result.Bytes)

	data, err := os.ReadFile(filepath.Join(dir, "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "PNGDATA", string(data))
}
