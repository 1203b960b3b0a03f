package download

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/handiism/ygo-card-downloader/internal/http"
	ioutils "github.com/handiism/ygo-card-downloader/internal/io"
	"github.com/handiism/ygo-card-downloader/internal/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const outDir = "/out"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// imageServer serves a valid PNG under /img/ and garbage under /bad/.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	valid := pngBytes(t, 30, 44)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/img/"):
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(valid)
		case strings.HasPrefix(r.URL.Path, "/bad/"):
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, "<html>not an image</html>")
		default:
			nethttp.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestProcessor(fs afero.Fs, delay time.Duration) *Processor {
	transcoder := NewTranscoder(http.NewClient(), ioutils.NewImageService(ioutils.FilterLanczos, 90), fs)
	return NewProcessor(transcoder, fs, delay, discardLogger())
}

func testConfig() model.DownloadConfig {
	return model.DownloadConfig{Variant: model.VariantNormal, Naming: model.NamingByName, OutputDir: outDir}
}

func listFiles(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	entries, err := afero.ReadDir(fs, dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// fakeTranscoder records calls. When fn is set it owns the whole transcode,
// otherwise a placeholder file is written to dest.
type fakeTranscoder struct {
	fs    afero.Fs
	mu    sync.Mutex
	calls []string
	fn    func(call int, url, dest string) error
}

func (f *fakeTranscoder) Transcode(ctx context.Context, url, dest string, resizeTo *model.Size) error {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.fn != nil {
		return f.fn(call, url, dest)
	}
	return afero.WriteFile(f.fs, dest, []byte("jpeg"), 0644)
}

func (f *fakeTranscoder) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeFetcher struct {
	cards []model.Card
	err   error
}

func (f *fakeFetcher) FetchCatalog(ctx context.Context) ([]model.Card, error) {
	return f.cards, f.err
}

func cardsWithURLs(n int) []model.Card {
	cards := make([]model.Card, n)
	for i := range cards {
		cards[i] = model.Card{
			ID:     1000 + i,
			Name:   "Card " + string(rune('A'+i)),
			Images: []model.ImageVariant{{Normal: "http://img/" + string(rune('a'+i)) + ".jpg"}},
		}
	}
	return cards
}

func TestProcessor_EndToEnd(t *testing.T) {
	srv := imageServer(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))

	cards := []model.Card{
		{ID: 1, Name: "Dark Magician", Images: []model.ImageVariant{{Normal: srv.URL + "/img/1.jpg"}}},
		{ID: 2, Name: "Token", Images: []model.ImageVariant{{Small: srv.URL + "/img/2.jpg"}}},
		{ID: 3, Name: "Broken", Images: []model.ImageVariant{{Normal: srv.URL + "/bad/3.jpg"}}},
	}

	var ticks [][2]int
	result := newTestProcessor(fs, 0).Run(context.Background(), cards, testConfig(), NewCancelToken(), func(current, total int) {
		ticks = append(ticks, [2]int{current, total})
	})

	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 3, result.Examined)
	assert.Equal(t, 3, result.Total)
	assert.False(t, result.Cancelled)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, ticks)

	assert.Equal(t, []string{"Dark Magician.jpg"}, listFiles(t, fs, outDir))

	data, err := afero.ReadFile(fs, filepath.Join(outDir, "Dark Magician.jpg"))
	require.NoError(t, err)
	_, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format, "output is always JPEG")
}

func TestProcessor_NoImageWritesNothing(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))
	fake := &fakeTranscoder{fs: fs}
	p := NewProcessor(fake, fs, 0, discardLogger())

	cfg := testConfig()
	cfg.Variant = model.VariantCropped
	result := p.Run(context.Background(), cardsWithURLs(4), cfg, nil, nil)

	assert.Equal(t, 0, result.Downloaded)
	assert.Equal(t, 4, result.Skipped)
	assert.Empty(t, fake.Calls())
	assert.Empty(t, listFiles(t, fs, outDir))
}

func TestProcessor_Resize(t *testing.T) {
	srv := imageServer(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))

	cards := []model.Card{
		{ID: 1, Name: "One", Images: []model.ImageVariant{{Normal: srv.URL + "/img/1.jpg"}}},
		{ID: 2, Name: "Two", Images: []model.ImageVariant{{Normal: srv.URL + "/img/2.jpg"}}},
	}
	cfg := testConfig()
	cfg.Resize = &model.Size{Width: 17, Height: 9}

	result := newTestProcessor(fs, 0).Run(context.Background(), cards, cfg, nil, nil)
	require.Equal(t, 2, result.Downloaded)

	for _, name := range []string{"One.jpg", "Two.jpg"} {
		data, err := afero.ReadFile(fs, filepath.Join(outDir, name))
		require.NoError(t, err)
		img, _, err := image.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, image.Pt(17, 9), img.Bounds().Size(), name)
	}
}

func TestProcessor_FilenamesAndCollisions(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))
	p := NewProcessor(&fakeTranscoder{fs: fs}, fs, 0, discardLogger())

	cards := []model.Card{
		{ID: 10, Name: "A/B*C", Images: []model.ImageVariant{{Normal: "http://img/10.jpg"}}},
		{ID: 11, Name: "Kuriboh", Images: []model.ImageVariant{{Normal: "http://img/11.jpg"}}},
		{ID: 12, Name: "Kuriboh", Images: []model.ImageVariant{{Normal: "http://img/12.jpg"}}},
	}

	result := p.Run(context.Background(), cards, testConfig(), nil, nil)
	require.Equal(t, 3, result.Downloaded)

	files := listFiles(t, fs, outDir)
	assert.ElementsMatch(t, []string{"ABC.jpg", "Kuriboh.jpg", "Kuriboh_1.jpg"}, files)
	for _, f := range files {
		assert.NotContainsf(t, f, "*", "reserved character in %s", f)
	}

	cfg := testConfig()
	cfg.Naming = model.NamingByID
	cfg.OutputDir = "/by-id"
	require.NoError(t, fs.MkdirAll(cfg.OutputDir, 0755))
	p.Run(context.Background(), cards, cfg, nil, nil)
	assert.ElementsMatch(t, []string{"10.jpg", "11.jpg", "12.jpg"}, listFiles(t, fs, cfg.OutputDir))
}

func TestProcessor_SecondRunNeverOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))
	cards := cardsWithURLs(2)

	first := &fakeTranscoder{fs: fs, fn: func(call int, url, dest string) error {
		return afero.WriteFile(fs, dest, []byte("first"), 0644)
	}}
	NewProcessor(first, fs, 0, discardLogger()).Run(context.Background(), cards, testConfig(), nil, nil)

	second := &fakeTranscoder{fs: fs}
	result := NewProcessor(second, fs, 0, discardLogger()).Run(context.Background(), cards, testConfig(), nil, nil)
	assert.Equal(t, 2, result.Downloaded)

	assert.ElementsMatch(t,
		[]string{"Card A.jpg", "Card B.jpg", "Card A_1.jpg", "Card B_1.jpg"},
		listFiles(t, fs, outDir))

	data, err := afero.ReadFile(fs, filepath.Join(outDir, "Card A.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestProcessor_SecondRunKeepsDownloadedImages(t *testing.T) {
	srv := imageServer(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))

	cards := []model.Card{
		{ID: 10, Name: "A/B*C", Images: []model.ImageVariant{{Normal: srv.URL + "/img/10.jpg"}}},
		{ID: 11, Name: "Kuriboh", Images: []model.ImageVariant{{Normal: srv.URL + "/img/11.jpg"}}},
	}
	p := newTestProcessor(fs, 0)

	first := p.Run(context.Background(), cards, testConfig(), nil, nil)
	require.Equal(t, 2, first.Downloaded)
	assert.ElementsMatch(t, []string{"ABC.jpg", "Kuriboh.jpg"}, listFiles(t, fs, outDir))

	original, err := afero.ReadFile(fs, filepath.Join(outDir, "ABC.jpg"))
	require.NoError(t, err)
	info, err := fs.Stat(filepath.Join(outDir, "ABC.jpg"))
	require.NoError(t, err)
	modTime := info.ModTime()

	cfg := testConfig()
	cfg.Resize = &model.Size{Width: 5, Height: 7}
	second := p.Run(context.Background(), cards, cfg, nil, nil)
	require.Equal(t, 2, second.Downloaded)

	assert.ElementsMatch(t,
		[]string{"ABC.jpg", "Kuriboh.jpg", "ABC_1.jpg", "Kuriboh_1.jpg"},
		listFiles(t, fs, outDir))

	after, err := afero.ReadFile(fs, filepath.Join(outDir, "ABC.jpg"))
	require.NoError(t, err)
	assert.Equal(t, original, after, "existing image is left untouched")
	info, err = fs.Stat(filepath.Join(outDir, "ABC.jpg"))
	require.NoError(t, err)
	assert.Equal(t, modTime, info.ModTime())

	data, err := afero.ReadFile(fs, filepath.Join(outDir, "ABC_1.jpg"))
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(5, 7), img.Bounds().Size(), "second run wrote its own image")
}

func TestProcessor_CancelBeforeCard(t *testing.T) {
	const k = 3
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))
	token := NewCancelToken()

	fake := &fakeTranscoder{fs: fs, fn: func(call int, url, dest string) error {
		if call == k-1 {
			token.Set()
		}
		return nil
	}}
	cards := cardsWithURLs(6)

	result := NewProcessor(fake, fs, 0, discardLogger()).Run(context.Background(), cards, testConfig(), token, nil)

	assert.True(t, result.Cancelled)
	assert.Equal(t, k, result.Examined)
	assert.Equal(t, k, result.Downloaded+result.Skipped)
	assert.Len(t, fake.Calls(), k, "no card at index >= k is processed")
}

func TestProcessor_CancelledUpFront(t *testing.T) {
	fs := afero.NewMemMapFs()
	token := NewCancelToken()
	token.Set()
	token.Set()

	fake := &fakeTranscoder{fs: fs}
	result := NewProcessor(fake, fs, 0, discardLogger()).Run(context.Background(), cardsWithURLs(3), testConfig(), token, nil)

	assert.True(t, result.Cancelled)
	assert.Zero(t, result.Examined)
	assert.Zero(t, result.Downloaded+result.Skipped)
	assert.Empty(t, fake.Calls())
}

func TestProcessor_FailuresDoNotAbort(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))

	fake := &fakeTranscoder{fs: fs, fn: func(call int, url, dest string) error {
		switch call {
		case 0:
			panic("corrupt record")
		case 1:
			return model.NewError(model.KindNetwork, "download image", url, errors.New("timeout"))
		case 2:
			return model.NewError(model.KindWrite, "write image", dest, errors.New("disk full"))
		}
		return nil
	}}

	result := NewProcessor(fake, fs, 0, discardLogger()).Run(context.Background(), cardsWithURLs(4), testConfig(), nil, nil)

	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, fake.Calls(), 4)
}

func TestProcessor_DelayOnlyAfterImageRequests(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))
	const delay = 30 * time.Millisecond

	cards := append(cardsWithURLs(2), model.Card{ID: 99, Name: "No Art"})
	cards = append(cards, model.Card{ID: 98, Name: "No Art Either"})

	start := time.Now()
	result := NewProcessor(&fakeTranscoder{fs: fs}, fs, delay, discardLogger()).
		Run(context.Background(), cards, testConfig(), nil, nil)
	elapsed := time.Since(start)

	assert.Equal(t, 2, result.Downloaded)
	assert.Equal(t, 2, result.Skipped)
	assert.GreaterOrEqual(t, elapsed, 2*delay)
	assert.Less(t, elapsed, 4*delay+time.Second)
}

func TestTranscoder_ErrorKinds(t *testing.T) {
	srv := imageServer(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(outDir, 0755))
	tr := NewTranscoder(http.NewClient(), ioutils.NewImageService(ioutils.FilterCatmullRom, 80), fs)

	err := tr.Transcode(context.Background(), srv.URL+"/missing", "/out/a.jpg", nil)
	assert.ErrorIs(t, err, model.ErrNetwork)

	err = tr.Transcode(context.Background(), srv.URL+"/bad/x", "/out/b.jpg", nil)
	assert.ErrorIs(t, err, model.ErrDecode)

	ro := afero.NewReadOnlyFs(fs)
	err = NewTranscoder(http.NewClient(), ioutils.NewImageService("", 0), ro).
		Transcode(context.Background(), srv.URL+"/img/c", "/out/c.jpg", nil)
	assert.ErrorIs(t, err, model.ErrWrite)

	assert.Empty(t, listFiles(t, fs, outDir), "failed transcodes leave no file")
}

func TestManager_StartInvalidConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManagerWith(&fakeFetcher{}, NewProcessor(&fakeTranscoder{fs: fs}, fs, 0, discardLogger()), fs, discardLogger())

	cfg := testConfig()
	cfg.Resize = &model.Size{Width: -1, Height: 10}
	task, err := m.Start(context.Background(), cfg)
	assert.Nil(t, task)
	assert.ErrorIs(t, err, model.ErrConfig)

	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0644))
	cfg = testConfig()
	cfg.OutputDir = "/file"
	task, err = m.Start(context.Background(), cfg)
	assert.Nil(t, task)
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestManager_CatalogFailureIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	fetchErr := model.NewError(model.KindNetwork, "fetch catalog", "http://api", errors.New("connection refused"))
	fake := &fakeTranscoder{fs: fs}
	m := NewManagerWith(&fakeFetcher{err: fetchErr}, NewProcessor(fake, fs, 0, discardLogger()), fs, discardLogger())

	var events []Event
	_, err := m.Run(context.Background(), testConfig(), func(ev Event) { events = append(events, ev) })

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNetwork)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventFailed, last.Kind)
	assert.True(t, last.Terminal())
	assert.Empty(t, fake.Calls())
}

func TestManager_RunEvents(t *testing.T) {
	fs := afero.NewMemMapFs()
	m := NewManagerWith(&fakeFetcher{cards: cardsWithURLs(3)}, NewProcessor(&fakeTranscoder{fs: fs}, fs, 0, discardLogger()), fs, discardLogger())

	var events []Event
	result, err := m.Run(context.Background(), testConfig(), func(ev Event) { events = append(events, ev) })
	require.NoError(t, err)

	assert.Equal(t, 3, result.Downloaded)

	var started, progress int
	for _, ev := range events {
		switch ev.Kind {
		case EventStarted:
			started++
			assert.Equal(t, 3, ev.Total)
		case EventProgress:
			progress++
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 3, progress)

	last := events[len(events)-1]
	assert.Equal(t, EventDone, last.Kind)
	assert.Equal(t, result, last.Result)
	assert.ElementsMatch(t, []string{"Card A.jpg", "Card B.jpg", "Card C.jpg"}, listFiles(t, fs, outDir))
}

func TestTask_CancelWhileDownloading(t *testing.T) {
	fs := afero.NewMemMapFs()
	started := make(chan struct{})
	release := make(chan struct{})

	fake := &fakeTranscoder{fs: fs, fn: func(call int, url, dest string) error {
		if call == 0 {
			close(started)
			<-release
		}
		return nil
	}}
	m := NewManagerWith(&fakeFetcher{cards: cardsWithURLs(5)}, NewProcessor(fake, fs, 0, discardLogger()), fs, discardLogger())

	task, err := m.Start(context.Background(), testConfig())
	require.NoError(t, err)

	<-started
	task.Cancel()
	assert.True(t, task.CancelRequested())
	close(release)

	var terminal *Event
	deadline := time.After(5 * time.Second)
	for terminal == nil {
		for _, ev := range task.Poll() {
			if ev.Terminal() {
				ev := ev
				terminal = &ev
			}
		}
		if terminal != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("task did not finish")
		case <-time.After(5 * time.Millisecond):
		}
	}

	require.Equal(t, EventDone, terminal.Kind)
	assert.True(t, terminal.Result.Cancelled)
	assert.Equal(t, 1, terminal.Result.Downloaded, "in-flight download completes")
	assert.Equal(t, 1, terminal.Result.Examined)
	assert.Len(t, fake.Calls(), 1)

	result, err := task.Wait()
	require.NoError(t, err)
	assert.Equal(t, terminal.Result, result)
	assert.Empty(t, task.Poll(), "channel is closed after the terminal event")
}
