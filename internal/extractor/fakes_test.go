package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/your-org/imagemeta/pkg/notify"
	"github.com/your-org/imagemeta/pkg/recordstore"
	"github.com/your-org/imagemeta/pkg/storage/objectstore"
)

var fixedNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

// callLog records collaborator calls across goroutines in the order they happen.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type trackedReader struct {
	io.Reader
	onClose func()
}

func (r *trackedReader) Close() error {
	r.onClose()
	return nil
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	readers map[string]io.Reader
	errs    map[string]error
	opened  int
	closed  int
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{
		objects: map[string][]byte{},
		readers: map[string]io.Reader{},
		errs:    map[string]error{},
	}
}

func (f *fakeObjects) put(bucket, key string, data []byte) {
	f.objects[bucket+"/"+key] = data
}

func (f *fakeObjects) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := bucket + "/" + key
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	var r io.Reader
	if rd, ok := f.readers[path]; ok {
		r = rd
	} else if data, ok := f.objects[path]; ok {
		r = bytes.NewReader(data)
	} else {
		return nil, fmt.Errorf("get object %s: %w", path, objectstore.ErrNotFound)
	}

	f.opened++
	return &trackedReader{Reader: r, onClose: func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.closed++
	}}, nil
}

func (f *fakeObjects) Close() error { return nil }

func (f *fakeObjects) openReaders() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened - f.closed
}

type fakeRecords struct {
	mu      sync.Mutex
	log     *callLog
	records []recordstore.Record
	byID    map[string]recordstore.Record
	failFor map[string]error
	closed  bool
}

func newFakeRecords(log *callLog) *fakeRecords {
	return &fakeRecords{log: log, byID: map[string]recordstore.Record{}, failFor: map[string]error{}}
}

func (f *fakeRecords) Put(ctx context.Context, rec recordstore.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[rec.Filename]; ok {
		return err
	}
	if _, exists := f.byID[rec.ID]; exists {
		return recordstore.ErrDuplicateID
	}
	f.byID[rec.ID] = rec
	f.records = append(f.records, rec)
	f.log.add("put:" + rec.Filename)
	return nil
}

func (f *fakeRecords) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRecords) all() []recordstore.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordstore.Record(nil), f.records...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	log      *callLog
	messages []notify.Message
	failFor  map[string]error
	closed   bool
}

func newFakeNotifier(log *callLog) *fakeNotifier {
	return &fakeNotifier{log: log, failFor: map[string]error{}}
}

func (f *fakeNotifier) Publish(ctx context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	filename := bodyField(msg.Body, "Filename")
	if err, ok := f.failFor[filename]; ok {
		return err
	}
	f.messages = append(f.messages, msg)
	f.log.add("publish:" + filename)
	return nil
}

func (f *fakeNotifier) Close(ctx context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeNotifier) all() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.messages...)
}

// bodyField returns the value of a "Label: value" line in a notification body.
func bodyField(body, label string) string {
	for _, line := range strings.Split(body, "\n") {
		if v, ok := strings.CutPrefix(line, label+": "); ok {
			return v
		}
	}
	return ""
}

type countingPool struct {
	inner BufferPool
	out   atomic.Int64
}

func newCountingPool() *countingPool {
	return &countingPool{inner: newSyncBufferPool()}
}

func (p *countingPool) Get() *bytes.Buffer {
	p.out.Add(1)
	return p.inner.Get()
}

func (p *countingPool) Put(buf *bytes.Buffer) {
	p.out.Add(-1)
	p.inner.Put(buf)
}

type recordingSink struct {
	mu        sync.Mutex
	batches   []int
	succeeded int
	skipped   int
	failed    map[string]int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failed: map[string]int{}}
}

func (s *recordingSink) BatchReceived(size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, size)
}

func (s *recordingSink) EventSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

func (s *recordingSink) EventSucceeded(time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.succeeded++
}

func (s *recordingSink) EventFailed(stage string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[stage]++
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

// pngBytes encodes a w×h PNG and pads it with trailing zeros to size bytes
// when size is positive. Header decoding ignores the padding.
func pngBytes(t *testing.T, w, h, size int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	if size > 0 {
		require.LessOrEqual(t, buf.Len(), size)
		buf.Write(make([]byte, size-buf.Len()))
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 80}))
	return buf.Bytes()
}

func gifBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func bmpBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func tiffBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

type harness struct {
	objects  *fakeObjects
	records  *fakeRecords
	notifier *fakeNotifier
	log      *callLog
	pool     *countingPool
	sink     *recordingSink
}

func newHarness() *harness {
	log := &callLog{}
	return &harness{
		objects:  newFakeObjects(),
		records:  newFakeRecords(log),
		notifier: newFakeNotifier(log),
		log:      log,
		pool:     newCountingPool(),
		sink:     newRecordingSink(),
	}
}

func (h *harness) params() Params {
	return Params{
		Objects:        h.objects,
		Records:        h.records,
		Notifier:       h.notifier,
		Metrics:        h.sink,
		Buffers:        h.pool,
		MaxObjectBytes: 1 << 20,
		NewID:          sequentialIDs(),
		Now:            func() time.Time { return fixedNow },
	}
}

func (h *harness) processor() *Processor {
	return NewProcessor(h.params())
}
