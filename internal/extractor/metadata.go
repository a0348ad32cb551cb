package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/your-org/imagemeta/pkg/storage/objectstore"
)

// FormatUnknown is reported when a decoder recognises an image but does not name it.
const FormatUnknown = "UNKNOWN"

// Buffers that grew past this are dropped instead of pooled.
const maxPooledBuffer = 8 << 20

// Metadata is the structural information derived from one object.
type Metadata struct {
	SizeBytes int64
	Width     int
	Height    int
	Format    string
}

// BufferPool hands out scratch buffers for object bytes.
type BufferPool interface {
	Get() *bytes.Buffer
	Put(*bytes.Buffer)
}

type syncBufferPool struct {
	pool sync.Pool
}

func newSyncBufferPool() *syncBufferPool {
	return &syncBufferPool{pool: sync.Pool{New: func() any { return new(bytes.Buffer) }}}
}

func (p *syncBufferPool) Get() *bytes.Buffer {
	buf := p.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func (p *syncBufferPool) Put(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	buf.Reset()
	p.pool.Put(buf)
}

// MetadataExtractor fetches objects and reads their image headers.
type MetadataExtractor struct {
	objects  objectstore.Client
	maxBytes int64
	buffers  BufferPool
}

// NewMetadataExtractor returns an extractor that refuses objects larger than maxBytes.
// A nil pool selects a sync.Pool-backed one.
func NewMetadataExtractor(objects objectstore.Client, maxBytes int64, pool BufferPool) *MetadataExtractor {
	if pool == nil {
		pool = newSyncBufferPool()
	}
	return &MetadataExtractor{objects: objects, maxBytes: maxBytes, buffers: pool}
}

// Extract downloads bucket/key into a scratch buffer and decodes its header.
// The object reader is closed and the buffer returned on every path.
func (x *MetadataExtractor) Extract(ctx context.Context, bucket, key string) (Metadata, error) {
	if bucket == "" || key == "" {
		return Metadata{}, newStageError(StageFetch, bucket, key, errors.New("bucket and key are required"))
	}

	rc, err := x.objects.Get(ctx, bucket, key)
	if err != nil {
		return Metadata{}, newStageError(StageFetch, bucket, key, err)
	}
	defer rc.Close()

	buf := x.buffers.Get()
	defer x.buffers.Put(buf)

	n, err := buf.ReadFrom(io.LimitReader(rc, x.maxBytes+1))
	if err != nil {
		return Metadata{}, newStageError(StageFetch, bucket, key, fmt.Errorf("read object: %w", err))
	}
	if n > x.maxBytes {
		return Metadata{}, newStageError(StageFetch, bucket, key,
			fmt.Errorf("%w: more than %d bytes", ErrObjectTooLarge, x.maxBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return Metadata{}, newStageError(StageDecode, bucket, key, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Metadata{}, newStageError(StageDecode, bucket, key,
			fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height))
	}

	return Metadata{
		SizeBytes: n,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    formatTag(format),
	}, nil
}

func formatTag(name string) string {
	if name == "" {
		return FormatUnknown
	}
	return strings.ToUpper(name)
}
