package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func s3Record(name, bucket, key string) events.S3EventRecord {
	return events.S3EventRecord{
		EventName: name,
		EventTime: fixedNow,
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key},
		},
	}
}

func TestEventsFromS3(t *testing.T) {
	got := EventsFromS3(events.S3Event{Records: []events.S3EventRecord{
		s3Record("ObjectCreated:Put", "uploads", "images/my+cat%281%29.png"),
		s3Record("ObjectCreated:CompleteMultipartUpload", "uploads", "plain.jpg"),
		s3Record("ObjectRemoved:Delete", "uploads", "bad%zzkey.png"),
	}})

	require.Len(t, got, 3)
	assert.Equal(t, UploadEvent{
		Bucket:    "uploads",
		Key:       "images/my cat(1).png",
		EventTime: fixedNow,
		Name:      "ObjectCreated:Put",
	}, got[0])
	assert.Equal(t, "plain.jpg", got[1].Key)
	assert.Equal(t, "bad%zzkey.png", got[2].Key)

	assert.True(t, got[0].IsCreate())
	assert.True(t, got[1].IsCreate())
	assert.False(t, got[2].IsCreate())
	assert.True(t, UploadEvent{Name: "s3:ObjectCreated:Put"}.IsCreate())
	assert.True(t, UploadEvent{}.IsCreate())
}

func TestLambdaHandler_Success(t *testing.T) {
	h := newHarness()
	h.objects.put("uploads", "images/cat.png", pngBytes(t, 800, 600, 0))
	handler := NewLambdaHandler(h.processor())

	res, err := handler(context.Background(), events.S3Event{Records: []events.S3EventRecord{
		s3Record("ObjectCreated:Put", "uploads", "images/cat.png"),
	}})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, h.records.all(), 1)
}

func TestLambdaHandler_FailureIsNotMasked(t *testing.T) {
	h := newHarness()
	h.objects.put("uploads", "good.png", pngBytes(t, 2, 2, 0))
	handler := NewLambdaHandler(h.processor())

	res, err := handler(context.Background(), events.S3Event{Records: []events.S3EventRecord{
		s3Record("ObjectCreated:Put", "uploads", "good.png"),
		s3Record("ObjectCreated:Put", "uploads", "missing.png"),
	}})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBatchFailed))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Contains(t, err.Error(), "1 succeeded, 1 failed")
	assert.Len(t, h.records.all(), 1)
}

func TestLambdaHandler_EmptyEvent(t *testing.T) {
	h := newHarness()

	res, err := NewLambdaHandler(h.processor())(context.Background(), events.S3Event{})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

// minioPayload mirrors the body MinIO posts to a webhook target.
func minioPayload(t *testing.T, key string) string {
	t.Helper()
	body := map[string]any{
		"EventName": "s3:ObjectCreated:Put",
		"Key":       "uploads/" + key,
		"Records": []map[string]any{{
			"eventVersion": "2.0",
			"eventSource":  "minio:s3",
			"eventTime":    fixedNow.Format(time.RFC3339Nano),
			"eventName":    "s3:ObjectCreated:Put",
			"s3": map[string]any{
				"s3SchemaVersion": "1.0",
				"bucket":          map[string]any{"name": "uploads"},
				"object":          map[string]any{"key": key, "size": 1234},
			},
		}},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return string(raw)
}

func newTestServer(t *testing.T, h *harness) *httptest.Server {
	t.Helper()
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# metrics\n"))
	})
	srv := httptest.NewServer(NewHTTPHandler(h.processor(), zap.NewNop(), 1<<16, metricsHandler).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPHandler_Events(t *testing.T) {
	h := newHarness()
	h.objects.put("uploads", "images/cat.png", pngBytes(t, 800, 600, 0))
	srv := newTestServer(t, h)

	resp, err := http.Post(srv.URL+"/v1/events", "application/json",
		strings.NewReader(minioPayload(t, "images%2Fcat.png")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var res Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, http.StatusOK, res.StatusCode)

	records := h.records.all()
	require.Len(t, records, 1)
	assert.Equal(t, "images/cat.png", records[0].Filename)
	assert.Equal(t, 800, records[0].Width)
}

func TestHTTPHandler_FailedBatchReturns500(t *testing.T) {
	h := newHarness()
	h.objects.put("uploads", "notes.png", []byte("plain text"))
	srv := newTestServer(t, h)

	resp, err := http.Post(srv.URL+"/v1/events", "application/json",
		strings.NewReader(minioPayload(t, "notes.png")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, h.notifier.all())
}

func TestHTTPHandler_InvalidPayload(t *testing.T) {
	srv := newTestServer(t, newHarness())

	resp, err := http.Post(srv.URL+"/v1/events", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPHandler_PayloadTooLarge(t *testing.T) {
	srv := newTestServer(t, newHarness())

	resp, err := http.Post(srv.URL+"/v1/events", "application/json",
		strings.NewReader(`{"Records":[],"pad":"`+strings.Repeat("x", 1<<17)+`"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestHTTPHandler_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, newHarness())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
