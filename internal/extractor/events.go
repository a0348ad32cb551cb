package extractor

import (
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// UploadEvent describes one object that became available in the object store.
type UploadEvent struct {
	Bucket    string
	Key       string
	EventTime time.Time
	// Name is the store's event name, e.g. "ObjectCreated:Put". Empty is
	// treated as a creation.
	Name string
}

// IsCreate reports whether the event announces a new object.
func (e UploadEvent) IsCreate() bool {
	return e.Name == "" || strings.Contains(e.Name, "ObjectCreated")
}

// EventsFromS3 converts an S3 (or MinIO) notification into upload events,
// preserving record order. Object keys arrive form-encoded and are decoded
// here; a key that fails to decode is used as delivered.
func EventsFromS3(evt events.S3Event) []UploadEvent {
	out := make([]UploadEvent, 0, len(evt.Records))
	for _, r := range evt.Records {
		key := r.S3.Object.Key
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		out = append(out, UploadEvent{
			Bucket:    r.S3.Bucket.Name,
			Key:       key,
			EventTime: r.EventTime,
			Name:      r.EventName,
		})
	}
	return out
}
