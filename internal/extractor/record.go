package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/your-org/imagemeta/pkg/notify"
	"github.com/your-org/imagemeta/pkg/recordstore"
)

// NotificationSubject is the fixed subject of every upload notification.
const NotificationSubject = "New Image Uploaded"

// BuildRecord assembles the metadata record for ev. The timestamp is the
// processing time in UTC, not the store's event time.
func BuildRecord(ev UploadEvent, meta Metadata, id string, processedAt time.Time) recordstore.Record {
	return recordstore.Record{
		ID:              id,
		Filename:        ev.Key,
		FileSizeBytes:   meta.SizeBytes,
		Width:           meta.Width,
		Height:          meta.Height,
		Format:          meta.Format,
		UploadTimestamp: processedAt.UTC().Format(time.RFC3339),
	}
}

// FormatNotification renders the message published for rec.
func FormatNotification(rec recordstore.Record, bucket string) notify.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "A new image was uploaded to bucket %q.\n\n", bucket)
	fmt.Fprintf(&b, "Filename: %s\n", rec.Filename)
	fmt.Fprintf(&b, "Dimensions: %d x %d\n", rec.Width, rec.Height)
	fmt.Fprintf(&b, "Format: %s\n", rec.Format)
	fmt.Fprintf(&b, "Size: %d bytes\n", rec.FileSizeBytes)
	fmt.Fprintf(&b, "Uploaded: %s\n", rec.UploadTimestamp)

	return notify.Message{
		Subject: NotificationSubject,
		Body:    b.String(),
	}
}
