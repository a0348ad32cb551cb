package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// ErrBatchFailed is returned to the Lambda runtime when any upload failed,
// so the invocation is reported as failed rather than masked.
var ErrBatchFailed = errors.New("upload batch failed")

// LambdaHandler is the signature passed to lambda.Start.
type LambdaHandler func(ctx context.Context, evt events.S3Event) (Result, error)

// NewLambdaHandler adapts p to S3 event notifications.
func NewLambdaHandler(p *Processor) LambdaHandler {
	return func(ctx context.Context, evt events.S3Event) (Result, error) {
		res := p.Process(ctx, EventsFromS3(evt))
		if !res.OK() {
			return res, fmt.Errorf("%w: %s", ErrBatchFailed, res.Message)
		}
		return res, nil
	}
}
