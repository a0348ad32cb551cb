package extractor

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step an upload failed in.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageDecode  Stage = "decode"
	StageWrite   Stage = "write"
	StagePublish Stage = "publish"
)

// Sentinels for errors.Is; every per-upload failure matches exactly one.
var (
	ErrFetch   = errors.New("fetch object")
	ErrDecode  = errors.New("decode image")
	ErrWrite   = errors.New("write record")
	ErrPublish = errors.New("publish notification")
)

// ErrObjectTooLarge is wrapped into a fetch failure when an object exceeds
// the configured size limit.
var ErrObjectTooLarge = errors.New("object exceeds size limit")

// StageError carries the context needed to diagnose a failed upload without
// reprocessing it.
type StageError struct {
	Stage  Stage
	Bucket string
	Key    string
	Err    error
}

func newStageError(stage Stage, bucket, key string, err error) *StageError {
	return &StageError{Stage: stage, Bucket: bucket, Key: key, Err: err}
}

func (e *StageError) sentinel() error {
	switch e.Stage {
	case StageFetch:
		return ErrFetch
	case StageDecode:
		return ErrDecode
	case StageWrite:
		return ErrWrite
	case StagePublish:
		return ErrPublish
	default:
		return nil
	}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v %s/%s: %v", e.sentinel(), e.Bucket, e.Key, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's stage.
func (e *StageError) Is(target error) bool {
	s := e.sentinel()
	return s != nil && target == s
}

// StageOf returns the failing stage recorded in err, or "" if err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
