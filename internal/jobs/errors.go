package jobs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("invalid request payload")
	ErrJobNotFound       = errors.New("job not found")
	ErrUnsupportedFormat = errors.New("unsupported format: must be audio or video")
	ErrJobAlreadyStarted = errors.New("conversion already started for this job")
	ErrDownloadNotReady  = errors.New("download not ready")
	ErrConversionTimeout = errors.New("conversion timed out")
	ErrOutputMissing     = errors.New("converted output file not found")
)

const (
	FetchReasonTimeout = "timeout"
	FetchReasonExit    = "exit"
	FetchReasonParse   = "parse"
)

// MetadataFetchError describes why the metadata probe failed.
type MetadataFetchError struct {
	Reason string
	Detail string
}

func (e *MetadataFetchError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("metadata fetch failed: %s", e.Reason)
	}
	return fmt.Sprintf("metadata fetch failed (%s): %s", e.Reason, e.Detail)
}

// ConversionError carries the diagnostic tail of a failed transcode process.
type ConversionError struct {
	Detail string
}

func (e *ConversionError) Error() string {
	if e.Detail == "" {
		return "conversion failed"
	}
	return fmt.Sprintf("conversion failed: %s", e.Detail)
}
