package dds

import "errors"

// Every error returned by a load wraps exactly one of these.
var (
	ErrFileNotFound           = errors.New("dds: file not found")
	ErrMalformedHeader        = errors.New("dds: malformed header")
	ErrUnsupportedFormat      = errors.New("dds: unsupported format")
	ErrTruncatedFile          = errors.New("dds: truncated file")
	ErrResourceCreationFailed = errors.New("dds: resource creation failed")
)
