// Package blob defines the capability contract the upload processor depends
// on, and the transient/permanent error taxonomy it uses to decide between
// retry and immediate failure. Concrete backends (Azure, GCS, a local
// filesystem stub for tests) implement Uploader; the processor never knows
// which one it's talking to.
package blob

import (
	"context"
	"errors"
	"fmt"
)

// ObjectRef names the target of one upload: a container (or bucket) and an
// object name within it.
type ObjectRef struct {
	Container string
	Object    string
}

// ProbeResult is the startup diagnostic outcome.
type ProbeResult struct {
	Connected bool
	Reason    string
}

// Uploader is the single injected capability the core requires. The target
// object name defaults to the file basename, so re-uploads of the same
// source file are idempotent by overwrite.
type Uploader interface {
	// Upload streams localPath to container/objectName. sha256Hex, when
	// non-empty, is attached as object metadata by the Azure and GCS
	// backends; the filesystem stub ignores it.
	Upload(ctx context.Context, localPath string, ref ObjectRef, sha256Hex string) error

	// ListContainers is advisory — used by ops tooling, not the core loop.
	ListContainers(ctx context.Context) ([]string, error)

	// Probe performs a cheap startup connectivity check.
	Probe(ctx context.Context) ProbeResult
}

// VerifyResult is the outcome of a post-upload re-read. CRC32CSupported is
// false for backends (Azure, the filesystem stub) that don't expose a
// content checksum on the remote object; in that case CRC32CMatches carries
// no meaning and OK depends on the size check alone.
type VerifyResult struct {
	SizeMatches     bool
	CRC32CSupported bool
	CRC32CMatches   bool
}

// OK reports whether the upload verified cleanly: size must match, and the
// checksum must match whenever the backend reports one.
func (r VerifyResult) OK() bool {
	return r.SizeMatches && (!r.CRC32CSupported || r.CRC32CMatches)
}

// Verifier is an optional capability: backends that can report a remote
// object's size (and, where the backend exposes one, its checksum)
// implement it so the processor can confirm an upload landed intact before
// marking the job Succeeded. A backend that does not implement Verifier is
// trusted on upload success alone.
type Verifier interface {
	VerifyUpload(ctx context.Context, ref ObjectRef, expectedSize int64, expectedCRC32C uint32) (VerifyResult, error)
}

// TransientError covers network, throttling, and 5xx-class conditions: the
// processor retries these with backoff.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient upload error: %v", e.Cause) }
func (e *TransientError) Unwrap() error { return e.Cause }

// PermanentError covers authentication, malformed-name, and 4xx-class
// conditions: the processor transitions the job straight to Failed.
type PermanentError struct {
	Cause error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("permanent upload error: %v", e.Cause) }
func (e *PermanentError) Unwrap() error { return e.Cause }

// Transient wraps cause as a TransientError.
func Transient(cause error) error { return &TransientError{Cause: cause} }

// Permanent wraps cause as a PermanentError.
func Permanent(cause error) error { return &PermanentError{Cause: cause} }

// IsTransient reports whether err (or something it wraps) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent reports whether err (or something it wraps) is a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
