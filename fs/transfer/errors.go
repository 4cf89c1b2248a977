package transfer

import (
	"errors"
	"fmt"
)

// ErrChecksumMismatch is returned when a single-shot upload's SHA-512 digest
// disagrees with the digest reported by the server. Single-shot uploads are
// not retried at this layer.
var ErrChecksumMismatch = errors.New("uploaded content failed checksum verification")

// ErrLengthUnavailable is returned by Download.Length when the server did not
// report a content length. Callers needing robustness must treat the length
// as optional.
var ErrLengthUnavailable = errors.New("content length not reported by server")

// ErrStreamClosed is returned by read and iteration operations on a Download
// that has already been closed.
var ErrStreamClosed = errors.New("download stream is closed")

// ChunkChecksumError reports a chunk whose digest never matched the
// server-reported checksum within the retry budget. The upload is aborted;
// no later chunks are attempted.
type ChunkChecksumError struct {
	ChunkNumber   int
	StartPosition int64
}

// Error implements the error interface.
func (e *ChunkChecksumError) Error() string {
	return fmt.Sprintf("chunk %d (start position %d) failed checksum verification on every attempt", e.ChunkNumber, e.StartPosition)
}
