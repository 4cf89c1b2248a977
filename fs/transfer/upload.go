// Package transfer implements the file transfer core of the SDK: the upload
// engine (single-request or chunked, with per-chunk SHA-512 verification and
// bounded retries) and the lazily consumed download stream.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/egnyte/egnyte-go/client"
)

// Headers used by the content endpoints.
const (
	headerChecksum      = "X-Sha512-Checksum"
	headerChunkNum      = "x-egnyte-chunk-num"
	headerChunkChecksum = "x-egnyte-chunk-sha512-checksum"
	headerLastChunk     = "x-egnyte-last-chunk"
	headerUploadID      = "x-egnyte-upload-id"
)

// Requester is the HTTP surface the transfer engine needs. *client.Client
// implements it; tests substitute fakes.
type Requester interface {
	Do(ctx context.Context, method, requestURL string, body interface{}, contentLength int64, headers map[string]string) (*http.Response, error)
}

// Uploader sends file content to the content endpoints. Each Upload call owns
// its source exclusively for the duration of the call and keeps no state
// across calls.
type Uploader struct {
	requester Requester
	options   Options
	logger    log.Logger
}

// NewUploader creates an Uploader.
func NewUploader(requester Requester, options Options, logger log.Logger) *Uploader {
	return &Uploader{
		requester: requester,
		options:   options,
		logger:    logger,
	}
}

// Upload sends the first size bytes of src. Pass a negative size to have it
// measured by seeking the source to its end and back; either way the size is
// known before any upload decision is made. Content below the configured
// threshold goes out as one request, larger content uses the chunked
// protocol. Chunks are sent strictly in sequence: chunk n+1 is never sent
// before chunk n has verified.
func (u *Uploader) Upload(ctx context.Context, contentURL, chunkedURL string, src io.ReadSeeker, size int64) error {
	if size < 0 {
		measured, err := SourceSize(src)
		if err != nil {
			return fmt.Errorf("determine content size: %w", err)
		}
		size = measured
	}

	if size < u.options.ChunkThreshold {
		return u.uploadSingle(ctx, contentURL, src, size)
	}
	return u.uploadChunked(ctx, chunkedURL, src, size)
}

func (u *Uploader) uploadSingle(ctx context.Context, requestURL string, src io.ReadSeeker, size int64) error {
	u.logger.Debugf("Uploading %s in a single request", units.BytesSize(float64(size)))

	chunk := NewChunk(src, 0, size)
	resp, err := u.requester.Do(ctx, http.MethodPost, requestURL, chunk, size, nil)
	if err != nil {
		return fmt.Errorf("upload content: %w", err)
	}
	defer closeBody(resp, u.logger)

	if err := client.CheckResponse(resp); err != nil {
		return err
	}

	if resp.Header.Get(headerChecksum) != chunk.Digest() {
		return ErrChecksumMismatch
	}
	return nil
}

func (u *Uploader) uploadChunked(ctx context.Context, requestURL string, src io.ReadSeeker, size int64) error {
	chunks := SplitChunks(src, size, u.options.ChunkSize)
	count := len(chunks)
	retries := u.options.MaxRetries
	if retries < 1 {
		retries = 1
	}

	u.logger.Debugf("Uploading %s as %d chunks of up to %s",
		units.BytesSize(float64(size)), count, units.BytesSize(float64(u.options.ChunkSize)))

	var uploadID string
	for i, chunk := range chunks {
		number := i + 1

		headers := map[string]string{headerChunkNum: strconv.Itoa(number)}
		if number == count {
			headers[headerLastChunk] = "true"
		}
		if uploadID != "" {
			headers[headerUploadID] = uploadID
		}

		resp, err := u.uploadChunk(ctx, requestURL, chunk, number, count, headers, retries)
		if err != nil {
			return err
		}

		// Status is checked only after the checksum verdict so that a
		// checksum failure is reported preferentially when both occur.
		if err := client.CheckResponse(resp); err != nil {
			closeBody(resp, u.logger)
			return err
		}
		if number == 1 {
			uploadID = resp.Header.Get(headerUploadID)
		}
		closeBody(resp, u.logger)
	}
	return nil
}

// uploadChunk sends one chunk until its digest matches the server-reported
// checksum or the retry budget runs out. Retries are immediate and resend the
// exact same byte range; the response of the last attempt is returned with
// its body still open.
func (u *Uploader) uploadChunk(ctx context.Context, requestURL string, chunk *Chunk, number, count int, headers map[string]string, retries int) (*http.Response, error) {
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			u.logger.Warnf("Chunk %d/%d failed checksum verification, resending (attempt %d/%d)",
				number, count, attempt, retries)
		}

		// Rewinding resets the digest, so every attempt hashes the range
		// from scratch.
		if _, err := chunk.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("rewind chunk %d: %w", number, err)
		}

		resp, err := u.requester.Do(ctx, http.MethodPost, requestURL, chunk, chunk.Size, headers)
		if err != nil {
			return nil, fmt.Errorf("upload chunk %d: %w", number, err)
		}

		if resp.Header.Get(headerChunkChecksum) == chunk.Digest() {
			return resp, nil
		}
		closeBody(resp, u.logger)
	}

	return nil, &ChunkChecksumError{ChunkNumber: number, StartPosition: chunk.Position}
}

func closeBody(resp *http.Response, logger log.Logger) {
	if err := resp.Body.Close(); err != nil {
		logger.Warnf("close response body: %s", err)
	}
}
