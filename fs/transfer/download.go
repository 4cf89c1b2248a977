package transfer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/egnyte/egnyte-go/client"
)

// Downloader opens file content as a stream.
type Downloader struct {
	requester Requester
	options   Options
	logger    log.Logger
}

// NewDownloader creates a Downloader.
func NewDownloader(requester Requester, options Options, logger log.Logger) *Downloader {
	return &Downloader{
		requester: requester,
		options:   options,
		logger:    logger,
	}
}

// Download issues a streamed GET and wraps the live response. The caller owns
// the returned stream and must release it, either with Close or by draining
// it through WriteTo.
func (d *Downloader) Download(ctx context.Context, requestURL string) (*Download, error) {
	resp, err := d.requester.Do(ctx, http.MethodGet, requestURL, nil, -1, nil)
	if err != nil {
		return nil, fmt.Errorf("download content: %w", err)
	}
	if err := client.CheckResponse(resp); err != nil {
		closeBody(resp, d.logger)
		return nil, err
	}
	return NewDownload(resp, d.options)
}

// Download wraps exactly one live server response for the lifetime of one
// download call. It owns the underlying connection; once closed it is not
// reusable and all read operations fail with ErrStreamClosed.
type Download struct {
	resp      *http.Response
	body      io.Reader
	decoder   io.Closer
	chunkSize int64
	closed    bool
}

// NewDownload wraps an already-issued response. When content decoding is
// enabled and the response declares a known Content-Encoding, reads are
// transparently decompressed.
func NewDownload(resp *http.Response, options Options) (*Download, error) {
	d := &Download{
		resp:      resp,
		body:      resp.Body,
		chunkSize: options.DownloadChunkSize,
	}
	if d.chunkSize <= 0 {
		d.chunkSize = client.DefaultDownloadChunkSize
	}

	if !options.DecodeContent {
		return d, nil
	}
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		decoder, err := gzip.NewReader(resp.Body)
		if err != nil {
			closeQuietly(resp.Body)
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		d.body = decoder
		d.decoder = decoder
	case "zstd":
		decoder, err := zstd.NewReader(resp.Body)
		if err != nil {
			closeQuietly(resp.Body)
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		readCloser := decoder.IOReadCloser()
		d.body = readCloser
		d.decoder = readCloser
	}
	return d, nil
}

// Length returns the byte count declared by the server. The header is not
// always present; absent or unparseable lengths yield ErrLengthUnavailable.
func (d *Download) Length() (int64, error) {
	if d.resp.ContentLength < 0 {
		return 0, ErrLengthUnavailable
	}
	return d.resp.ContentLength, nil
}

// Read implements io.Reader over the (possibly decoded) response body.
func (d *Download) Read(p []byte) (int, error) {
	if d.closed {
		return 0, ErrStreamClosed
	}
	return d.body.Read(p)
}

// ReadAll reads and returns all remaining bytes.
func (d *Download) ReadAll() ([]byte, error) {
	if d.closed {
		return nil, ErrStreamClosed
	}
	return io.ReadAll(d.body)
}

// Lines returns a lazy line iterator over the body. The iteration consumes
// the stream and is not restartable.
func (d *Download) Lines() *LineIterator {
	return &LineIterator{scanner: bufio.NewScanner(d)}
}

// Chunks returns a lazy iterator over fixed-size blocks of the body. A
// non-positive size falls back to the configured download chunk size.
// The iteration consumes the stream and is not restartable.
func (d *Download) Chunks(size int64) *ChunkIterator {
	if size <= 0 {
		size = d.chunkSize
	}
	return &ChunkIterator{download: d, buf: make([]byte, size)}
}

// WriteTo drains the remaining content into w through the chunk iteration
// path. The stream is closed on every exit path: normal completion, a sink
// write failure, and a read failure.
func (d *Download) WriteTo(w io.Writer) (written int64, err error) {
	defer func() {
		if closeErr := d.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if d.closed {
		return 0, ErrStreamClosed
	}

	blocks := d.Chunks(0)
	for {
		block, readErr := blocks.Next()
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
		n, writeErr := w.Write(block)
		written += int64(n)
		if writeErr != nil {
			return written, fmt.Errorf("write to sink: %w", writeErr)
		}
	}
}

// Close releases the underlying response. Calling it again is a no-op.
func (d *Download) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.decoder != nil {
		closeQuietly(d.decoder)
	}
	return d.resp.Body.Close()
}

// IsClosed reports whether the stream has been released.
func (d *Download) IsClosed() bool {
	return d.closed
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}

// LineIterator yields the body line by line.
type LineIterator struct {
	scanner *bufio.Scanner
}

// Next advances to the next line. It returns false at the end of the stream
// or on error; check Err afterwards.
func (it *LineIterator) Next() bool {
	return it.scanner.Scan()
}

// Text returns the current line without its terminator.
func (it *LineIterator) Text() string {
	return it.scanner.Text()
}

// Bytes returns the current line without its terminator. The slice is only
// valid until the next call to Next.
func (it *LineIterator) Bytes() []byte {
	return it.scanner.Bytes()
}

// Err returns the first error encountered, if any. Reaching the end of the
// stream is not an error.
func (it *LineIterator) Err() error {
	return it.scanner.Err()
}

// ChunkIterator yields the body as fixed-size blocks; the final block may be
// shorter.
type ChunkIterator struct {
	download *Download
	buf      []byte
	done     bool
}

// Next returns the next block, or io.EOF once the stream is exhausted. The
// returned slice is only valid until the next call.
func (it *ChunkIterator) Next() ([]byte, error) {
	if it.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(it.download, it.buf)
	switch {
	case err == io.EOF:
		it.done = true
		return nil, io.EOF
	case err == io.ErrUnexpectedEOF:
		it.done = true
		return it.buf[:n], nil
	case err != nil:
		it.done = true
		return nil, err
	}
	return it.buf, nil
}
