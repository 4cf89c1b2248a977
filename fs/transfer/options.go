package transfer

import "github.com/egnyte/egnyte-go/client"

// Options control the upload engine and download streams. The zero value is
// not usable; start from DefaultOptions or FromConfig.
type Options struct {
	// ChunkSize is the maximum size of one chunk in a chunked upload.
	ChunkSize int64

	// ChunkThreshold is the content size at which the engine switches from a
	// single-request upload to the chunked protocol.
	ChunkThreshold int64

	// MaxRetries is the per-chunk retry budget for checksum mismatches.
	// Values below 1 are treated as 1. Retries are immediate, with no backoff.
	MaxRetries int

	// DownloadChunkSize is the block size used by Download.Chunks and
	// Download.WriteTo.
	DownloadChunkSize int64

	// DecodeContent enables transparent decompression of downloads based on
	// the Content-Encoding response header.
	DecodeContent bool
}

// DefaultOptions returns the stock transfer options.
func DefaultOptions() Options {
	return FromConfig(client.DefaultConfig())
}

// FromConfig derives transfer options from a client configuration.
func FromConfig(cfg client.Config) Options {
	return Options{
		ChunkSize:         cfg.ChunkSize,
		ChunkThreshold:    cfg.ChunkThreshold,
		MaxRetries:        cfg.MaxChunkRetries,
		DownloadChunkSize: cfg.DownloadChunkSize,
		DecodeContent:     cfg.DecodeContent,
	}
}
