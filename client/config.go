package client

import (
	"fmt"
	"strconv"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/docker/go-units"
)

// Defaults for the transfer-related knobs. Chunk size and the chunked-upload
// threshold are separate settings even though they default to the same value.
const (
	DefaultChunkSize         = 100 * 1024 * 1024
	DefaultChunkThreshold    = 100 * 1024 * 1024
	DefaultMaxChunkRetries   = 3
	DefaultDownloadChunkSize = 16 * 1024
	defaultUserAgent         = "egnyte-go"
)

// Environment variables recognized by ConfigFromEnv. Size values accept
// go-units syntax ("100MB", "64KiB", plain byte counts).
const (
	envKeyDomain         = "EGNYTE_DOMAIN"
	envKeyAccessToken    = "EGNYTE_ACCESS_TOKEN"
	envKeyChunkSize      = "EGNYTE_CHUNK_SIZE"
	envKeyChunkThreshold = "EGNYTE_CHUNK_THRESHOLD"
	envKeyChunkRetries   = "EGNYTE_CHUNK_RETRIES"
)

// Secret is a string value that is redacted when formatted, so access tokens
// don't end up in logs.
type Secret string

const secretRedacted = "[REDACTED]"

// String implements fmt.Stringer.
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return secretRedacted
}

// Config holds everything a Client needs to talk to an Egnyte domain.
type Config struct {
	// Domain is the API host, e.g. "acme.egnyte.com". A scheme prefix is
	// optional and defaults to https.
	Domain string

	// AccessToken is the OAuth bearer token sent with every request.
	AccessToken Secret

	// ChunkSize is the maximum size of a single chunk in a chunked upload.
	ChunkSize int64

	// ChunkThreshold is the content size at which uploads switch from a
	// single request to the chunked protocol.
	ChunkThreshold int64

	// MaxChunkRetries is the per-chunk retry budget for checksum mismatches.
	// Values below 1 are treated as 1.
	MaxChunkRetries int

	// DownloadChunkSize is the block size used by download chunk iteration.
	DownloadChunkSize int64

	// DecodeContent enables transparent decompression of downloads based on
	// the Content-Encoding response header.
	DecodeContent bool

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// DefaultConfig returns a Config with all transfer knobs at their defaults.
// Domain and AccessToken still need to be filled in.
func DefaultConfig() Config {
	return Config{
		ChunkSize:         DefaultChunkSize,
		ChunkThreshold:    DefaultChunkThreshold,
		MaxChunkRetries:   DefaultMaxChunkRetries,
		DownloadChunkSize: DefaultDownloadChunkSize,
		DecodeContent:     true,
		UserAgent:         defaultUserAgent,
	}
}

// ConfigFromEnv builds a Config from the defaults overlaid with the EGNYTE_*
// environment variables read through envRepo.
func ConfigFromEnv(envRepo env.Repository) (Config, error) {
	cfg := DefaultConfig()

	cfg.Domain = envRepo.Get(envKeyDomain)
	cfg.AccessToken = Secret(envRepo.Get(envKeyAccessToken))

	if value := envRepo.Get(envKeyChunkSize); value != "" {
		size, err := units.RAMInBytes(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envKeyChunkSize, err)
		}
		cfg.ChunkSize = size
	}

	if value := envRepo.Get(envKeyChunkThreshold); value != "" {
		size, err := units.RAMInBytes(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envKeyChunkThreshold, err)
		}
		cfg.ChunkThreshold = size
	}

	if value := envRepo.Get(envKeyChunkRetries); value != "" {
		retries, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", envKeyChunkRetries, err)
		}
		cfg.MaxChunkRetries = retries
	}

	return cfg, nil
}
