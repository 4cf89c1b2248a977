package transfer

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egnyte/egnyte-go/client"
)

type recordedRequest struct {
	ChunkNum      string
	LastChunk     string
	UploadID      string
	ContentLength int64
	Body          []byte
}

// uploadServer plays the content endpoints: it digests every request body
// and reports the digest back in the checksum header. Corrupt and Status
// hooks simulate a disagreeing server and failure statuses per request.
type uploadServer struct {
	mu       sync.Mutex
	requests []recordedRequest

	Corrupt func(requestIndex int) bool
	Status  func(requestIndex int) int
}

func (s *uploadServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		s.mu.Lock()
		index := len(s.requests)
		s.requests = append(s.requests, recordedRequest{
			ChunkNum:      r.Header.Get("x-egnyte-chunk-num"),
			LastChunk:     r.Header.Get("x-egnyte-last-chunk"),
			UploadID:      r.Header.Get("x-egnyte-upload-id"),
			ContentLength: r.ContentLength,
			Body:          body,
		})
		s.mu.Unlock()

		sum := sha512.Sum512(body)
		digest := hex.EncodeToString(sum[:])
		if s.Corrupt != nil && s.Corrupt(index) {
			digest = "0000deadbeef"
		}

		if r.Header.Get("x-egnyte-chunk-num") == "" {
			w.Header().Set("X-Sha512-Checksum", digest)
		} else {
			w.Header().Set("x-egnyte-chunk-sha512-checksum", digest)
			if r.Header.Get("x-egnyte-chunk-num") == "1" {
				w.Header().Set("x-egnyte-upload-id", "upload-session-123")
			}
		}

		status := http.StatusOK
		if s.Status != nil {
			status = s.Status(index)
		}
		w.WriteHeader(status)
	}
}

func (s *uploadServer) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func (s *uploadServer) chunkRequests(chunkNum string) []recordedRequest {
	var matches []recordedRequest
	for _, req := range s.recorded() {
		if req.ChunkNum == chunkNum {
			matches = append(matches, req)
		}
	}
	return matches
}

func testOptions() Options {
	return Options{
		ChunkSize:         100,
		ChunkThreshold:    100,
		MaxRetries:        3,
		DownloadChunkSize: 16,
		DecodeContent:     true,
	}
}

func newTestUploader(serverURL string, options Options) *Uploader {
	cfg := client.DefaultConfig()
	cfg.Domain = serverURL
	cfg.AccessToken = "token"
	logger := log.NewLogger()
	return NewUploader(client.New(cfg, logger), options, logger)
}

func contentOf(size int) []byte {
	content := make([]byte, size)
	for i := range content {
		content[i] = byte('a' + i%26)
	}
	return content
}

func uploadContent(t *testing.T, server *uploadServer, options Options, content []byte, size int64) error {
	t.Helper()
	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)

	uploader := newTestUploader(ts.URL, options)
	return uploader.Upload(context.Background(),
		ts.URL+"/pubapi/v1/fs-content/test.bin",
		ts.URL+"/pubapi/v1/fs-content-chunked/test.bin",
		bytes.NewReader(content), size)
}

func TestUpload_SingleShot(t *testing.T) {
	server := &uploadServer{}
	content := contentOf(50)

	require.NoError(t, uploadContent(t, server, testOptions(), content, 50))

	requests := server.recorded()
	require.Len(t, requests, 1)
	assert.Empty(t, requests[0].ChunkNum, "single-shot upload must not carry chunk headers")
	assert.Empty(t, requests[0].LastChunk)
	assert.Equal(t, int64(50), requests[0].ContentLength)
	assert.Equal(t, content, requests[0].Body)
}

func TestUpload_SingleShot_ChecksumMismatch(t *testing.T) {
	server := &uploadServer{Corrupt: func(int) bool { return true }}

	err := uploadContent(t, server, testOptions(), contentOf(10), 10)
	require.ErrorIs(t, err, ErrChecksumMismatch)
	assert.Len(t, server.recorded(), 1, "single-shot uploads are not retried")
}

func TestUpload_SingleShot_ErrorStatus(t *testing.T) {
	server := &uploadServer{Status: func(int) int { return http.StatusForbidden }}

	err := uploadContent(t, server, testOptions(), contentOf(10), 10)

	var reqErr *client.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.StatusCode)
}

func TestUpload_Chunked_SplitsAndMarksLast(t *testing.T) {
	server := &uploadServer{}
	content := contentOf(250)

	require.NoError(t, uploadContent(t, server, testOptions(), content, 250))

	requests := server.recorded()
	require.Len(t, requests, 3)

	assert.Equal(t, []byte(content[0:100]), requests[0].Body)
	assert.Equal(t, []byte(content[100:200]), requests[1].Body)
	assert.Equal(t, []byte(content[200:250]), requests[2].Body)

	for i, req := range requests {
		assert.Equal(t, int64(len(req.Body)), req.ContentLength, "chunk %d", i+1)
	}

	assert.Equal(t, "1", requests[0].ChunkNum)
	assert.Equal(t, "2", requests[1].ChunkNum)
	assert.Equal(t, "3", requests[2].ChunkNum)

	assert.Empty(t, requests[0].LastChunk)
	assert.Empty(t, requests[1].LastChunk)
	assert.Equal(t, "true", requests[2].LastChunk)

	assert.Empty(t, requests[0].UploadID, "chunk 1 cannot know the session yet")
	assert.Equal(t, "upload-session-123", requests[1].UploadID)
	assert.Equal(t, "upload-session-123", requests[2].UploadID)
}

func TestUpload_ThresholdBoundary(t *testing.T) {
	server := &uploadServer{}

	// Content exactly at the threshold takes the chunked path.
	require.NoError(t, uploadContent(t, server, testOptions(), contentOf(100), 100))

	requests := server.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "1", requests[0].ChunkNum)
	assert.Equal(t, "true", requests[0].LastChunk)
}

func TestUpload_MeasuresSizeWhenNegative(t *testing.T) {
	server := &uploadServer{}
	content := contentOf(50)

	require.NoError(t, uploadContent(t, server, testOptions(), content, -1))

	requests := server.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, content, requests[0].Body)
}

func TestUpload_Chunked_RetriesChecksumMismatch(t *testing.T) {
	// Chunk 2 (request indexes 1 and 2) fails verification twice, then
	// matches on the third attempt.
	server := &uploadServer{Corrupt: func(index int) bool { return index == 1 || index == 2 }}
	content := contentOf(250)

	require.NoError(t, uploadContent(t, server, testOptions(), content, 250))

	requests := server.recorded()
	require.Len(t, requests, 5, "1 + 3 + 1 requests expected")

	chunk2 := server.chunkRequests("2")
	require.Len(t, chunk2, 3)
	for i, req := range chunk2 {
		assert.Equal(t, []byte(content[100:200]), req.Body, "retry %d must resend the same bytes", i+1)
		assert.Equal(t, "upload-session-123", req.UploadID)
	}
}

func TestUpload_Chunked_RetryBudgetExhausted(t *testing.T) {
	server := &uploadServer{
		Corrupt: func(index int) bool { return index >= 1 }, // every chunk 2 attempt
	}

	err := uploadContent(t, server, testOptions(), contentOf(250), 250)

	var chunkErr *ChunkChecksumError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 2, chunkErr.ChunkNumber)
	assert.Equal(t, int64(100), chunkErr.StartPosition)

	assert.Len(t, server.chunkRequests("2"), 3)
	assert.Empty(t, server.chunkRequests("3"), "no chunk after the failed one may be sent")
}

func TestUpload_Chunked_RetryFloorIsOne(t *testing.T) {
	server := &uploadServer{Corrupt: func(int) bool { return true }}
	options := testOptions()
	options.MaxRetries = 0

	err := uploadContent(t, server, options, contentOf(150), 150)

	var chunkErr *ChunkChecksumError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 1, chunkErr.ChunkNumber)
	assert.Len(t, server.recorded(), 1, "retry budget floor is one attempt")
}

func TestUpload_Chunked_ErrorStatusAfterChecksumMatch(t *testing.T) {
	server := &uploadServer{Status: func(int) int { return http.StatusForbidden }}

	err := uploadContent(t, server, testOptions(), contentOf(150), 150)

	var reqErr *client.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.StatusCode)
	assert.Len(t, server.recorded(), 1, "status failure with a matching checksum is not retried")
}

func TestUpload_Chunked_ChecksumFailureReportedOverStatus(t *testing.T) {
	// Both the checksum and the status are bad; the checksum verdict wins.
	server := &uploadServer{
		Corrupt: func(int) bool { return true },
		Status:  func(int) int { return http.StatusForbidden },
	}

	err := uploadContent(t, server, testOptions(), contentOf(150), 150)

	var chunkErr *ChunkChecksumError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, 1, chunkErr.ChunkNumber)
}
