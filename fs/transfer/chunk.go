package transfer

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Chunk is a readable view over [Position, Position+Size) of a seekable
// source. Every byte read through the chunk feeds an incremental SHA-512, so
// the digest always reflects exactly the bytes transmitted. Seeking back to
// the start rewinds the source and resets the digest, which makes a chunk
// safe to resend: a retry reproduces an identical digest for the same range.
type Chunk struct {
	// Position is the chunk's offset into the source.
	Position int64
	// Size is the number of bytes in this chunk.
	Size int64

	src      io.ReadSeeker
	hash     hash.Hash
	consumed int64
	started  bool
}

// NewChunk creates a chunk covering size bytes of src starting at position.
func NewChunk(src io.ReadSeeker, position, size int64) *Chunk {
	return &Chunk{
		Position: position,
		Size:     size,
		src:      src,
		hash:     sha512.New(),
	}
}

// Read implements io.Reader. The first read positions the source at the
// chunk start.
func (c *Chunk) Read(p []byte) (int, error) {
	if !c.started {
		if _, err := c.src.Seek(c.Position, io.SeekStart); err != nil {
			return 0, fmt.Errorf("seek to chunk start %d: %w", c.Position, err)
		}
		c.started = true
	}

	remaining := c.Size - c.consumed
	if remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := c.src.Read(p)
	if n > 0 {
		c.hash.Write(p[:n])
		c.consumed += int64(n)
	}
	if err == io.EOF && c.consumed < c.Size {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

// Seek implements io.Seeker for rewinding only: the sole supported target is
// the chunk start. Rewinding re-seeks the source and resets the digest.
func (c *Chunk) Seek(offset int64, whence int) (int64, error) {
	if offset != 0 || whence != io.SeekStart {
		return 0, fmt.Errorf("chunk at offset %d is only seekable to its start", c.Position)
	}
	if _, err := c.src.Seek(c.Position, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek to chunk start %d: %w", c.Position, err)
	}
	c.hash = sha512.New()
	c.consumed = 0
	c.started = true
	return 0, nil
}

// Digest returns the lowercase hex SHA-512 of the bytes read so far.
func (c *Chunk) Digest() string {
	return hex.EncodeToString(c.hash.Sum(nil))
}

// SplitChunks slices the first size bytes of src into position-ordered chunks
// of at most chunkSize bytes. The whole sequence is materialized up front
// because the chunk count must be known before the first chunk is sent (the
// last chunk carries a distinguishing header). The last chunk may be smaller.
func SplitChunks(src io.ReadSeeker, size, chunkSize int64) []*Chunk {
	var chunks []*Chunk
	for position := int64(0); position < size; position += chunkSize {
		length := chunkSize
		if size-position < length {
			length = size - position
		}
		chunks = append(chunks, NewChunk(src, position, length))
	}
	return chunks
}

// SourceSize determines the total size of a seekable source without consuming
// it: seek to the end, note the offset, seek back.
func SourceSize(src io.Seeker) (int64, error) {
	current, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("probe current position: %w", err)
	}
	end, err := src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("probe end position: %w", err)
	}
	if _, err := src.Seek(current, io.SeekStart); err != nil {
		return 0, fmt.Errorf("restore position: %w", err)
	}
	return end, nil
}
