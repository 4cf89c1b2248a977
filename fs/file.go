package fs

import (
	"bytes"
	"context"
	"io"

	"github.com/egnyte/egnyte-go/client"
	"github.com/egnyte/egnyte-go/fs/transfer"
	"github.com/egnyte/egnyte-go/links"
)

// File is a handle to a file in the cloud.
type File struct {
	node
}

// NewFile creates a handle for the given cloud path. The file does not have
// to exist yet.
func NewFile(c *client.Client, path string) *File {
	return &File{node{client: c, path: normalizePath(path)}}
}

// Upload sends the content of src as the new file body, replacing any
// previous version. Pass a negative size to have it measured from the source
// (which must then be seekable beyond being readable). Content below the
// configured threshold goes out as one request; larger content is uploaded
// chunk by chunk with per-chunk checksum verification.
func (f *File) Upload(ctx context.Context, src io.ReadSeeker, size int64) error {
	uploader := transfer.NewUploader(f.client, transfer.FromConfig(f.client.Config()), f.client.Logger())
	err := uploader.Upload(ctx,
		f.client.URL(contentTemplate, f.path),
		f.client.URL(chunkedContentTemplate, f.path),
		src, size)
	if err != nil {
		return err
	}
	// Stored metadata changed; forget anything cached.
	f.Reload()
	return nil
}

// UploadBytes uploads an in-memory payload.
func (f *File) UploadBytes(ctx context.Context, content []byte) error {
	return f.Upload(ctx, bytes.NewReader(content), int64(len(content)))
}

// Download opens the file content as a stream. The caller owns the returned
// stream and must release it with Close or by draining it through WriteTo.
func (f *File) Download(ctx context.Context) (*transfer.Download, error) {
	downloader := transfer.NewDownloader(f.client, transfer.FromConfig(f.client.Config()), f.client.Logger())
	return downloader.Download(ctx, f.client.URL(contentTemplate, f.path))
}

// DownloadToFile fetches the file content straight to dest on disk.
func (f *File) DownloadToFile(ctx context.Context, dest string) error {
	return transfer.DownloadToFile(ctx,
		f.client.StandardClient(),
		f.client.URL(contentTemplate, f.path),
		dest,
		f.client.RequestHeaders())
}

// Copy copies the file to another path. The destination must carry all path
// segments including the final one; the returned handle points at it.
func (f *File) Copy(ctx context.Context, destination string) (*File, error) {
	if err := f.action(ctx, actionCopy, destination); err != nil {
		return nil, err
	}
	return NewFile(f.client, destination), nil
}

// Move moves the file to another path. The destination must carry all path
// segments including the final one; the returned handle points at it.
func (f *File) Move(ctx context.Context, destination string) (*File, error) {
	if err := f.action(ctx, actionMove, destination); err != nil {
		return nil, err
	}
	return NewFile(f.client, destination), nil
}

// Link creates a link to this file. Path and Kind in the settings are filled
// in from the handle.
func (f *File) Link(ctx context.Context, settings links.Settings) (*links.Link, error) {
	settings.Path = f.path
	settings.Kind = links.KindFile
	return links.New(f.client).Create(ctx, settings)
}
