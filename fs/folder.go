package fs

import (
	"context"

	"github.com/egnyte/egnyte-go/client"
	"github.com/egnyte/egnyte-go/links"
)

// Folder is a handle to a folder in the cloud.
type Folder struct {
	node
}

// NewFolder creates a handle for the given cloud path. The folder does not
// have to exist yet.
func NewFolder(c *client.Client, path string) *Folder {
	return &Folder{node{client: c, path: normalizePath(path)}}
}

// File returns a handle to a file inside this folder.
func (fo *Folder) File(name string) *File {
	return NewFile(fo.client, childPath(fo.path, name))
}

// Folder returns a handle to a subfolder of this folder.
func (fo *Folder) Folder(name string) *Folder {
	return NewFolder(fo.client, childPath(fo.path, name))
}

// Create creates the folder in the cloud. With ignoreIfExists set, the error
// raised for an already existing folder is ignored.
func (fo *Folder) Create(ctx context.Context, ignoreIfExists bool) error {
	body := map[string]string{"action": actionAddFolder}
	resp, err := fo.client.PostJSON(ctx, fo.client.URL(metadataTemplate, fo.path), body)
	if err != nil {
		return err
	}
	defer closeBody(resp, fo.client)
	return client.CheckCreated(resp, ignoreIfExists)
}

// Delete removes the folder and everything in it.
func (fo *Folder) Delete(ctx context.Context) error {
	return fo.client.Delete(ctx, fo.client.URL(metadataTemplate, fo.path))
}

// Listing holds the direct children of a folder. Attributes of the entries
// are pre-populated from the listing response.
type Listing struct {
	Folders []*Folder
	Files   []*File
}

type listingResponse struct {
	Attributes
	Folders []Attributes `json:"folders"`
	Files   []Attributes `json:"files"`
}

// List fetches the direct children of this folder. The folder's own
// attributes are refreshed as a side effect.
func (fo *Folder) List(ctx context.Context) (*Listing, error) {
	var response listingResponse
	if err := fo.client.GetJSON(ctx, fo.client.URL(metadataTemplate, fo.path), &response); err != nil {
		return nil, err
	}
	fo.attrs = &response.Attributes

	listing := &Listing{}
	for i := range response.Folders {
		attrs := response.Folders[i]
		child := NewFolder(fo.client, fo.entryPath(attrs))
		child.attrs = &attrs
		listing.Folders = append(listing.Folders, child)
	}
	for i := range response.Files {
		attrs := response.Files[i]
		child := NewFile(fo.client, fo.entryPath(attrs))
		child.attrs = &attrs
		listing.Files = append(listing.Files, child)
	}
	return listing, nil
}

// entryPath resolves a listed entry to its full cloud path. The listing
// usually reports it; fall back to joining with the entry name.
func (fo *Folder) entryPath(attrs Attributes) string {
	if attrs.Path != "" {
		return attrs.Path
	}
	return childPath(fo.path, attrs.Name)
}

// Copy copies the folder to another path. The destination must carry all
// path segments including the final one.
func (fo *Folder) Copy(ctx context.Context, destination string) (*Folder, error) {
	if err := fo.action(ctx, actionCopy, destination); err != nil {
		return nil, err
	}
	return NewFolder(fo.client, destination), nil
}

// Move moves the folder to another path. The destination must carry all path
// segments including the final one.
func (fo *Folder) Move(ctx context.Context, destination string) (*Folder, error) {
	if err := fo.action(ctx, actionMove, destination); err != nil {
		return nil, err
	}
	return NewFolder(fo.client, destination), nil
}

// Link creates a link to this folder. Path and Kind in the settings are
// filled in from the handle.
func (fo *Folder) Link(ctx context.Context, settings links.Settings) (*links.Link, error) {
	settings.Path = fo.path
	settings.Kind = links.KindFolder
	return links.New(fo.client).Create(ctx, settings)
}
