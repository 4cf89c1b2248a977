// Package fs exposes files and folders of an Egnyte domain as addressable
// handles. A handle does not have to name an existing object: a File can
// represent content about to be uploaded, a Folder one about to be created.
// Metadata is loaded lazily on first access.
package fs

import (
	"context"
	"net/http"
	"strings"

	"github.com/egnyte/egnyte-go/client"
)

// Path templates of the fs endpoints, rooted at the API domain.
const (
	metadataTemplate       = "pubapi/v1/fs%s"
	contentTemplate        = "pubapi/v1/fs-content%s"
	chunkedContentTemplate = "pubapi/v1/fs-content-chunked%s"
)

const (
	actionCopy      = "copy"
	actionMove      = "move"
	actionAddFolder = "add_folder"
)

// Attributes are the metadata fields reported by the fs endpoint. Folder
// entries only fill a subset of them.
type Attributes struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Checksum     string `json:"checksum"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
	EntryID      string `json:"entry_id"`
	UploadedBy   string `json:"uploaded_by"`
	NumVersions  int    `json:"num_versions"`
	IsFolder     bool   `json:"is_folder"`
	FolderID     string `json:"folder_id"`
}

// node carries what files and folders have in common: a client, a path, and
// lazily populated attributes.
type node struct {
	client *client.Client
	path   string
	attrs  *Attributes
}

// Path returns the cloud path the handle points at.
func (n *node) Path() string {
	return n.path
}

// Attributes returns the object's metadata, fetching it from the fs endpoint
// on first access.
func (n *node) Attributes(ctx context.Context) (*Attributes, error) {
	if n.attrs != nil {
		return n.attrs, nil
	}
	var attrs Attributes
	if err := n.client.GetJSON(ctx, n.client.URL(metadataTemplate, n.path), &attrs); err != nil {
		return nil, err
	}
	n.attrs = &attrs
	return n.attrs, nil
}

// Reload drops cached attributes so the next access fetches fresh metadata.
func (n *node) Reload() {
	n.attrs = nil
}

func (n *node) action(ctx context.Context, action, destination string) error {
	body := map[string]string{
		"action":      action,
		"destination": destination,
	}
	resp, err := n.client.PostJSON(ctx, n.client.URL(metadataTemplate, n.path), body)
	if err != nil {
		return err
	}
	defer closeBody(resp, n.client)
	return client.CheckResponse(resp)
}

func closeBody(resp *http.Response, c *client.Client) {
	if err := resp.Body.Close(); err != nil {
		c.Logger().Warnf("close response body: %s", err)
	}
}

func childPath(parent, name string) string {
	return strings.TrimSuffix(parent, "/") + "/" + name
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
