// Package egnyte is the front door of the SDK: it bundles the per-resource
// packages behind one client tied to a single Egnyte domain.
package egnyte

import (
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/egnyte/egnyte-go/client"
	"github.com/egnyte/egnyte-go/fs"
	"github.com/egnyte/egnyte-go/links"
	"github.com/egnyte/egnyte-go/users"
)

// Client gives access to the resources of one Egnyte domain.
type Client struct {
	base *client.Client
}

// New creates a Client. logger may be nil for the default logger.
func New(config client.Config, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewLogger()
	}
	return &Client{base: client.New(config, logger)}
}

// Base exposes the underlying HTTP client collaborator.
func (c *Client) Base() *client.Client {
	return c.base
}

// File returns a handle to a file by cloud path.
func (c *Client) File(path string) *fs.File {
	return fs.NewFile(c.base, path)
}

// Folder returns a handle to a folder by cloud path.
func (c *Client) Folder(path string) *fs.Folder {
	return fs.NewFolder(c.base, path)
}

// Links returns the domain's link collection.
func (c *Client) Links() *links.Links {
	return links.New(c.base)
}

// Users returns the domain's user collection.
func (c *Client) Users() *users.Users {
	return users.New(c.base)
}
