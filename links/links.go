// Package links creates and manages share links to files and folders.
package links

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/egnyte/egnyte-go/client"
)

const (
	linksTemplate = "pubapi/v1/links"
	linkTemplate  = "pubapi/v1/links/%s"
)

// Link kinds.
const (
	KindFile   = "file"
	KindFolder = "folder"
	KindUpload = "upload"
)

// Link accessibility levels.
const (
	AccessibilityAnyone     = "anyone"
	AccessibilityPassword   = "password"
	AccessibilityDomain     = "domain"
	AccessibilityRecipients = "recipients"
)

var validKinds = []string{KindFile, KindFolder, KindUpload}

var validAccessibilities = []string{
	AccessibilityAnyone,
	AccessibilityPassword,
	AccessibilityDomain,
	AccessibilityRecipients,
}

// InvalidParameterError reports a link setting with a value outside the
// accepted set.
type InvalidParameterError struct {
	Name  string
	Value string
}

// Error implements the error interface.
func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid value %q for link parameter %s", e.Value, e.Name)
}

// Settings describe a link to create. Path, Kind and Accessibility are
// required; pointer fields distinguish "unset" from an explicit false.
type Settings struct {
	Path          string
	Kind          string
	Accessibility string
	Recipients    []string
	SendEmail     *bool
	Message       string
	CopyMe        *bool
	Notify        *bool
	LinkToCurrent *bool
	ExpiryDate    time.Time
	ExpiryClicks  int
	AddFilename   *bool
}

// Attributes are the metadata fields of a link.
type Attributes struct {
	Path          string  `json:"path"`
	Type          string  `json:"type"`
	Accessibility string  `json:"accessibility"`
	Notify        bool    `json:"notify"`
	LinkToCurrent bool    `json:"link_to_current"`
	CreationDate  string  `json:"creation_date"`
	SendMail      bool    `json:"send_mail"`
	CopyMe        bool    `json:"copy_me"`
	Links         []Entry `json:"links"`
}

// Entry is one generated link URL. Creating a link with multiple recipients
// yields one entry per recipient.
type Entry struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Recipient string `json:"recipient"`
}

// Link is a handle to a single link.
type Link struct {
	client *client.Client
	id     string
	attrs  *Attributes
}

// ID returns the link identifier.
func (l *Link) ID() string {
	return l.id
}

// Attributes returns the link metadata, fetching it on first access.
func (l *Link) Attributes(ctx context.Context) (*Attributes, error) {
	if l.attrs != nil {
		return l.attrs, nil
	}
	var attrs Attributes
	if err := l.client.GetJSON(ctx, l.client.URL(linkTemplate, l.id), &attrs); err != nil {
		return nil, err
	}
	l.attrs = &attrs
	return l.attrs, nil
}

// Delete revokes the link.
func (l *Link) Delete(ctx context.Context) error {
	return l.client.Delete(ctx, l.client.URL(linkTemplate, l.id))
}

// Links is the collection of links of a domain.
type Links struct {
	client *client.Client
}

// New creates the links collection.
func New(c *client.Client) *Links {
	return &Links{client: c}
}

// Get returns a handle to an existing link by its identifier.
func (ls *Links) Get(id string) *Link {
	return &Link{client: ls.client, id: id}
}

// Create makes a new link. Kind and Accessibility are validated before any
// request is issued; only the set optional fields are serialized.
func (ls *Links) Create(ctx context.Context, settings Settings) (*Link, error) {
	if !contains(validKinds, settings.Kind) {
		return nil, &InvalidParameterError{Name: "kind", Value: settings.Kind}
	}
	if !contains(validAccessibilities, settings.Accessibility) {
		return nil, &InvalidParameterError{Name: "accessibility", Value: settings.Accessibility}
	}

	body := map[string]interface{}{
		"path":          settings.Path,
		"type":          settings.Kind,
		"accessibility": settings.Accessibility,
	}
	if settings.SendEmail != nil {
		body["sendEmail"] = *settings.SendEmail
	}
	if settings.CopyMe != nil {
		body["copyMe"] = *settings.CopyMe
	}
	if settings.Notify != nil {
		body["notify"] = *settings.Notify
	}
	if settings.AddFilename != nil {
		body["addFilename"] = *settings.AddFilename
	}
	if settings.Kind == KindFile && settings.LinkToCurrent != nil {
		body["linkToCurrent"] = *settings.LinkToCurrent
	}
	if len(settings.Recipients) > 0 {
		body["recipients"] = settings.Recipients
	}
	if settings.ExpiryClicks > 0 {
		body["expiryClicks"] = settings.ExpiryClicks
	} else if !settings.ExpiryDate.IsZero() {
		body["expiryDate"] = settings.ExpiryDate.Format("2006-01-02")
	}
	if settings.Message != "" {
		body["message"] = settings.Message
	}

	resp, err := ls.client.PostJSON(ctx, ls.client.URL(linksTemplate), body)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			ls.client.Logger().Warnf("close response body: %s", err)
		}
	}()

	if err := client.CheckResponse(resp); err != nil {
		return nil, err
	}

	var attrs Attributes
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	link := &Link{client: ls.client, attrs: &attrs}
	if len(attrs.Links) > 0 {
		link.id = attrs.Links[0].ID
	}
	return link, nil
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
