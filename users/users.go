// Package users looks up user accounts of an Egnyte domain. The API is
// read-only here; account provisioning is not part of this SDK.
package users

import (
	"context"
	"fmt"
	"net/url"

	"github.com/egnyte/egnyte-go/client"
)

const (
	usersTemplate = "pubapi/v2/users"
	userTemplate  = "pubapi/v2/users/%s"
)

// Name is a user's display name.
type Name struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Attributes are the account fields reported by the users endpoint.
type Attributes struct {
	ID         int64  `json:"id"`
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	Name       Name   `json:"name"`
	Active     bool   `json:"active"`
	Locked     bool   `json:"locked"`
	UserType   string `json:"userType"`
	AuthType   string `json:"authType"`
	ExternalID string `json:"externalId"`
}

// User is a handle to a single account.
type User struct {
	client *client.Client
	id     int64
	attrs  *Attributes
}

// ID returns the numeric account identifier.
func (u *User) ID() int64 {
	return u.id
}

// Attributes returns the account fields, fetching them on first access.
func (u *User) Attributes(ctx context.Context) (*Attributes, error) {
	if u.attrs != nil {
		return u.attrs, nil
	}
	var attrs Attributes
	requestURL := u.client.URL(userTemplate, fmt.Sprintf("%d", u.id))
	if err := u.client.GetJSON(ctx, requestURL, &attrs); err != nil {
		return nil, err
	}
	u.attrs = &attrs
	return u.attrs, nil
}

// Users is a queryable view of the domain's accounts. Filter and Search
// return narrowed copies; the receiver is never mutated.
type Users struct {
	client *client.Client
	params url.Values
}

// New creates the users collection.
func New(c *client.Client) *Users {
	return &Users{client: c, params: url.Values{}}
}

// ByID returns a handle to the account with the given identifier.
func (us *Users) ByID(id int64) *User {
	return &User{client: us.client, id: id}
}

// Filter narrows the collection with a filter expression, e.g.
// `email eq "jdoe@example.com"`.
func (us *Users) Filter(where string) *Users {
	return us.withParam("filter", where)
}

// Search narrows the collection to accounts matching the search text in
// their username, email or name.
func (us *Users) Search(text string) *Users {
	return us.withParam("search", text)
}

func (us *Users) withParam(key, value string) *Users {
	params := url.Values{}
	for k, v := range us.params {
		params[k] = append([]string(nil), v...)
	}
	params.Set(key, value)
	return &Users{client: us.client, params: params}
}

type listResponse struct {
	TotalResults int          `json:"totalResults"`
	Resources    []Attributes `json:"resources"`
}

// List fetches the accounts matching the collection's query.
func (us *Users) List(ctx context.Context) ([]*User, error) {
	requestURL := us.client.URL(usersTemplate)
	if query := us.params.Encode(); query != "" {
		requestURL += "?" + query
	}

	var response listResponse
	if err := us.client.GetJSON(ctx, requestURL, &response); err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(response.Resources))
	for i := range response.Resources {
		attrs := response.Resources[i]
		users = append(users, &User{client: us.client, id: attrs.ID, attrs: &attrs})
	}
	return users, nil
}

// ByEmail fetches the single account with the given email address, or nil
// when no account matches.
func (us *Users) ByEmail(ctx context.Context, email string) (*User, error) {
	matches, err := us.Filter(fmt.Sprintf("email eq %q", email)).List(ctx)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}
