package users

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egnyte/egnyte-go/client"
)

func newTestUsers(serverURL string) *Users {
	cfg := client.DefaultConfig()
	cfg.Domain = serverURL
	cfg.AccessToken = "token"
	return New(client.New(cfg, log.NewLogger()))
}

func TestList(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pubapi/v2/users", r.URL.Path)
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{
			"totalResults": 2,
			"resources": [
				{"id": 1, "userName": "jdoe", "email": "jdoe@example.com", "active": true},
				{"id": 2, "userName": "asmith", "email": "asmith@example.com", "active": false}
			]
		}`))
	}))
	defer server.Close()

	users, err := newTestUsers(server.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(1), users[0].ID())
	assert.Empty(t, gotQuery)

	// List pre-populates attributes.
	attrs, err := users[1].Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "asmith", attrs.UserName)
	assert.False(t, attrs.Active)
}

func TestFilterAndSearchBuildQueries(t *testing.T) {
	queries := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries[r.URL.RawQuery] = true
		_, _ = w.Write([]byte(`{"totalResults": 0, "resources": []}`))
	}))
	defer server.Close()

	collection := newTestUsers(server.URL)

	_, err := collection.Search("doe").List(context.Background())
	require.NoError(t, err)
	_, err = collection.Filter(`email eq "jdoe@example.com"`).List(context.Background())
	require.NoError(t, err)

	assert.True(t, queries["search=doe"])
	assert.True(t, queries[`filter=email+eq+%22jdoe%40example.com%22`])

	// The base collection stays unfiltered.
	_, err = collection.List(context.Background())
	require.NoError(t, err)
	assert.True(t, queries[""])
}

func TestByEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("filter") == `email eq "jdoe@example.com"` {
			_, _ = w.Write([]byte(`{"totalResults": 1, "resources": [{"id": 7, "userName": "jdoe", "email": "jdoe@example.com"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"totalResults": 0, "resources": []}`))
	}))
	defer server.Close()

	user, err := newTestUsers(server.URL).ByEmail(context.Background(), "jdoe@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(7), user.ID())

	missing, err := newTestUsers(server.URL).ByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUser_AttributesLazyLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pubapi/v2/users/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 42, "userName": "jdoe", "email": "jdoe@example.com", "userType": "power"}`))
	}))
	defer server.Close()

	user := newTestUsers(server.URL).ByID(42)
	attrs, err := user.Attributes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jdoe", attrs.UserName)
	assert.Equal(t, "power", attrs.UserType)
}
