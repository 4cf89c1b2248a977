//go:build integration
// +build integration

package integration

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"

	"github.com/egnyte/egnyte-go"
	"github.com/egnyte/egnyte-go/client"
)

var logger = log.NewLogger()

// newClient builds a client against the real domain configured through the
// environment. Tests are skipped when the credentials are absent.
func newClient(t *testing.T) *egnyte.Client {
	t.Helper()

	config, err := client.ConfigFromEnv(env.NewRepository())
	if err != nil {
		t.Fatalf("read config from environment: %s", err)
	}
	if config.Domain == "" || config.AccessToken == "" {
		t.Skip("EGNYTE_DOMAIN and EGNYTE_ACCESS_TOKEN must be set")
	}

	logger.EnableDebugLog(true)
	return egnyte.New(config, logger)
}

// testRoot is a unique folder path for one test run, so that parallel runs
// against the same domain do not collide.
func testRoot() string {
	return fmt.Sprintf("/Shared/egnyte-go-integration/%d-%d", time.Now().UnixNano(), os.Getpid())
}
