package transfer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/melbahja/got"
)

// DownloadToFile fetches requestURL straight to dest on disk. httpClient may
// be nil to use got's default; headers are attached to every request the
// downloader makes.
func DownloadToFile(ctx context.Context, httpClient *http.Client, requestURL, dest string, headers map[string]string) error {
	download := got.NewDownload(ctx, requestURL, dest)
	for key, value := range headers {
		download.Header = append(download.Header, got.GotHeader{Key: key, Value: value})
	}

	downloader := got.New()
	if httpClient != nil {
		downloader.Client = httpClient
	}
	if err := downloader.Do(download); err != nil {
		return fmt.Errorf("download to %s: %w", dest, err)
	}
	return nil
}
