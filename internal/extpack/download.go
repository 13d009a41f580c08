package extpack

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/vboxkit/vboxkit/internal/progress"
)

// HTTPDownloader is the default download provider: a plain HTTP GET
// written to a temp file and renamed into place once complete.
type HTTPDownloader struct {
	Client *http.Client
}

// NewHTTPDownloader returns a downloader using the default client.
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{Client: http.DefaultClient}
}

// Download transfers url to dest.
func (d *HTTPDownloader) Download(url, dest string, pf progress.Task) error {
	if pf == nil {
		pf = progress.Discard
	}
	pf.Doing("Downloading " + url)

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: HTTP %d", url, resp.StatusCode)
	}

	// Write to a temp file so dest only ever holds a complete artifact.
	tmpPath := dest + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize %s: %w", dest, err)
	}

	pf.Done(fmt.Sprintf("Downloaded %d bytes", written))
	return nil
}
