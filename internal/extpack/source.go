package extpack

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
)

// HTTPSource fetches the trusted configuration from a fixed URL serving
// "key=value" lines. Transport-level authentication (TLS pinning,
// signatures) belongs to the deployment, not this client; a bad response
// here is reported as an external error, not an integrity failure.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource returns a source reading from url with the default
// client.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{URL: url, Client: http.DefaultClient}
}

// FetchConfig retrieves and parses the configuration map. Lines without a
// separator and comment lines are skipped; the first occurrence of a key
// wins.
func (s *HTTPSource) FetchConfig() (map[string]string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(s.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch configuration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("configuration fetch returned HTTP %d: %w", resp.StatusCode, hypervisor.ErrExternal)
	}

	data := make(map[string]string)
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		if _, seen := data[key]; !seen {
			data[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	return data, nil
}
