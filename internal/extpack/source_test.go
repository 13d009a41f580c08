package extpack

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vboxkit/vboxkit/internal/hypervisor"
)

func TestHTTPSourceFetchConfig(t *testing.T) {
	t.Run("parses key value lines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(
				"# per-version extension pack index\n" +
					"vbox-4.3.12-extpack=https://example.org/pack.vbox-extpack\n" +
					"vbox-4.3.12-extpackChecksum=abcdef\n" +
					"malformed line\n",
			))
		}))
		defer srv.Close()

		data, err := NewHTTPSource(srv.URL).FetchConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/pack.vbox-extpack", data["vbox-4.3.12-extpack"])
		assert.Equal(t, "abcdef", data["vbox-4.3.12-extpackChecksum"])
		assert.Len(t, data, 2)
	})

	t.Run("non-200 response is an external error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPSource(srv.URL).FetchConfig()
		assert.ErrorIs(t, err, hypervisor.ErrExternal)
	})
}

func TestHTTPDownloader(t *testing.T) {
	t.Run("downloads to the destination", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("artifact bytes"))
		}))
		defer srv.Close()

		dest := filepath.Join(t.TempDir(), "pack.vbox-extpack")
		require.NoError(t, NewHTTPDownloader().Download(srv.URL, dest, nil))

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, "artifact bytes", string(data))

		// No temp file left behind.
		_, err = os.Stat(dest + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("http error leaves no file", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		dest := filepath.Join(t.TempDir(), "pack.vbox-extpack")
		err := NewHTTPDownloader().Download(srv.URL, dest, nil)
		assert.Error(t, err)

		_, statErr := os.Stat(dest)
		assert.True(t, os.IsNotExist(statErr))
	})
}
