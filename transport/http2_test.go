package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Defaults(t *testing.T) {
	client, err := Build(Options{})
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuild_CertWithoutKey(t *testing.T) {
	_, err := Build(Options{CertPath: "client.cert.pem"})
	require.Error(t, err)
}

func TestBuild_MissingCA(t *testing.T) {
	_, err := Build(Options{CAPath: filepath.Join(t.TempDir(), "missing.pem")})
	require.Error(t, err)
}

func TestBuild_InvalidCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.cert.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o644))

	_, err := Build(Options{CAPath: path})
	require.Error(t, err)
}
