package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/st-keller/versionwatch/manifest"
)

func writePackageJSON(t *testing.T, dir, version string) string {
	t.Helper()
	path := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"app","version":"`+version+`"}`), 0o644))
	return path
}

func TestRun_WritesManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pkg := writePackageJSON(t, dir, "1.2.3")
	outDir := filepath.Join(dir, "public", "static")

	var out, errOut bytes.Buffer
	code := run([]string{"-p", pkg, "-o", outDir, "-f", "v1"}, nil, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	raw, err := os.ReadFile(filepath.Join(outDir, "v1.json"))
	require.NoError(t, err)
	rec, err := manifest.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", rec.Version)
	assert.Positive(t, rec.Timestamp)

	assert.Contains(t, out.String(), "Version file generated successfully")
	assert.Contains(t, out.String(), "Version: 1.2.3")
	assert.Contains(t, out.String(), filepath.Join(outDir, "v1.json"))
}

func TestRun_DefaultsToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writePackageJSON(t, dir, "0.1.0")
	t.Chdir(dir)

	var out, errOut bytes.Buffer
	code := run(nil, nil, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())

	_, err := os.Stat(filepath.Join(dir, "version.json"))
	require.NoError(t, err)
}

func TestRun_Help_WritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	pkg := writePackageJSON(t, dir, "1.0.0")

	var out bytes.Buffer
	code := run([]string{"-h", "-p", pkg, "-o", dir}, nil, &out, &out)
	require.Equal(t, 0, code)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "--output")

	_, err := os.Stat(filepath.Join(dir, "version.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_MissingPackageJSON_Returns1(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var out, errOut bytes.Buffer
	code := run([]string{"-p", filepath.Join(dir, "package.json"), "-o", dir}, nil, &out, &errOut)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "failed to generate version file")
}

func TestRun_InvalidFlag_Returns1(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"--unknown-flag"}, nil, &out, &out))
}

func TestRun_Version(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.Equal(t, 0, run([]string{"--version"}, nil, &out, &out))
	assert.Contains(t, out.String(), "generate-version dev")
}

func TestRun_Watch_PromptsOnNewVersion(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := manifest.VersionRecord{Version: "1.0.0", Timestamp: 1000}
		if hits.Add(1) > 2 {
			rec = manifest.VersionRecord{Version: "1.1.0", Timestamp: 2000}
		}
		env, _ := manifest.Encode(rec)
		_ = json.NewEncoder(w).Encode(env)
	}))
	defer ts.Close()

	var out, errOut bytes.Buffer
	code := run([]string{"watch", "--base-url", ts.URL, "--interval", "5", "--silent", "--message", "Reload now?"},
		strings.NewReader("y\n"), &out, &errOut)

	require.Equal(t, 0, code, errOut.String())
	assert.Contains(t, out.String(), "New version: 1.1.0")
	assert.Contains(t, out.String(), "Reload now? [y/N]")
	assert.Contains(t, out.String(), "Restart the application")
}

func TestRun_Watch_ChangeOnFirstTick(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := manifest.VersionRecord{Version: "1.0.0", Timestamp: 1000}
		if hits.Add(1) > 1 {
			rec = manifest.VersionRecord{Version: "2.0.0", Timestamp: 2000}
		}
		env, _ := manifest.Encode(rec)
		_ = json.NewEncoder(w).Encode(env)
	}))
	defer ts.Close()

	for range 20 {
		hits.Store(0)
		var out, errOut bytes.Buffer
		code := run([]string{"watch", "--base-url", ts.URL, "--interval", "1", "--silent"},
			strings.NewReader("n\n"), &out, &errOut)

		require.Equal(t, 0, code, errOut.String())
		assert.Contains(t, out.String(), "New version: 2.0.0")
	}
}

func TestRun_Watch_BaselineFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	var out, errOut bytes.Buffer
	code := run([]string{"watch", "--base-url", ts.URL, "--silent"}, nil, &out, &errOut)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "failed to start version checking")
}

func TestRun_Serve_UnknownLogFormat(t *testing.T) {
	t.Parallel()

	var out, errOut bytes.Buffer
	code := run([]string{"serve", "--log-format", "xml", "--addr", "127.0.0.1:0"}, nil, &out, &errOut)

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "unknown log format")
}

func TestLinePrompter(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "": false, "yes": true}
	for input, want := range cases {
		var out bytes.Buffer
		p := &linePrompter{in: bufio.NewReader(strings.NewReader(input)), out: &out}
		assert.Equal(t, want, p.Confirm("Reload?"), "input %q", input)
		assert.Equal(t, "Reload? [y/N]: ", out.String())
	}
}
