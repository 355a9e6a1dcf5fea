package archive

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fakeProvider() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/xmltv.php" {
			w.Write([]byte(`<?xml version="1.0"?><tv><channel id="1"><display-name>ESPN</display-name></channel></tv>`))
			return
		}
		switch r.URL.Query().Get("action") {
		case "":
			w.Write([]byte(`{
				"user_info": {"username": "realuser", "password": "realpass", "status": "Active"},
				"server_info": {"url": "secret.example.com", "port": "8080"}
			}`))
		case "get_vod_streams":
			http.Error(w, "unavailable", http.StatusInternalServerError)
		default:
			w.Write([]byte(`[{"category_id": "1", "category_name": "Sports"}]`))
		}
	}))
}

func newTestArchiver(t *testing.T, server *httptest.Server, saveDir string, mutate func(*Options)) *Archiver {
	t.Helper()
	opts := Options{
		Client:  xtream.NewClient(server.URL, "realuser", "realpass"),
		SaveDir: saveDir,
		Server:  "provider.example:8080",
		Format:  true,
		Logger:  testLogger(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return New(opts)
}

func TestArchiver_SnapshotFileSet(t *testing.T) {
	server := fakeProvider()
	defer server.Close()

	saveDir := t.TempDir()
	archiver := newTestArchiver(t, server, saveDir, nil)

	dir, err := archiver.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dir, filepath.Join(saveDir, "provider.example_8080")))

	for _, name := range []string{
		"user_info.json",
		"live_categories.json",
		"live_streams.json",
		"vod_categories.json",
		"series_categories.json",
		"series_streams.json",
		EPGFileName,
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "expected snapshot file %s", name)
	}

	// The failing endpoint is skipped, not fatal.
	_, err = os.Stat(filepath.Join(dir, "vod_streams.json"))
	assert.True(t, os.IsNotExist(err), "failed endpoint must not leave a file")
}

func TestArchiver_AnonymizesUserInfo(t *testing.T) {
	server := fakeProvider()
	defer server.Close()

	archiver := newTestArchiver(t, server, t.TempDir(), nil)
	dir, err := archiver.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "user_info.json"))
	require.NoError(t, err)

	var payload map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))

	assert.Equal(t, "XXXXX", payload["user_info"]["username"])
	assert.Equal(t, "YYYYY", payload["user_info"]["password"])
	assert.Equal(t, "UUUUU.example.com", payload["server_info"]["url"])
	// Unrelated fields survive.
	assert.Equal(t, "Active", payload["user_info"]["status"])
}

func TestArchiver_SaveRawKeepsCredentials(t *testing.T) {
	server := fakeProvider()
	defer server.Close()

	archiver := newTestArchiver(t, server, t.TempDir(), func(o *Options) {
		o.SaveRaw = true
	})
	dir, err := archiver.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "user_info.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "realpass")
}

func TestArchiver_MissingSaveDirIsFatal(t *testing.T) {
	server := fakeProvider()
	defer server.Close()

	archiver := newTestArchiver(t, server, filepath.Join(t.TempDir(), "nope"), nil)
	_, err := archiver.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestArchiver_PruneKeepsMostRecent(t *testing.T) {
	server := fakeProvider()
	defer server.Close()

	saveDir := t.TempDir()
	serverDir := filepath.Join(saveDir, ServerDirName("provider.example:8080"))
	require.NoError(t, os.MkdirAll(serverDir, 0o755))

	// Three old snapshots with ascending mtimes.
	base := time.Now().Add(-72 * time.Hour)
	for i, name := range []string{"25-01-01--10-00", "25-01-02--10-00", "25-01-03--10-00"} {
		dir := filepath.Join(serverDir, name)
		require.NoError(t, os.Mkdir(dir, 0o755))
		mtime := base.Add(time.Duration(i) * 24 * time.Hour)
		require.NoError(t, os.Chtimes(dir, mtime, mtime))
	}

	archiver := newTestArchiver(t, server, saveDir, func(o *Options) {
		o.Prune = 2
	})
	_, err := archiver.Run(context.Background())
	require.NoError(t, err)

	entries, err := os.ReadDir(serverDir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.NotContains(t, names, "25-01-01--10-00", "oldest snapshot must be pruned")
	assert.Contains(t, names, "25-01-02--10-00")
	assert.Contains(t, names, "25-01-03--10-00")
	// The two survivors plus the fresh snapshot.
	assert.Len(t, names, 3)
}

func TestArchiver_FormatsJSONAndXML(t *testing.T) {
	server := fakeProvider()
	defer server.Close()

	archiver := newTestArchiver(t, server, t.TempDir(), nil)
	dir, err := archiver.Run(context.Background())
	require.NoError(t, err)

	categories, err := os.ReadFile(filepath.Join(dir, "live_categories.json"))
	require.NoError(t, err)
	assert.Contains(t, string(categories), "\n    ", "JSON should be re-indented")

	epg, err := os.ReadFile(filepath.Join(dir, EPGFileName))
	require.NoError(t, err)
	assert.Contains(t, string(epg), "display-name")
	assert.Contains(t, string(epg), "\n  ", "XML should be indented")
}

func TestServerDirName(t *testing.T) {
	assert.Equal(t, "host_path", ServerDirName("http://host/path"))
	assert.Equal(t, "host:8080", ServerDirName("host:8080"))
	assert.Equal(t, "host", ServerDirName("https://host"))
}

func TestAnonymizeUserInfo_BadJSON(t *testing.T) {
	_, err := AnonymizeUserInfo([]byte("<html>"))
	assert.Error(t, err)
}

func TestAnonymizeUserInfo_MissingSections(t *testing.T) {
	out, err := AnonymizeUserInfo([]byte(`{"something": 1}`))
	require.NoError(t, err)
	assert.Contains(t, string(out), "something")
}
