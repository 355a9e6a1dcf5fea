// Package archive implements the snapshot companion mode: it downloads the
// provider's catalog endpoints and EPG into a timestamped directory under a
// per-server folder, optionally pruning old snapshots and anonymizing
// credentials in the stored account payload.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xtreamctl/xtreamctl/pkg/xtream"
)

// Snapshot directory timestamp layout, e.g. "25-08-23--14-30".
const timestampLayout = "06-01-02--15-04"

// EPGFileName is the snapshot file holding the XMLTV EPG.
const EPGFileName = "epg_data.xml"

// Anonymization replacement values for the stored account payload.
const (
	anonUsername = "XXXXX"
	anonPassword = "YYYYY"
	anonURLLabel = "UUUUU"
)

// endpoint is one snapshotted API call. An empty action is the bare
// user-info endpoint.
type endpoint struct {
	Name   string
	Action string
}

// endpoints lists the snapshotted catalog endpoints in download order.
var endpoints = []endpoint{
	{Name: "user_info", Action: ""},
	{Name: "live_categories", Action: xtream.ActionGetLiveCategories},
	{Name: "live_streams", Action: xtream.ActionGetLiveStreams},
	{Name: "vod_categories", Action: xtream.ActionGetVODCategories},
	{Name: "vod_streams", Action: xtream.ActionGetVODStreams},
	{Name: "series_categories", Action: xtream.ActionGetSeriesCategories},
	{Name: "series_streams", Action: xtream.ActionGetSeries},
}

// Options configures an Archiver.
type Options struct {
	// Client performs the downloads. Retry behavior comes from the HTTP
	// client injected into it.
	Client *xtream.Client

	// SaveDir is the snapshot root. It must already exist.
	SaveDir string

	// Server names the per-server folder under SaveDir.
	Server string

	// Prune keeps only the N most recent snapshots when positive.
	Prune int

	// SaveRaw disables credential anonymization in user_info.json.
	SaveRaw bool

	// Format re-indents JSON payloads and pretty-prints the EPG XML.
	Format bool

	Logger *slog.Logger
	Now    func() time.Time
}

// Archiver downloads provider snapshots.
type Archiver struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Archiver.
func New(opts Options) *Archiver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Archiver{opts: opts, logger: logger, now: now}
}

// Run takes one snapshot and returns the directory it was written to.
// Individual endpoint failures are logged and skipped; only setup problems
// (missing save dir, directory creation) abort the run.
func (a *Archiver) Run(ctx context.Context) (string, error) {
	info, err := os.Stat(a.opts.SaveDir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("save directory %q does not exist, create it first", a.opts.SaveDir)
	}

	serverDir := filepath.Join(a.opts.SaveDir, ServerDirName(a.opts.Server))
	if err := os.MkdirAll(serverDir, 0o755); err != nil {
		return "", fmt.Errorf("creating server directory: %w", err)
	}

	if a.opts.Prune > 0 {
		if err := a.prune(serverDir); err != nil {
			a.logger.Warn("pruning old snapshots failed", slog.String("error", err.Error()))
		}
	}

	snapshotDir := filepath.Join(serverDir, a.now().Format(timestampLayout))
	if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}

	for _, ep := range endpoints {
		a.logger.Info("retrieving endpoint", slog.String("endpoint", ep.Name))
		if err := a.saveEndpoint(ctx, snapshotDir, ep); err != nil {
			a.logger.Warn("endpoint snapshot failed, skipping",
				slog.String("endpoint", ep.Name),
				slog.String("error", err.Error()),
			)
		}
		if ctx.Err() != nil {
			return snapshotDir, ctx.Err()
		}
	}

	a.logger.Info("retrieving EPG data")
	if err := a.saveEPG(ctx, snapshotDir); err != nil {
		a.logger.Warn("EPG snapshot failed, skipping", slog.String("error", err.Error()))
	}

	return snapshotDir, ctx.Err()
}

// saveEndpoint downloads one endpoint and writes <name>.json.
func (a *Archiver) saveEndpoint(ctx context.Context, dir string, ep endpoint) error {
	var body []byte
	var err error
	if ep.Action == "" {
		body, err = a.opts.Client.GetUserInfoRaw(ctx)
	} else {
		body, err = a.opts.Client.GetRaw(ctx, ep.Action)
	}
	if err != nil {
		return err
	}

	if ep.Name == "user_info" && !a.opts.SaveRaw {
		if anonymized, err := AnonymizeUserInfo(body); err != nil {
			a.logger.Warn("anonymizing user info failed, saving as received",
				slog.String("error", err.Error()),
			)
		} else {
			body = anonymized
		}
	} else if a.opts.Format {
		body = reindentJSON(body)
	}

	path := filepath.Join(dir, ep.Name+".json")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// saveEPG downloads the XMLTV EPG and writes epg_data.xml. An empty body is
// reported but leaves no file behind.
func (a *Archiver) saveEPG(ctx context.Context, dir string) error {
	body, err := a.opts.Client.GetXMLTVRaw(ctx)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("provider returned no EPG data")
	}

	if a.opts.Format {
		pretty, err := prettyXML(body)
		if err != nil {
			return fmt.Errorf("formatting EPG XML: %w", err)
		}
		body = pretty
	}

	path := filepath.Join(dir, EPGFileName)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// prune deletes all but the Prune most recently modified snapshot
// directories under serverDir.
func (a *Archiver) prune(serverDir string) error {
	entries, err := os.ReadDir(serverDir)
	if err != nil {
		return err
	}

	type dirEntry struct {
		name  string
		mtime time.Time
	}
	var dirs []dirEntry
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, dirEntry{name: e.Name(), mtime: info.ModTime()})
	}

	if len(dirs) <= a.opts.Prune {
		a.logger.Debug("nothing to prune",
			slog.Int("snapshots", len(dirs)),
			slog.Int("keep", a.opts.Prune),
		)
		return nil
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mtime.After(dirs[j].mtime) })

	a.logger.Info("pruning old snapshots",
		slog.Int("snapshots", len(dirs)),
		slog.Int("keep", a.opts.Prune),
	)
	for _, d := range dirs[a.opts.Prune:] {
		path := filepath.Join(serverDir, d.name)
		a.logger.Debug("deleting old snapshot", slog.String("path", path))
		if err := os.RemoveAll(path); err != nil {
			return err
		}
	}
	return nil
}

// ServerDirName maps a server argument to its snapshot folder name: the
// scheme prefix is dropped and path separators become underscores.
func ServerDirName(server string) string {
	if i := strings.Index(server, "://"); i >= 0 {
		server = server[i+3:]
	}
	return strings.ReplaceAll(server, "/", "_")
}

// AnonymizeUserInfo rewrites credentials in a user-info payload: the
// username and password fields are replaced with fixed markers and the
// first dotted label of the reported server URL is masked. The result is
// re-indented JSON.
func AnonymizeUserInfo(body []byte) ([]byte, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing user info: %w", err)
	}

	if userInfo, ok := payload["user_info"].(map[string]any); ok {
		userInfo["username"] = anonUsername
		userInfo["password"] = anonPassword
	}
	if serverInfo, ok := payload["server_info"].(map[string]any); ok {
		if rawURL, ok := serverInfo["url"].(string); ok && rawURL != "" {
			parts := strings.Split(rawURL, ".")
			parts[0] = anonURLLabel
			serverInfo["url"] = strings.Join(parts, ".")
		}
	}

	return json.MarshalIndent(payload, "", "    ")
}

// reindentJSON reformats a JSON payload with four-space indentation.
// Payloads that do not parse are returned unchanged.
func reindentJSON(body []byte) []byte {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return body
	}
	formatted, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return body
	}
	return formatted
}

// prettyXML re-indents an XML document via a token round-trip.
func prettyXML(body []byte) ([]byte, error) {
	decoder := xml.NewDecoder(bytes.NewReader(body))
	var out bytes.Buffer
	encoder := xml.NewEncoder(&out)
	encoder.Indent("", "  ")

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// Whitespace-only character data fights the encoder's indentation.
		if chardata, ok := token.(xml.CharData); ok {
			if len(bytes.TrimSpace(chardata)) == 0 {
				continue
			}
		}
		if err := encoder.EncodeToken(token); err != nil {
			return nil, err
		}
	}

	if err := encoder.Flush(); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
