package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/formatter"
	"github.com/desertthunder/gaelon/internal/models"
	"github.com/desertthunder/gaelon/internal/shared"
	tu "github.com/desertthunder/gaelon/internal/testing"
)

type stubLoader struct {
	mu     sync.Mutex
	calls  []dashboard.Panel
	fail   map[dashboard.Panel]error
	avatar string
}

func (s *stubLoader) load(_ context.Context, p dashboard.Panel, opts dashboard.LoadOptions) (any, error) {
	s.mu.Lock()
	s.calls = append(s.calls, p)
	s.mu.Unlock()

	if err := s.fail[p]; err != nil {
		return nil, err
	}

	switch p {
	case dashboard.PanelPlaylists:
		return &dashboard.PlaylistsPanel{Playlists: []models.Playlist{{Name: "Mix"}}}, nil
	case dashboard.PanelDiscovery:
		return &dashboard.DiscoveryPanel{Mood: opts.Mood}, nil
	case dashboard.PanelRecent:
		return &dashboard.RecentPanel{}, nil
	case dashboard.PanelStats:
		return &dashboard.StatsPanel{Range: opts.Range}, nil
	case dashboard.PanelProfile:
		user := models.User{ID: "u1"}
		if s.avatar != "" {
			user.Images = models.Images{{URL: s.avatar}}
		}
		return &dashboard.ProfilePanel{User: user}, nil
	}
	return nil, fmt.Errorf("unknown panel %s", p)
}

func newEngine(l *stubLoader) *ExportEngine {
	return NewExportEngine(l.load, shared.NewLogger(io.Discard))
}

func exportOpts(t *testing.T, f formatter.Format) ExportOpts {
	return ExportOpts{
		Format:    f,
		OutputDir: filepath.Join(t.TempDir(), "export"),
		RateLimit: 1000,
		Load:      dashboard.DefaultLoadOptions(),
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("Writes every panel and a manifest", func(t *testing.T) {
		l := &stubLoader{}
		opts := exportOpts(t, formatter.CSV)

		result, err := newEngine(l).Export(ctx, nil, nil, opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.TotalPanels != 5 || result.SuccessfulExports != 5 || result.FailedExports != 0 {
			t.Errorf("unexpected counts %+v", result)
		}
		for i, res := range result.Results {
			if res.Panel != dashboard.Panels[i] {
				t.Errorf("results should follow tab order, got %s at %d", res.Panel, i)
			}
		}
		for _, p := range dashboard.Panels {
			tu.AssertFileExists(t, filepath.Join(opts.OutputDir, string(p)+".csv"))
		}

		if result.ManifestPath != filepath.Join(opts.OutputDir, manifestName) {
			t.Errorf("unexpected manifest path %s", result.ManifestPath)
		}
		var manifest map[string]any
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if manifest["format"] != "csv" || manifest["successful_exports"] != float64(5) {
			t.Errorf("unexpected manifest %v", manifest)
		}
	})

	t.Run("Selected panels only", func(t *testing.T) {
		l := &stubLoader{}
		opts := exportOpts(t, formatter.JSON)

		result, err := newEngine(l).Export(ctx, nil, []dashboard.Panel{dashboard.PanelStats}, opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.TotalPanels != 1 || len(l.calls) != 1 || l.calls[0] != dashboard.PanelStats {
			t.Errorf("expected only stats, got %v", l.calls)
		}
		tu.AssertFileExists(t, filepath.Join(opts.OutputDir, "stats.json"))
	})

	t.Run("Failed panel is recorded", func(t *testing.T) {
		l := &stubLoader{fail: map[dashboard.Panel]error{
			dashboard.PanelRecent: fmt.Errorf("%w: boom", shared.ErrAPIRequest),
		}}
		opts := exportOpts(t, formatter.Text)

		result, err := newEngine(l).Export(ctx, nil, nil, opts)
		if err != nil {
			t.Fatalf("a panel failure should not fail the export, got %v", err)
		}
		if result.SuccessfulExports != 4 || result.FailedExports != 1 {
			t.Errorf("unexpected counts %+v", result)
		}

		recent := result.Results[2]
		if recent.Panel != dashboard.PanelRecent || recent.Success || !errors.Is(recent.Error, shared.ErrAPIRequest) {
			t.Errorf("unexpected recent result %+v", recent)
		}
		if recent.Message == "" {
			t.Error("manifest message should be set")
		}
		if _, err := os.Stat(filepath.Join(opts.OutputDir, "recent.txt")); !os.IsNotExist(err) {
			t.Error("failed panel should not be written")
		}
	})

	t.Run("Session error stops the export", func(t *testing.T) {
		expired := fmt.Errorf("%w: token revoked", shared.ErrSessionExpired)
		l := &stubLoader{fail: map[dashboard.Panel]error{}}
		for _, p := range dashboard.Panels {
			l.fail[p] = expired
		}
		opts := exportOpts(t, formatter.JSON)
		opts.NumWorkers = 1

		result, err := newEngine(l).Export(ctx, nil, nil, opts)
		if !errors.Is(err, shared.ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if result == nil || result.FailedExports == 0 {
			t.Fatalf("expected partial result, got %+v", result)
		}
		if result.ManifestPath != "" {
			t.Error("manifest should not be written")
		}
	})

	t.Run("Progress updates", func(t *testing.T) {
		prog := make(chan ProgressUpdate, 32)
		_, err := newEngine(&stubLoader{}).Export(ctx, prog, nil, exportOpts(t, formatter.JSON))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(prog)

		phases := map[Phase]int{}
		for u := range prog {
			phases[u.Phase]++
		}
		if phases[LoadPanel] != 5 || phases[WritePanel] != 5 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected progress %v", phases)
		}
	})

	t.Run("Markdown profile image", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		l := &stubLoader{avatar: server.URL + "/me.jpg"}
		e := newEngine(l)
		e.HTTPClient = server.Client()
		opts := exportOpts(t, formatter.Markdown)

		result, err := e.Export(ctx, nil, []dashboard.Panel{dashboard.PanelProfile}, opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if files := result.Results[0].Files; len(files) != 2 {
			t.Fatalf("expected image and markdown, got %v", files)
		}
		tu.AssertFileExists(t, filepath.Join(opts.OutputDir, "profile.jpg"))
		md := tu.MustReadFile(t, filepath.Join(opts.OutputDir, "profile.md"))
		if want := "![Image](profile.jpg)"; !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown:\n%s", want, md)
		}
	})

	t.Run("Placeholder image is not downloaded", func(t *testing.T) {
		opts := exportOpts(t, formatter.Markdown)
		result, err := newEngine(&stubLoader{}).Export(ctx, nil, []dashboard.Panel{dashboard.PanelProfile}, opts)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if files := result.Results[0].Files; len(files) != 1 {
			t.Errorf("expected markdown only, got %v", files)
		}
	})

	t.Run("Nil loader", func(t *testing.T) {
		e := NewExportEngine(nil, shared.NewLogger(io.Discard))
		if _, err := e.Export(ctx, nil, nil, exportOpts(t, formatter.JSON)); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result, err := newEngine(&stubLoader{}).Export(cctx, nil, nil, exportOpts(t, formatter.JSON))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.ManifestPath != "" {
			t.Errorf("unexpected result %+v", result)
		}
	})
}

func TestSendProgress(t *testing.T) {
	e := newEngine(&stubLoader{})

	t.Run("Nil channel", func(t *testing.T) {
		e.sendProgress(nil, ProgressUpdate{Message: "ignored"})
	})

	t.Run("Full channel does not block", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 1)
		e.sendProgress(ch, ProgressUpdate{Message: "first"})
		e.sendProgress(ch, ProgressUpdate{Message: "second"})

		if got := <-ch; got.Message != "first" {
			t.Errorf("expected first update, got %q", got.Message)
		}
	})
}

func TestPhaseString(t *testing.T) {
	tc := map[Phase]string{
		LoadPanel:     "load_panel",
		WritePanel:    "write_panel",
		WriteManifest: "write_manifest",
		Phase(99):     "",
	}
	for p, want := range tc {
		if got := p.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, got, want)
		}
	}
}
