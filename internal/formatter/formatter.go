// package formatter renders dashboard panels to export formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/models"
	"github.com/desertthunder/gaelon/internal/shared"
)

// Format is an export file format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists every supported [Format].
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat accepts a format name; "md" and "text" are aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	}
	return "", fmt.Errorf("%w: format %q (want json, csv, markdown or txt)", shared.ErrInvalidFlag, s)
}

// Ext is the file extension, without the dot.
func (f Format) Ext() string {
	if f == Markdown {
		return "md"
	}
	return string(f)
}

// Table is a titled grid of cells, the common shape every panel flattens to.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// Tables flattens a *dashboard.XPanel into one or more tables.
func Tables(data any) ([]Table, error) {
	switch p := data.(type) {
	case *dashboard.PlaylistsPanel:
		if p != nil {
			return []Table{playlistTable("Playlists", p.Playlists)}, nil
		}
	case *dashboard.DiscoveryPanel:
		if p != nil {
			return []Table{trackTable("Discovery: "+p.Mood.Label(), p.Tracks)}, nil
		}
	case *dashboard.RecentPanel:
		if p != nil {
			return []Table{historyTable(p.Items)}, nil
		}
	case *dashboard.StatsPanel:
		if p != nil {
			return statsTables(p), nil
		}
	case *dashboard.ProfilePanel:
		if p != nil {
			return profileTables(p), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot export %T", shared.ErrInvalidArgument, data)
}

func playlistTable(title string, playlists []models.Playlist) Table {
	t := Table{Title: title, Headers: []string{"Name", "Owner", "Tracks", "Visibility", "URL"}}
	for _, p := range playlists {
		t.Rows = append(t.Rows, []string{
			p.Name,
			p.OwnerName(),
			strconv.Itoa(p.Tracks.Total),
			VisibilityString(p.Public),
			p.ExternalURLs.Spotify,
		})
	}
	return t
}

func trackTable(title string, tracks []models.Track) Table {
	t := Table{Title: title, Headers: []string{"Title", "Artists", "Album", "Duration", "Preview"}}
	for _, tr := range tracks {
		preview, _ := tr.Preview()
		t.Rows = append(t.Rows, []string{
			tr.Name,
			tr.ArtistNames(),
			tr.Album.Name,
			FormatDuration(tr.Duration()),
			preview,
		})
	}
	return t
}

func historyTable(items []models.PlayHistory) Table {
	t := Table{Title: "Recently Played", Headers: []string{"Played At", "Title", "Artists", "Album"}}
	for _, h := range items {
		playedAt := ""
		if !h.PlayedAt.IsZero() {
			playedAt = h.PlayedAt.UTC().Format(time.RFC3339)
		}
		t.Rows = append(t.Rows, []string{playedAt, h.Track.Name, h.Track.ArtistNames(), h.Track.Album.Name})
	}
	return t
}

func statsTables(s *dashboard.StatsPanel) []Table {
	label := s.Range.Label()

	tracks := Table{Title: "Top Tracks (" + label + ")", Headers: []string{"Rank", "Title", "Artist"}}
	for i, t := range s.TopTracks {
		tracks.Rows = append(tracks.Rows, []string{strconv.Itoa(i + 1), t.Name, t.PrimaryArtist()})
	}

	artists := Table{Title: "Top Artists (" + label + ")", Headers: []string{"Rank", "Name", "Genres"}}
	for i, a := range s.TopArtists {
		artists.Rows = append(artists.Rows, []string{strconv.Itoa(i + 1), a.Name, strings.Join(a.Genres, ", ")})
	}

	albums := Table{Title: "Top Albums (" + label + ")", Headers: []string{"Rank", "Album", "Artist", "Tracks"}}
	for i, a := range s.TopAlbums {
		albums.Rows = append(albums.Rows, []string{
			strconv.Itoa(i + 1), a.Album.Name, a.Album.PrimaryArtist(), strconv.Itoa(a.Count),
		})
	}

	return []Table{tracks, artists, albums, playlistTable("Playlists", s.Playlists)}
}

func profileTables(p *dashboard.ProfilePanel) []Table {
	u := p.User
	profile := Table{
		Title:   "Profile",
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Name", u.Name()},
			{"Email", u.Email},
			{"Country", u.Country},
			{"Followers", strconv.Itoa(u.Followers.Total)},
			{"Plan", u.Plan()},
			{"Image", u.ImageURL()},
		},
	}

	artists := Table{Title: "Top Artists", Headers: []string{"Rank", "Name", "Popularity"}}
	for i, a := range p.TopArtists {
		artists.Rows = append(artists.Rows, []string{strconv.Itoa(i + 1), a.Name, strconv.Itoa(a.Popularity)})
	}
	return []Table{profile, artists}
}

// Export renders data in format f.
func Export(data any, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(data)
	case Markdown:
		return ExportToMarkdown(data, "")
	case Text:
		return ExportToText(data)
	case JSON:
		return shared.MarshalJSON(data, true)
	}
	return nil, fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, f)
}

// ExportToCSV writes every table under one header row. Panels with more than
// one table get a leading Section column.
func ExportToCSV(data any) ([]byte, error) {
	tables, err := Tables(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	sectioned := len(tables) > 1

	for i, t := range tables {
		headers := t.Headers
		if sectioned {
			headers = append([]string{"Section"}, headers...)
		}
		if i == 0 || sectioned {
			if err := writer.Write(headers); err != nil {
				return nil, fmt.Errorf("failed to write CSV headers: %w", err)
			}
		}

		for _, row := range t.Rows {
			if sectioned {
				row = append([]string{t.Title}, row...)
			}
			if err := writer.Write(row); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders each table as a Markdown table with an optional leading image.
func ExportToMarkdown(data any, imageFilename string) ([]byte, error) {
	tables, err := Tables(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, t := range tables {
		if i == 0 {
			fmt.Fprintf(&buf, "# %s\n\n", t.Title)
			if imageFilename != "" {
				fmt.Fprintf(&buf, "![Image](%s)\n\n", imageFilename)
			}
		} else {
			fmt.Fprintf(&buf, "## %s\n\n", t.Title)
		}

		if len(t.Rows) == 0 {
			buf.WriteString("_Nothing here yet._\n\n")
			continue
		}

		writeMarkdownRow(&buf, t.Headers)
		buf.WriteString("|" + strings.Repeat(" --- |", len(t.Headers)) + "\n")
		for _, row := range t.Rows {
			writeMarkdownRow(&buf, row)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

func writeMarkdownRow(w io.Writer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
}

// ExportToText renders each table as tab-aligned plain text.
func ExportToText(data any) ([]byte, error) {
	tables, err := Tables(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, t := range tables {
		if i > 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%s\n", t.Title)

		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return nil, fmt.Errorf("failed to write text: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// WriteExport renders data in format f to path.
func WriteExport(data any, f Format, path string) error {
	out, err := Export(data, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// DownloadImage fetches an image and returns the raw bytes. A nil client uses a 30 second timeout.
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidArgument)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return imageData, nil
}

// FormatDuration renders d as m:ss.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0:00"
	}
	total := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// VisibilityString labels a playlist's public flag, which Spotify may omit.
func VisibilityString(public *bool) string {
	switch {
	case public == nil:
		return "unknown"
	case *public:
		return "public"
	default:
		return "private"
	}
}
