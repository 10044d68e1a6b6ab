// package formatter exports favorites to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/sourcegraph/conc/pool"
)

// Format is an export file format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat maps a user supplied name to a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
}

// Extension is the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

func rating(m models.Movie) string {
	if m.VoteAverage <= 0 {
		return ""
	}
	return strconv.FormatFloat(m.VoteAverage, 'f', 1, 64)
}

// ExportToCSV converts a FavoritesExport to CSV format with columns: ID, Title, Year, Rating, Type, Poster
func ExportToCSV(export *models.FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Rating", "Type", "Poster"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, movie := range export.Movies {
		record := []string{
			strconv.Itoa(movie.ID),
			movie.Title,
			movie.Year(),
			rating(movie),
			movie.MediaType,
			movie.PosterPath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a FavoritesExport to Markdown. posters maps movie IDs to image paths and may be nil.
func ExportToMarkdown(export *models.FavoritesExport, posters map[int]string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# Favorites of %s\n\n", export.Owner)
	fmt.Fprintf(&buf, "**Source**: %s\n", export.Source)
	fmt.Fprintf(&buf, "**Movies**: %d\n", len(export.Movies))
	if !export.ExportedAt.IsZero() {
		fmt.Fprintf(&buf, "**Exported**: %s\n", export.ExportedAt.Format(time.RFC3339))
	}

	buf.WriteString("\n## Movies\n\n")
	for i, movie := range export.Movies {
		line := fmt.Sprintf("%d. %s", i+1, movie.Title)
		if y := movie.Year(); y != "" {
			line += fmt.Sprintf(" (%s)", y)
		}
		if r := rating(movie); r != "" {
			line += " ★ " + r
		}
		buf.WriteString(line + "\n")

		if path, ok := posters[movie.ID]; ok {
			fmt.Fprintf(&buf, "\n   ![%s](%s)\n\n", movie.Title, path)
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a FavoritesExport to plain text format
func ExportToText(export *models.FavoritesExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Favorites: %s (%s)\n", export.Owner, export.Source)
	fmt.Fprintf(&buf, "Movies: %d\n\n", len(export.Movies))

	for i, movie := range export.Movies {
		if y := movie.Year(); y != "" {
			fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, movie.Title, y)
		} else {
			fmt.Fprintf(&buf, "%d. %s\n", i+1, movie.Title)
		}
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a FavoritesExport to indented JSON.
func ExportToJSON(export *models.FavoritesExport) ([]byte, error) {
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders export in format f.
func Export(export *models.FavoritesExport, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, nil)
	case FormatJSON:
		return ExportToJSON(export)
	default:
		return ExportToText(export)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidInput)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %w", shared.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download image: status %d", shared.ErrNetworkFailure, resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// DefaultPath is the file name used when no output path is given.
func DefaultPath(export *models.FavoritesExport, f Format) string {
	owner := strings.NewReplacer("/", "_", " ", "_").Replace(export.Owner)
	if owner == "" {
		owner = "anonymous"
	}
	return "favorites_" + owner + f.Extension()
}

// WriteExport writes export to path in format f. An empty path uses [DefaultPath].
func WriteExport(export *models.FavoritesExport, f Format, path string) (string, error) {
	if path == "" {
		path = DefaultPath(export, f)
	}

	data, err := Export(export, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Posters   int
}

// MarkdownOptions configures poster downloads for WriteMarkdownExport.
type MarkdownOptions struct {
	ImageURL   func(posterPath string) string // nil skips posters
	Client     *http.Client
	MaxWorkers int
	Logger     *log.Logger
}

// WriteMarkdownExport exports favorites to Markdown format in a dedicated directory.
//
// Creates {dir}/README.md and, when opts.ImageURL is set, {dir}/posters/{id}.jpg for every movie with a poster.
// A failed poster download is logged and skipped.
func WriteMarkdownExport(ctx context.Context, export *models.FavoritesExport, outputDir string, opts MarkdownOptions) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = strings.TrimSuffix(DefaultPath(export, FormatMarkdown), FormatMarkdown.Extension())
	}
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}
	posters := map[int]string{}

	if opts.ImageURL != nil {
		if err := os.MkdirAll(filepath.Join(outputDir, "posters"), 0755); err != nil {
			return nil, fmt.Errorf("failed to create poster directory: %w", err)
		}

		workers := opts.MaxWorkers
		if workers <= 0 {
			workers = 4
		}

		type poster struct {
			id   int
			path string
		}
		p := pool.NewWithResults[*poster]().WithContext(ctx).WithMaxGoroutines(workers)
		for _, movie := range export.Movies {
			if !movie.HasPoster() {
				continue
			}
			movie := movie
			p.Go(func(ctx context.Context) (*poster, error) {
				data, err := DownloadImage(ctx, opts.Client, opts.ImageURL(movie.PosterPath))
				if err != nil {
					logger.Warn("failed to download poster", "movie", movie.ID, "error", err)
					return nil, nil
				}
				rel := filepath.Join("posters", strconv.Itoa(movie.ID)+".jpg")
				if err := os.WriteFile(filepath.Join(outputDir, rel), data, 0644); err != nil {
					logger.Warn("failed to save poster", "movie", movie.ID, "error", err)
					return nil, nil
				}
				return &poster{id: movie.ID, path: rel}, nil
			})
		}

		downloaded, err := p.Wait()
		if err != nil {
			return nil, err
		}
		for _, d := range downloaded {
			if d == nil {
				continue
			}
			posters[d.id] = filepath.ToSlash(d.path)
			result.Files = append(result.Files, filepath.Join(outputDir, d.path))
		}
		result.Posters = len(posters)
	}

	mdData, err := ExportToMarkdown(export, posters)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}
