package catalog

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// maxDocumentBytes caps a region document fetched over HTTP.
const maxDocumentBytes = 32 << 20

// FileOptions tunes the file-based decoders.
type FileOptions struct {
	IDField string // region id column/attribute for xlsx, csv and shapefile sources
	Sheet   string // xlsx sheet name; first sheet when empty
}

func idField(opts FileOptions) string {
	if opts.IDField != "" {
		return opts.IDField
	}
	return "id"
}

// DecodeFile reads and decodes a document from disk. An empty format is inferred
// from the file extension.
func DecodeFile(path string, format Format, opts FileOptions) (Document, error) {
	if format == "" {
		format = FormatFromPath(path)
	}

	switch format {
	case FormatXLSX:
		return decodeXLSX(path, opts)
	case FormatShapefile:
		return decodeShapefile(path, opts)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return decodeBytes(data, format, opts)
}

// Source yields one decoded document per Read call.
type Source interface {
	Name() string
	Read(ctx context.Context) (Document, error)
}

// FileSource reads a region document from the local filesystem.
type FileSource struct {
	Path    string
	Format  Format
	Options FileOptions
}

// Name implements Source.
func (s *FileSource) Name() string { return s.Path }

// Read implements Source.
func (s *FileSource) Read(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "catalog: read file")
	}
	return DecodeFile(s.Path, s.Format, s.Options)
}

// HTTPSource fetches a JSON, YAML, GeoJSON or CSV region document over HTTP.
type HTTPSource struct {
	URL       string
	Format    Format
	Options   FileOptions
	UserAgent string
	Client    *http.Client
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.URL }

// Read implements Source.
func (s *HTTPSource) Read(ctx context.Context) (Document, error) {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: build request")
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: fetch")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("catalog: fetch %s returned status %d", s.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read body")
	}

	format := s.Format
	if format == "" {
		format = formatFromResponse(s.URL, resp.Header.Get("Content-Type"))
	}
	return decodeBytes(body, format, s.Options)
}

func formatFromResponse(url, contentType string) Format {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "geo+json"):
		return FormatGeoJSON
	case strings.Contains(ct, "yaml"):
		return FormatYAML
	case strings.Contains(ct, "text/csv"):
		return FormatCSV
	}
	return FormatFromPath(url)
}

// NewSource picks an HTTPSource for http(s) locations and a FileSource otherwise.
func NewSource(location string, format Format, opts FileOptions, client *http.Client, userAgent string) Source {
	lower := strings.ToLower(location)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return &HTTPSource{URL: location, Format: format, Options: opts, Client: client, UserAgent: userAgent}
	}
	return &FileSource{Path: location, Format: format, Options: opts}
}

// Load reads src once and builds a Catalog. No caching, no retries.
func Load(ctx context.Context, src Source, policy Policy) (*Catalog, error) {
	doc, err := src.Read(ctx)
	if err != nil {
		return nil, err
	}
	cat, err := Build(doc, policy)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("catalog loaded",
		zap.String("source", src.Name()),
		zap.Stringer("shape", cat.Shape),
		zap.Int("regions", len(cat.Regions)),
	)
	return cat, nil
}

// Loader binds a Source and Policy so callers can reload the catalog per request.
type Loader struct {
	Source Source
	Policy Policy
}

// NewLoader creates a Loader.
func NewLoader(src Source, policy Policy) *Loader {
	return &Loader{Source: src, Policy: policy}
}

// Load reads the source and builds a fresh Catalog.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	if l.Source == nil {
		return nil, eris.New("catalog: no source configured")
	}
	return Load(ctx, l.Source, l.Policy)
}
