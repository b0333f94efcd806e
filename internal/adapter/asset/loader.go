// Package asset loads audio files from disk or over HTTP.
//
// A load is a single attempt. Failures come back as *domain.AssetError so
// callers can tell an unreachable file (domain.ErrTransientIO) from a file
// that loaded but cannot be decoded.
package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/audiolab/internal/adapter/audio/decoder"
	"github.com/tejashwikalptaru/audiolab/internal/domain"
	"github.com/tejashwikalptaru/audiolab/internal/ports"
)

// Defaults for NewLoader.
const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 256 << 20
)

// Loader implements ports.AssetLoader.
type Loader struct {
	logger   *slog.Logger
	client   *http.Client
	maxBytes int64
}

var _ ports.AssetLoader = (*Loader)(nil)

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithMaxBytes limits how much of a file is read.
func WithMaxBytes(n int64) Option {
	return func(l *Loader) { l.maxBytes = n }
}

// NewLoader creates a loader.
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	l := &Loader{
		logger:   logger.With(slog.String("component", "asset-loader")),
		client:   &http.Client{Timeout: DefaultTimeout},
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches location, a file path, file:// URL or http(s):// URL.
func (l *Loader) Load(ctx context.Context, location string) (*domain.Asset, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, domain.NewValidationError("location", location, "must not be empty")
	}

	var (
		data []byte
		name string
		err  error
	)

	u, perr := url.Parse(location)
	switch {
	case perr == nil && (u.Scheme == "http" || u.Scheme == "https"):
		data, err = l.fetch(ctx, location)
		name = path.Base(u.Path)
	case perr == nil && u.Scheme == "file":
		data, err = l.readFile(ctx, location, u.Path)
		name = filepath.Base(u.Path)
	default:
		data, err = l.readFile(ctx, location, location)
		name = filepath.Base(location)
	}
	if err != nil {
		l.logger.Warn("asset load failed", slog.String("location", location), slog.String("error", err.Error()))
		return nil, err
	}

	ext := filepath.Ext(name)
	asset := &domain.Asset{
		Location: location,
		Format:   decoder.FormatFromExtension(ext),
		Data:     data,
		Title:    strings.TrimSuffix(name, ext),
	}
	if sniffed := decoder.Sniff(data); sniffed != "" {
		asset.Format = sniffed
	}

	readTags(asset)

	l.logger.Info("asset loaded",
		slog.String("location", location),
		slog.String("format", asset.Format),
		slog.Int("bytes", len(data)))

	return asset, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, domain.NewAssetError("fetch", location, 0, err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, domain.NewAssetError("fetch", location, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewAssetError("fetch", location, resp.StatusCode, nil)
	}

	return l.readAll(location, resp.Body)
}

func (l *Loader) readFile(ctx context.Context, location, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewAssetError("open", location, 0, err)
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, domain.NewAssetError("open", location, 0, err)
	}
	defer f.Close()

	return l.readAll(location, f)
}

func (l *Loader) readAll(location string, r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, domain.NewAssetError("read", location, 0, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, domain.NewAssetError("read", location, 0, fmt.Errorf("larger than %d bytes", l.maxBytes))
	}
	if len(data) == 0 {
		return nil, domain.NewAssetError("read", location, 0, errors.New("empty file"))
	}
	return data, nil
}

// readTags fills title, artist and album from embedded tags when present.
func readTags(asset *domain.Asset) {
	metadata, err := tag.ReadFrom(bytes.NewReader(asset.Data))
	if err != nil || metadata == nil {
		return
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		asset.Title = title
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		asset.Artist = artist
	}
	if album := strings.TrimSpace(metadata.Album()); album != "" {
		asset.Album = album
	}
}
