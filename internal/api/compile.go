package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vgrid/internal/config"
	"vgrid/internal/encoding"
	"vgrid/internal/logging"
	"vgrid/internal/manifest"
	"vgrid/internal/payloadcache"
	"vgrid/internal/vgridspec"
)

type CompileRequest struct {
	Config       *config.Config
	ManifestPath string
	// Precision overrides encoding.precision when set.
	Precision *int
	// Compression overrides encoding.compression when non-empty.
	Compression string
	Strict      bool
	UseCache    bool
	Logger      *slog.Logger
}

type CompileResult struct {
	Payload   []byte
	Codec     encoding.Codec
	Precision int
	// Document is nil when the payload came from the cache.
	Document *vgridspec.Document
	CacheHit bool
	CacheKey string
}

type InspectRequest struct {
	Config       *config.Config
	ManifestPath string
	Strict       bool
	Logger       *slog.Logger
}

// CompileManifest compiles and encodes the manifest at req.ManifestPath.
// Manifests that reference stored tracks bypass the payload cache.
func CompileManifest(ctx context.Context, req CompileRequest) (CompileResult, error) {
	cfg := req.Config
	if cfg == nil {
		return CompileResult{}, errConfigRequired
	}
	logger := loggerOrNop(req.Logger)
	start := time.Now()

	precision := cfg.Encoding.Precision
	if req.Precision != nil {
		precision = *req.Precision
	}
	compression := strings.TrimSpace(req.Compression)
	if compression == "" {
		compression = cfg.Encoding.Compression
	}
	codec, err := encoding.ParseCodec(compression)
	if err != nil {
		return CompileResult{}, err
	}
	strict := strictKeys(cfg, req.Strict)

	data, m, err := readManifest(req.ManifestPath)
	if err != nil {
		return CompileResult{}, err
	}

	var cache *payloadcache.Cache
	if req.UseCache && !m.UsesStore() {
		cache = payloadcache.New(cfg, logger)
	}
	settings := append([]string{strconv.Itoa(precision), string(codec), strconv.FormatBool(strict)}, algebraSettings(cfg)...)
	key := payloadcache.RequestKey(data, settings...)
	if payload, _, ok := cache.Lookup(key); ok {
		logger.Info("payload cache hit",
			logging.String("manifest", req.ManifestPath),
			logging.Int("bytes", len(payload)))
		return CompileResult{Payload: payload, Codec: codec, Precision: precision, CacheHit: true, CacheKey: key}, nil
	}

	doc, err := compileDocument(ctx, cfg, m, strict, logger)
	if err != nil {
		return CompileResult{}, err
	}
	encoded, err := encoding.Encode(doc, encoding.WithPrecision(precision), encoding.WithLogger(logger))
	if err != nil {
		return CompileResult{}, err
	}
	payload, err := encoding.Compress(encoded, codec)
	if err != nil {
		return CompileResult{}, err
	}

	if cache != nil {
		entry := payloadcache.Entry{Key: key, Manifest: filepath.Base(req.ManifestPath), Codec: string(codec)}
		if _, err := cache.Store(entry, payload); err != nil {
			logger.Warn("failed to cache payload",
				logging.String(logging.FieldEventType, "payloadcache_store_failed"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next compile re-encodes the manifest"))
		}
	}

	logger.Info("payload encoded",
		logging.String(logging.FieldCompileID, doc.ID()),
		logging.String("codec", string(codec)),
		logging.Int("precision", precision),
		logging.Int("bytes", len(payload)),
		logging.Int("raw_bytes", len(encoded)),
		logging.Bool("strict", strict),
		logging.Float64("join_window", cfg.Algebra.JoinWindow),
		logging.Duration("elapsed", time.Since(start)))
	return CompileResult{Payload: payload, Codec: codec, Precision: precision, Document: doc, CacheKey: key}, nil
}

// InspectManifest compiles the manifest and summarizes it without encoding.
func InspectManifest(ctx context.Context, req InspectRequest) (DocumentSummary, error) {
	if req.Config == nil {
		return DocumentSummary{}, errConfigRequired
	}
	logger := loggerOrNop(req.Logger)
	_, m, err := readManifest(req.ManifestPath)
	if err != nil {
		return DocumentSummary{}, err
	}
	doc, err := compileDocument(ctx, req.Config, m, strictKeys(req.Config, req.Strict), logger)
	if err != nil {
		return DocumentSummary{}, err
	}
	return FromDocument(doc), nil
}

func compileDocument(ctx context.Context, cfg *config.Config, m *manifest.Manifest, strict bool, logger *slog.Logger) (*vgridspec.Document, error) {
	opts := []manifest.Option{manifest.WithMappingOptions(MappingOptions(cfg, logger)...)}
	if m.UsesStore() {
		store, err := OpenStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		opts = append(opts, manifest.WithStore(store))
	}

	sources, tracks, err := manifest.Resolve(ctx, m, opts...)
	if err != nil {
		return nil, err
	}
	return vgridspec.Compile(sources, tracks,
		vgridspec.WithLogger(logger),
		vgridspec.WithStrictKeys(strict))
}

func readManifest(path string) ([]byte, *manifest.Manifest, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil, fmt.Errorf("manifest path is required")
	}
	format, err := manifest.FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := manifest.Parse(data, format)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, m, nil
}

func strictKeys(cfg *config.Config, strict bool) bool {
	return strict || !cfg.Algebra.DropUnknownSources
}
