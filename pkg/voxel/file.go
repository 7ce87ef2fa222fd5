package voxel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/logger"
)

// Compression is the container a grid file is wrapped in, chosen by extension.
type Compression int

const (
	None Compression = iota
	Zstd
	Gzip
)

// CompressionFor returns the compression implied by path's extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return Zstd
	case ".gz":
		return Gzip
	default:
		return None
	}
}

func (c Compression) String() string {
	switch c {
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	default:
		return "none"
	}
}

// LoadFile reads a grid from path. A missing file is logged and the returned
// error wraps fs.ErrNotExist.
func LoadFile(path string) (*Grid, error) {
	log := logger.Named("voxel")

	f, err := os.Open(path)
	if err != nil {
		log.Error("voxel grid not found", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("opening voxel grid: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	switch CompressionFor(path) {
	case Zstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		r = dec
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	g, err := Read(r)
	if err != nil {
		log.Error("failed to load voxel grid", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	log.Info("voxel grid loaded",
		zap.String("path", path),
		zap.Stringer("resolution", g.Resolution),
		zap.Stringer("type", g.DataType),
		zap.Int("segments", len(g.Segments)))
	return g, nil
}

// SaveFile writes g to path, compressing according to the extension.
func SaveFile(path string, g *Grid) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating voxel grid: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	switch CompressionFor(path) {
	case Zstd:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return fmt.Errorf("zstd: %w", err)
		}
		if err := Write(enc, g); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case Gzip:
		zw := gzip.NewWriter(f)
		if err := Write(zw, g); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return Write(f, g)
	}
}
