// Package voxel reads and writes compressed voxel grids of line data and
// derives the level-of-detail pyramids and ambient occlusion factors the
// viewer samples.
package voxel

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/moment-oit/pkg/math"
)

// FormatVersion is the only on-disk version this package understands.
const FormatVersion uint32 = 4

// Voxel grid format errors.
var (
	ErrUnsupportedVersion = errors.New("voxel: unsupported format version")
	ErrUnknownDataType    = errors.New("voxel: unknown data type")
	ErrTruncated          = errors.New("voxel: truncated data")
	ErrSizeMismatch       = errors.New("voxel: array size does not match grid resolution")
)

// DataType selects the dataset-specific header fields.
type DataType uint32

const (
	Vorticity DataType = 0
	Hair      DataType = 1
)

func (t DataType) String() string {
	switch t {
	case Vorticity:
		return "vorticity"
	case Hair:
		return "hair"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// Size is a grid extent in voxels.
type Size struct {
	X, Y, Z int
}

// Count returns the number of voxels, or 0 if any extent is not positive.
func (s Size) Count() int {
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return 0
	}
	return s.X * s.Y * s.Z
}

// Index returns the linear index of (x, y, z), x fastest.
func (s Size) Index(x, y, z int) int {
	return (z*s.Y+y)*s.X + x
}

// Half returns the extent of the next coarser level.
func (s Size) Half() Size {
	return Size{s.X / 2, s.Y / 2, s.Z / 2}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%dx%d", s.X, s.Y, s.Z)
}

// LineSegment is one stored segment with per-endpoint attribute values.
type LineSegment struct {
	V1 math.Vec3
	A1 float32
	V2 math.Vec3
	A2 float32
}

// Grid is a decoded voxel grid file.
type Grid struct {
	Resolution             Size
	QuantizationResolution Size
	WorldToVoxelGrid       math.Mat4
	DataType               DataType

	// Vorticity datasets.
	MaxVorticity float32
	Attributes   []float32

	// Hair datasets.
	HairStrandColor math.Vec4
	HairThickness   float32

	LineListOffsets []uint32
	LinesPerVoxel   []uint32
	Densities       []float32
	AOFactors       []float32
	Segments        []LineSegment
}

// Validate checks that the per-voxel arrays match the grid resolution.
// Empty arrays are allowed.
func (g *Grid) Validate() error {
	n := g.Resolution.Count()
	check := func(name string, l int) error {
		if l != 0 && l != n {
			return fmt.Errorf("%w: %s has %d entries, grid %s has %d voxels", ErrSizeMismatch, name, l, g.Resolution, n)
		}
		return nil
	}
	return errors.Join(
		check("line list offsets", len(g.LineListOffsets)),
		check("lines per voxel", len(g.LinesPerVoxel)),
		check("densities", len(g.Densities)),
		check("ao factors", len(g.AOFactors)),
	)
}

// header is the fixed-size prefix after the version word.
type header struct {
	Resolution   [3]int32
	Quantization [3]int32
	WorldToGrid  [16]float32
	DataType     uint32
}

// Read decodes a version 4 grid from r.
func Read(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)

	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, truncated("version", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, version, FormatVersion)
	}

	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, truncated("header", err)
	}

	g := &Grid{
		Resolution:             sizeOf(h.Resolution),
		QuantizationResolution: sizeOf(h.Quantization),
		WorldToVoxelGrid:       math.Mat4(h.WorldToGrid),
		DataType:               DataType(h.DataType),
	}

	var err error
	switch g.DataType {
	case Vorticity:
		if err := binary.Read(br, binary.LittleEndian, &g.MaxVorticity); err != nil {
			return nil, truncated("max vorticity", err)
		}
		if g.Attributes, err = readArray[float32](br, "attributes"); err != nil {
			return nil, err
		}
	case Hair:
		if err := binary.Read(br, binary.LittleEndian, &g.HairStrandColor); err != nil {
			return nil, truncated("hair color", err)
		}
		if err := binary.Read(br, binary.LittleEndian, &g.HairThickness); err != nil {
			return nil, truncated("hair thickness", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownDataType, h.DataType)
	}

	if g.LineListOffsets, err = readArray[uint32](br, "line list offsets"); err != nil {
		return nil, err
	}
	if g.LinesPerVoxel, err = readArray[uint32](br, "lines per voxel"); err != nil {
		return nil, err
	}
	if g.Densities, err = readArray[float32](br, "densities"); err != nil {
		return nil, err
	}
	if g.AOFactors, err = readArray[float32](br, "ao factors"); err != nil {
		return nil, err
	}
	if g.Segments, err = readArray[LineSegment](br, "line segments"); err != nil {
		return nil, err
	}
	return g, nil
}

// Write encodes g in format version 4.
func Write(w io.Writer, g *Grid) error {
	if g.DataType != Vorticity && g.DataType != Hair {
		return fmt.Errorf("%w: %d", ErrUnknownDataType, uint32(g.DataType))
	}

	bw := bufio.NewWriter(w)
	h := header{
		Resolution:   g.Resolution.int32s(),
		Quantization: g.QuantizationResolution.int32s(),
		WorldToGrid:  g.WorldToVoxelGrid,
		DataType:     uint32(g.DataType),
	}
	if err := binary.Write(bw, binary.LittleEndian, FormatVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return err
	}

	var err error
	if g.DataType == Vorticity {
		err = errors.Join(
			binary.Write(bw, binary.LittleEndian, g.MaxVorticity),
			writeArray(bw, g.Attributes),
		)
	} else {
		err = errors.Join(
			binary.Write(bw, binary.LittleEndian, g.HairStrandColor),
			binary.Write(bw, binary.LittleEndian, g.HairThickness),
		)
	}
	if err != nil {
		return err
	}

	if err := errors.Join(
		writeArray(bw, g.LineListOffsets),
		writeArray(bw, g.LinesPerVoxel),
		writeArray(bw, g.Densities),
		writeArray(bw, g.AOFactors),
		writeArray(bw, g.Segments),
	); err != nil {
		return err
	}
	return bw.Flush()
}

// readChunk bounds the allocation made for a single read so a corrupt count
// fails with ErrTruncated instead of exhausting memory.
const readChunk = 1 << 16

func readArray[T any](r io.Reader, name string) ([]T, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, truncated(name+" count", err)
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]T, 0, min(int(n), readChunk))
	for remaining := int(n); remaining > 0; {
		chunk := make([]T, min(remaining, readChunk))
		if err := binary.Read(r, binary.LittleEndian, chunk); err != nil {
			return nil, truncated(name, err)
		}
		out = append(out, chunk...)
		remaining -= len(chunk)
	}
	return out, nil
}

func writeArray[T any](w io.Writer, values []T) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(values))); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return binary.Write(w, binary.LittleEndian, values)
}

func truncated(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s", ErrTruncated, what)
	}
	return fmt.Errorf("reading %s: %w", what, err)
}

func sizeOf(v [3]int32) Size {
	return Size{int(v[0]), int(v[1]), int(v[2])}
}

func (s Size) int32s() [3]int32 {
	return [3]int32{int32(s.X), int32(s.Y), int32(s.Z)}
}
