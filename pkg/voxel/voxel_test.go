package voxel

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Faultbox/moment-oit/pkg/math"
)

func testGrid(dataType DataType) *Grid {
	size := Size{2, 2, 2}
	g := &Grid{
		Resolution:             size,
		QuantizationResolution: Size{64, 64, 64},
		WorldToVoxelGrid:       math.Scale(0.5, 0.5, 0.5),
		DataType:               dataType,
		LineListOffsets:        []uint32{0, 1, 1, 2, 2, 2, 3, 3},
		LinesPerVoxel:          []uint32{1, 0, 1, 0, 0, 1, 0, 0},
		Densities:              []float32{0.5, 0, 0.25, 0, 0, 1, 0, 0},
		AOFactors:              []float32{1, 1, 1, 1, 1, 0.5, 1, 1},
		Segments: []LineSegment{
			{V1: math.Vec3{X: 0, Y: 0, Z: 0}, A1: 0.1, V2: math.Vec3{X: 1, Y: 1, Z: 1}, A2: 0.2},
			{V1: math.Vec3{X: 1, Y: 0, Z: 1}, A1: 0.3, V2: math.Vec3{X: 2, Y: 2, Z: 2}, A2: 0.4},
		},
	}
	if dataType == Vorticity {
		g.MaxVorticity = 12.5
		g.Attributes = []float32{1, 2, 3, 4}
	} else {
		g.HairStrandColor = math.Vec4{0.6, 0.4, 0.2, 1}
		g.HairThickness = 0.01
	}
	return g
}

func TestReadWrite(t *testing.T) {
	for _, dt := range []DataType{Vorticity, Hair} {
		t.Run(dt.String(), func(t *testing.T) {
			want := testGrid(dt)
			var buf bytes.Buffer
			if err := Write(&buf, want); err != nil {
				t.Fatalf("Write: %v", err)
			}
			got, err := Read(&buf)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("grid mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestWriteLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testGrid(Hair)); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	if v := binary.LittleEndian.Uint32(data[0:4]); v != 4 {
		t.Errorf("version word = %d, want 4", v)
	}
	if x := binary.LittleEndian.Uint32(data[4:8]); x != 2 {
		t.Errorf("grid resolution x = %d, want 2", x)
	}
	// version + 2 ivec3 + mat4 puts the data type at byte 92.
	if dt := binary.LittleEndian.Uint32(data[92:96]); dt != uint32(Hair) {
		t.Errorf("data type = %d, want %d", dt, Hair)
	}
}

func TestReadUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testGrid(Vorticity)); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data, 3)

	g, err := Read(bytes.NewReader(data))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
	if g != nil {
		t.Error("expected no grid on version mismatch")
	}
}

func TestReadUnknownDataType(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testGrid(Vorticity)); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	binary.LittleEndian.PutUint32(data[92:], 7)

	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrUnknownDataType) {
		t.Fatalf("expected ErrUnknownDataType, got %v", err)
	}
	if err := Write(&bytes.Buffer{}, &Grid{DataType: 9}); !errors.Is(err, ErrUnknownDataType) {
		t.Fatalf("Write: expected ErrUnknownDataType, got %v", err)
	}
}

func TestReadTruncated(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testGrid(Vorticity)); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()

	for _, n := range []int{0, 2, 50, 100, len(data) / 2, len(data) - 1} {
		if _, err := Read(bytes.NewReader(data[:n])); !errors.Is(err, ErrTruncated) {
			t.Errorf("cut at %d: expected ErrTruncated, got %v", n, err)
		}
	}
}

func TestReadHugeCount(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, &Grid{DataType: Hair}); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	// First array count follows the hair color and thickness.
	binary.LittleEndian.PutUint32(data[96+20:], 0xFFFFFFF0)

	if _, err := Read(bytes.NewReader(data)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	want := testGrid(Vorticity)

	for _, name := range []string{"grid.voxel", "grid.voxel.zst", "grid.voxel.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := SaveFile(path, want); err != nil {
				t.Fatalf("SaveFile: %v", err)
			}
			got, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Error("grid mismatch after file round trip")
			}
		})
	}

	// A compressed file must not be readable as plain data.
	raw, err := os.ReadFile(filepath.Join(dir, "grid.voxel.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Read(bytes.NewReader(raw)); err == nil {
		t.Error("expected zstd payload to fail plain decoding")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.voxel"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	g := testGrid(Vorticity)
	if err := g.Validate(); err != nil {
		t.Fatalf("valid grid: %v", err)
	}
	g.AOFactors = nil
	if err := g.Validate(); err != nil {
		t.Fatalf("missing AO is allowed: %v", err)
	}
	g.Densities = g.Densities[:3]
	if err := g.Validate(); !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestCompressionFor(t *testing.T) {
	tests := []struct {
		path string
		want Compression
	}{
		{"a.voxel", None},
		{"a.voxel.zst", Zstd},
		{"A.VOXEL.ZSTD", Zstd},
		{"dir.zst/a.voxel", None},
		{"a.voxel.gz", Gzip},
	}
	for _, tt := range tests {
		if got := CompressionFor(tt.path); got != tt.want {
			t.Errorf("CompressionFor(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
