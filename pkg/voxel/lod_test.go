package voxel

import (
	"errors"
	"testing"
)

func TestLevels(t *testing.T) {
	tests := []struct {
		size  Size
		sizes []Size
		total int
	}{
		{Size{4, 4, 4}, []Size{{4, 4, 4}, {2, 2, 2}, {1, 1, 1}}, 73},
		{Size{4, 2, 2}, []Size{{4, 2, 2}, {2, 1, 1}}, 18},
		{Size{5, 3, 8}, []Size{{5, 3, 8}, {2, 1, 4}}, 128},
		{Size{1, 1, 1}, []Size{{1, 1, 1}}, 1},
		{Size{0, 4, 4}, nil, 0},
	}
	for _, tt := range tests {
		levels := Levels(tt.size)
		if len(levels) != len(tt.sizes) {
			t.Fatalf("%v: got %d levels, want %d", tt.size, len(levels), len(tt.sizes))
		}
		offset := 0
		for i, l := range levels {
			if l.Size != tt.sizes[i] || l.Offset != offset {
				t.Errorf("%v level %d = %+v, want size %v offset %d", tt.size, i, l, tt.sizes[i], offset)
			}
			offset += l.Size.Count()
		}
		if got := LODSize(tt.size); got != tt.total {
			t.Errorf("LODSize(%v) = %d, want %d", tt.size, got, tt.total)
		}
	}
}

func TestDensityLODsAverage(t *testing.T) {
	size := Size{4, 2, 2}
	density := make([]float32, size.Count())
	for z := 0; z < size.Z; z++ {
		for y := 0; y < size.Y; y++ {
			for x := 0; x < size.X; x++ {
				density[size.Index(x, y, z)] = float32(x)
			}
		}
	}

	lods, err := DensityLODs(density, size)
	if err != nil {
		t.Fatal(err)
	}
	if len(lods) != LODSize(size) || cap(lods) != len(lods) {
		t.Fatalf("len %d cap %d, want exactly %d", len(lods), cap(lods), LODSize(size))
	}
	for i, v := range density {
		if lods[i] != v {
			t.Fatalf("level 0 differs at %d", i)
		}
	}
	// Level 1 is 2x1x1: means of x in {0,1} and {2,3}.
	if lods[16] != 0.5 || lods[17] != 2.5 {
		t.Errorf("level 1 = %v, want [0.5 2.5]", lods[16:18])
	}
}

func TestDensityLODsConstant(t *testing.T) {
	size := Size{8, 8, 8}
	density := make([]float32, size.Count())
	for i := range density {
		density[i] = 0.75
	}
	lods, err := DensityLODs(density, size)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range lods {
		if v != 0.75 {
			t.Fatalf("entry %d = %v, want 0.75", i, v)
		}
	}
}

func TestOctreeLODsOccupancy(t *testing.T) {
	size := Size{4, 2, 2}
	counts := make([]uint32, size.Count())
	counts[size.Index(3, 1, 1)] = 5

	lods, err := OctreeLODs(counts, size)
	if err != nil {
		t.Fatal(err)
	}
	if lods[size.Index(3, 1, 1)] != 5 {
		t.Error("level 0 must keep the raw counts")
	}
	if lods[16] != 0 || lods[17] != 1 {
		t.Errorf("level 1 = %v, want [0 1]", lods[16:18])
	}
}

func TestLODsSizeMismatch(t *testing.T) {
	if _, err := DensityLODs(make([]float32, 7), Size{2, 2, 2}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("DensityLODs: expected ErrSizeMismatch, got %v", err)
	}
	if _, err := OctreeLODs(make([]uint32, 9), Size{2, 2, 2}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("OctreeLODs: expected ErrSizeMismatch, got %v", err)
	}
}

func TestGenerateAOFactors(t *testing.T) {
	size := Size{9, 9, 9}
	density := make([]float32, size.Count())
	density[size.Index(4, 4, 4)] = 1

	for _, hair := range []bool{false, true} {
		ao, err := GenerateAOFactors(density, size, hair)
		if err != nil {
			t.Fatal(err)
		}
		if got := ao[size.Index(4, 4, 4)]; got != 0 {
			t.Errorf("hair=%v: center AO = %v, want 0", hair, got)
		}
		// Outside the 7³ footprint nothing is occluded.
		if got := ao[size.Index(0, 0, 0)]; got != 1 {
			t.Errorf("hair=%v: corner AO = %v, want 1", hair, got)
		}
		for i, v := range ao {
			if v < 0 || v > 1 {
				t.Fatalf("hair=%v: AO[%d] = %v out of range", hair, i, v)
			}
		}
	}
}

func TestGenerateAOFactorsEmpty(t *testing.T) {
	size := Size{3, 4, 5}
	ao, err := GenerateAOFactors(make([]float32, size.Count()), size, false)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range ao {
		if v != 1 {
			t.Fatalf("AO[%d] = %v, want 1 for an empty grid", i, v)
		}
	}
	if _, err := GenerateAOFactors(make([]float32, 3), size, false); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}
