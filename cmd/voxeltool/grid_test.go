package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Faultbox/moment-oit/pkg/voxel"
)

func testGrid() *voxel.Grid {
	size := voxel.Size{X: 4, Y: 4, Z: 4}
	g := &voxel.Grid{
		Resolution:    size,
		DataType:      voxel.Vorticity,
		MaxVorticity:  2,
		Densities:     make([]float32, size.Count()),
		LinesPerVoxel: make([]uint32, size.Count()),
	}
	g.Densities[size.Index(1, 1, 1)] = 8
	g.LinesPerVoxel[size.Index(1, 1, 1)] = 3
	return g
}

func TestLODSummary(t *testing.T) {
	rows, err := LODSummary(testGrid())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d levels, want 3", len(rows))
	}

	tests := []struct {
		mean, occupied float64
	}{
		{8.0 / 64, 1.0 / 64},
		{1.0 / 8, 1.0 / 8},
		{1.0 / 8, 1},
	}
	for i, tt := range tests {
		if rows[i].Level != i {
			t.Errorf("row %d has level %d", i, rows[i].Level)
		}
		if rows[i].MeanDensity != tt.mean {
			t.Errorf("level %d mean %v, want %v", i, rows[i].MeanDensity, tt.mean)
		}
		if rows[i].Occupied != tt.occupied {
			t.Errorf("level %d occupied %v, want %v", i, rows[i].Occupied, tt.occupied)
		}
	}
}

func TestLODSummaryWithoutCounts(t *testing.T) {
	g := testGrid()
	g.LinesPerVoxel = nil
	rows, err := LODSummary(g)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range rows {
		if r.Occupied != 0 {
			t.Errorf("level %d occupied %v without counts", r.Level, r.Occupied)
		}
	}
}

func TestRecomputeAO(t *testing.T) {
	g := testGrid()
	if err := RecomputeAO(g, false); err != nil {
		t.Fatal(err)
	}
	if len(g.AOFactors) != g.Resolution.Count() {
		t.Fatalf("got %d AO factors", len(g.AOFactors))
	}
	for i, f := range g.AOFactors {
		if f < 0 || f > 1 {
			t.Fatalf("factor %d = %v out of range", i, f)
		}
	}
	if err := g.Validate(); err != nil {
		t.Errorf("grid invalid after AO: %v", err)
	}

	if err := RecomputeAO(&voxel.Grid{}, false); !errors.Is(err, errNoDensities) {
		t.Errorf("expected errNoDensities, got %v", err)
	}
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, "grid.voxel.zst", testGrid())
	out := buf.String()
	for _, want := range []string{"zstd", "4x4x4", "Max vorticity: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Invalid") {
		t.Errorf("valid grid reported invalid:\n%s", out)
	}
}
