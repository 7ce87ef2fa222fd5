package voxel

import "fmt"

// Level locates one level of a pyramid inside the flat LOD slice.
type Level struct {
	Size   Size
	Offset int
}

// Levels lists the pyramid levels of a grid of the given size, finest first.
// Each level halves every extent; the pyramid stops before any extent
// reaches zero.
func Levels(size Size) []Level {
	var levels []Level
	offset := 0
	for s := size; s.Count() > 0; s = s.Half() {
		levels = append(levels, Level{Size: s, Offset: offset})
		offset += s.Count()
	}
	return levels
}

// LODSize returns the total number of entries over all levels.
func LODSize(size Size) int {
	levels := Levels(size)
	if len(levels) == 0 {
		return 0
	}
	last := levels[len(levels)-1]
	return last.Offset + last.Size.Count()
}

// DensityLODs builds the density pyramid. Level 0 is a copy of density and
// each coarser voxel is the mean of its eight children.
func DensityLODs(density []float32, size Size) ([]float32, error) {
	levels, out, err := allocLODs[float32](len(density), size)
	if err != nil {
		return nil, err
	}
	copy(out, density)
	for i := 1; i < len(levels); i++ {
		parent, child := levels[i-1], levels[i]
		reduce(out, parent, child, func(sum float32) float32 { return sum / 8 })
	}
	return out, nil
}

// OctreeLODs builds the occupancy pyramid for line counts. Level 0 is a
// copy of numLines and each coarser voxel is 1 if any child is non-zero.
func OctreeLODs(numLines []uint32, size Size) ([]uint32, error) {
	levels, out, err := allocLODs[uint32](len(numLines), size)
	if err != nil {
		return nil, err
	}
	copy(out, numLines)
	for i := 1; i < len(levels); i++ {
		parent, child := levels[i-1], levels[i]
		reduce(out, parent, child, func(sum uint32) uint32 {
			if sum > 0 {
				return 1
			}
			return 0
		})
	}
	return out, nil
}

// allocLODs sizes the result once for every level.
func allocLODs[T float32 | uint32](n int, size Size) ([]Level, []T, error) {
	if n != size.Count() {
		return nil, nil, fmt.Errorf("%w: %d values for %s", ErrSizeMismatch, n, size)
	}
	levels := Levels(size)
	return levels, make([]T, LODSize(size)), nil
}

// reduce writes child level entries of lods from the 2x2x2 blocks of the
// parent level.
func reduce[T float32 | uint32](lods []T, parent, child Level, fn func(sum T) T) {
	src := lods[parent.Offset : parent.Offset+parent.Size.Count()]
	dst := lods[child.Offset : child.Offset+child.Size.Count()]
	p, c := parent.Size, child.Size
	for z := 0; z < c.Z; z++ {
		for y := 0; y < c.Y; y++ {
			for x := 0; x < c.X; x++ {
				var sum T
				for oz := 0; oz < 2; oz++ {
					for oy := 0; oy < 2; oy++ {
						for ox := 0; ox < 2; ox++ {
							sum += src[p.Index(2*x+ox, 2*y+oy, 2*z+oz)]
						}
					}
				}
				dst[c.Index(x, y, z)] = fn(sum)
			}
		}
	}
}
