// Package moment describes a moment representation (how many moments, which
// basis, at what precision) and owns the GPU textures that hold it.
package moment

import (
	"errors"
	"fmt"
)

// Basis selects the functions the depth distribution is projected onto.
type Basis int

const (
	// Power stores b_k = sum(a * z^k).
	Power Basis = iota
	// Trigonometric stores complex moments sum(a * exp(i*k*phi)) as (Re, Im) pairs.
	Trigonometric
)

func (b Basis) String() string {
	switch b {
	case Power:
		return "power"
	case Trigonometric:
		return "trigonometric"
	default:
		return fmt.Sprintf("Basis(%d)", int(b))
	}
}

// Precision selects the storage format of the higher-order moments.
// The zeroth moment is always stored as 32-bit float.
type Precision int

const (
	Float32 Precision = iota
	UNorm16
)

func (p Precision) String() string {
	switch p {
	case Float32:
		return "float32"
	case UNorm16:
		return "unorm16"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("moment: invalid configuration")

// Config is an immutable moment configuration. Changing any field means a
// new Config and a full rebuild of every texture and program derived from it.
type Config struct {
	// NumMoments counts real moments excluding b0: 4, 6 or 8. For the
	// trigonometric basis this is twice the number of complex moments.
	NumMoments int
	Basis      Basis
	Precision  Precision
	// SplitChannelLayout stores 6 moments as RG + RGBA instead of three RG
	// layers. Ignored for other moment counts.
	SplitChannelLayout bool
}

// Default returns four power moments in single precision.
func Default() Config {
	return Config{NumMoments: 4, Basis: Power, Precision: Float32, SplitChannelLayout: true}
}

// Validate checks the moment count, basis and precision.
func (c Config) Validate() error {
	if c.NumMoments < 4 || c.NumMoments > 8 || c.NumMoments%2 != 0 {
		return fmt.Errorf("%w: %d moments (want 4, 6 or 8)", ErrInvalidConfig, c.NumMoments)
	}
	if c.Basis != Power && c.Basis != Trigonometric {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Basis)
	}
	if c.Precision != Float32 && c.Precision != UNorm16 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Precision)
	}
	return nil
}

// Normalize clears SplitChannelLayout when it has no meaning, so two configs
// producing the same textures and programs compare equal.
func (c Config) Normalize() Config {
	if c.NumMoments != 6 {
		c.SplitChannelLayout = false
	}
	return c
}

// Split reports whether the R/RG/RGBA layout is in effect.
func (c Config) Split() bool {
	return c.NumMoments == 6 && c.SplitChannelLayout
}

// ComplexMoments returns the number of complex trigonometric moments.
func (c Config) ComplexMoments() int {
	return c.NumMoments / 2
}

func (c Config) String() string {
	s := fmt.Sprintf("%s/%d/%s", c.Basis, c.NumMoments, c.Precision)
	if c.Split() {
		s += "/split"
	}
	return s
}
