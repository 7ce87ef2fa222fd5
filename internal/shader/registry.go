package shader

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/moment-oit/internal/gpu"
	"github.com/Faultbox/moment-oit/internal/logger"
)

// Built-in material names.
const (
	LinesMaterial     = "lines"
	CompositeMaterial = "composite"
)

// ErrUnknownMaterial is returned when a variant names an unregistered material.
var ErrUnknownMaterial = errors.New("shader: unknown material")

// ErrUnknownVariant is returned by Set.Get for a variant that was not built.
var ErrUnknownVariant = errors.New("shader: variant not built")

// Material is a pair of shader bodies. When Moments is set the moment
// reconstruction (and, for storing passes, the accumulation code) is
// prepended to the fragment body.
type Material struct {
	Name     string
	Vertex   string
	Fragment string
	Moments  bool
}

// Set is an immutable generation of linked programs.
type Set struct {
	programs map[Variant]gpu.Program
}

// Get returns the program built for v.
func (s *Set) Get(v Variant) (gpu.Program, error) {
	if s == nil {
		return 0, fmt.Errorf("%w: %s (empty set)", ErrUnknownVariant, v)
	}
	p, ok := s.programs[v.Normalize()]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownVariant, v)
	}
	return p, nil
}

// Has reports whether v was built.
func (s *Set) Has(v Variant) bool {
	if s == nil {
		return false
	}
	_, ok := s.programs[v.Normalize()]
	return ok
}

// Len returns the number of programs in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.programs)
}

// Registry compiles variants of registered materials.
type Registry struct {
	dev gpu.Device
	log *zap.Logger

	mu        sync.Mutex
	materials map[string]Material
}

// NewRegistry returns a registry with the built-in materials registered.
func NewRegistry(dev gpu.Device) *Registry {
	r := &Registry{
		dev:       dev,
		log:       logger.Named("shader"),
		materials: make(map[string]Material),
	}
	r.Register(Material{
		Name:     LinesMaterial,
		Vertex:   LinesVertexShader,
		Fragment: LinesFragmentShader,
		Moments:  true,
	})
	r.Register(Material{
		Name:     CompositeMaterial,
		Vertex:   FullscreenVertexShader,
		Fragment: CompositeFragmentShader,
		Moments:  true,
	})
	return r
}

// Register adds or replaces a material. Sets already built are unaffected.
func (r *Registry) Register(m Material) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[m.Name] = m
}

// Build links every requested variant. Either all programs link and a new
// Set is returned, or every program linked by this call is deleted and the
// error describes the first failure.
func (r *Registry) Build(variants ...Variant) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := &Set{programs: make(map[Variant]gpu.Program, len(variants))}
	for _, v := range variants {
		v = v.Normalize()
		if _, done := set.programs[v]; done {
			continue
		}
		if err := v.Validate(); err != nil {
			r.release(set)
			return nil, err
		}
		m, ok := r.materials[v.Material]
		if !ok {
			r.release(set)
			return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, v.Material)
		}
		vs, fs := v.Source(m)
		p, err := r.dev.NewProgram(vs, fs)
		if err != nil {
			r.release(set)
			r.log.Error("program build failed", zap.Stringer("variant", v), zap.Error(err))
			return nil, fmt.Errorf("building %s: %w", v, err)
		}
		set.programs[v] = p
	}
	r.log.Debug("built shader set", zap.Int("programs", len(set.programs)))
	return set, nil
}

// Release deletes every program of s. It is safe on nil.
func (r *Registry) Release(s *Set) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release(s)
}

func (r *Registry) release(s *Set) {
	if s == nil {
		return
	}
	for v, p := range s.programs {
		r.dev.DeleteProgram(p)
		delete(s.programs, v)
	}
}
