// Package shader builds the GLSL program variants used by the moment passes.
// A Variant is a typed, comparable key; the preprocessor header for it is
// generated in one place.
package shader

import (
	"fmt"
	"strings"

	"github.com/Faultbox/moment-oit/internal/moment"
)

// Pass selects what a program does with the geometry it shades.
type Pass int

const (
	// Opaque shades solid geometry, optionally receiving moment shadows.
	Opaque Pass = iota
	// Gather accumulates transparent fragments into the moment images.
	Gather
	// Resolve reconstructs transmittance and shades transparent fragments.
	Resolve
	// ShadowGenerate accumulates fragments into the shadow moment images.
	ShadowGenerate
	// Composite blends the accumulation target over the opaque image.
	Composite
)

var passNames = [...]string{"opaque", "gather", "resolve", "shadow-generate", "composite"}

func (p Pass) String() string {
	if p < 0 || int(p) >= len(passNames) {
		return fmt.Sprintf("Pass(%d)", int(p))
	}
	return passNames[p]
}

// Stores reports whether the pass writes moment images under interlock.
func (p Pass) Stores() bool {
	return p == Gather || p == ShadowGenerate
}

// Image and sampler units. Gather and shadow generation write through images,
// resolve and shadow-receiving programs sample.
const (
	OITImageUnit      uint32 = 0
	ShadowImageUnit   uint32 = 3
	OITSamplerUnit    uint32 = 6
	ShadowSamplerUnit uint32 = 9
	AccumulationUnit  uint32 = 12
)

// Uniform block bindings.
const (
	OITUniformBinding    uint32 = 1
	ShadowUniformBinding uint32 = 2
)

// Variant identifies one linked program. Fields a pass does not read are
// cleared by Normalize so equal programs share a key.
type Variant struct {
	Material string
	Pass     Pass
	OIT      moment.Config
	Shadow   moment.Config
	Shadows  bool
}

// Normalize clears the fields irrelevant to the pass.
func (v Variant) Normalize() Variant {
	v.OIT = v.OIT.Normalize()
	v.Shadow = v.Shadow.Normalize()
	switch v.Pass {
	case Opaque:
		v.OIT = moment.Config{}
	case Gather:
		v.Shadow = moment.Config{}
		v.Shadows = false
	case ShadowGenerate:
		v.OIT = moment.Config{}
		v.Shadows = false
	case Composite:
		v.Material = CompositeMaterial
		v.OIT = moment.Config{}
		v.Shadow = moment.Config{}
		v.Shadows = false
	}
	if !v.Shadows && v.Pass != ShadowGenerate {
		v.Shadow = moment.Config{}
	}
	return v
}

func (v Variant) String() string {
	v = v.Normalize()
	s := v.Material + ":" + v.Pass.String()
	if v.OIT.NumMoments != 0 {
		s += " oit=" + v.OIT.String()
	}
	if v.Shadow.NumMoments != 0 {
		s += " shadow=" + v.Shadow.String()
	}
	return s
}

// Validate checks the moment configurations the pass needs.
func (v Variant) Validate() error {
	v = v.Normalize()
	if v.Material == "" {
		return fmt.Errorf("variant %s: no material", v)
	}
	if v.Pass < Opaque || v.Pass > Composite {
		return fmt.Errorf("variant %s: unknown pass", v)
	}
	if v.Pass == Gather || v.Pass == Resolve {
		if err := v.OIT.Validate(); err != nil {
			return fmt.Errorf("variant %s: %w", v, err)
		}
	}
	if v.Shadows || v.Pass == ShadowGenerate {
		if err := v.Shadow.Validate(); err != nil {
			return fmt.Errorf("variant %s: %w", v, err)
		}
	}
	return nil
}

const glslVersion = "#version 450 core\n"

func boolDefine(b bool) int {
	if b {
		return 1
	}
	return 0
}

func configDefines(sb *strings.Builder, prefix string, cfg moment.Config) {
	n := cfg.NumMoments
	if n == 0 {
		n = 4
	}
	fmt.Fprintf(sb, "#define %s_NUM_MOMENTS %d\n", prefix, n)
	fmt.Fprintf(sb, "#define %s_TRIGONOMETRIC %d\n", prefix, boolDefine(cfg.Basis == moment.Trigonometric))
	fmt.Fprintf(sb, "#define %s_QUANTIZED %d\n", prefix, boolDefine(cfg.Precision == moment.UNorm16))
	fmt.Fprintf(sb, "#define %s_SPLIT %d\n", prefix, boolDefine(cfg.Split()))
}

// imageFormat returns the GLSL layout qualifier for the b texture format.
func imageFormat(cfg moment.Config, four bool) string {
	q := "32f"
	if cfg.Precision == moment.UNorm16 {
		q = "16"
	}
	if four {
		return "rgba" + q
	}
	return "rg" + q
}

// Header returns the preprocessor prelude for the variant's fragment stage.
func (v Variant) Header() string {
	v = v.Normalize()
	var sb strings.Builder
	sb.WriteString(glslVersion)
	if v.Pass.Stores() {
		sb.WriteString("#extension GL_ARB_fragment_shader_interlock : require\n")
	}
	for p := Opaque; p <= Composite; p++ {
		name := strings.ToUpper(strings.ReplaceAll(p.String(), "-", "_"))
		fmt.Fprintf(&sb, "#define PASS_%s %d\n", name, boolDefine(p == v.Pass))
	}
	fmt.Fprintf(&sb, "#define SHADOWS %d\n", boolDefine(v.Shadows))
	configDefines(&sb, "OIT", v.OIT)
	configDefines(&sb, "SHADOW", v.Shadow)

	if v.Pass.Stores() {
		cfg, binding := v.OIT, OITImageUnit
		if v.Pass == ShadowGenerate {
			cfg, binding = v.Shadow, ShadowImageUnit
		}
		layout, _ := moment.DeriveLayout(cfg)
		fmt.Fprintf(&sb, "#define STORE_NUM_MOMENTS %d\n", cfg.NumMoments)
		fmt.Fprintf(&sb, "#define STORE_TRIGONOMETRIC %d\n", boolDefine(cfg.Basis == moment.Trigonometric))
		fmt.Fprintf(&sb, "#define STORE_QUANTIZED %d\n", boolDefine(cfg.Precision == moment.UNorm16))
		fmt.Fprintf(&sb, "#define STORE_SPLIT %d\n", boolDefine(cfg.Split()))
		fmt.Fprintf(&sb, "#define STORE_FORMAT_B %s\n", imageFormat(cfg, layout.B.Channels() == 4))
		fmt.Fprintf(&sb, "#define STORE_FORMAT_EXTRA %s\n", imageFormat(cfg, true))
		fmt.Fprintf(&sb, "#define STORE_BINDING %d\n", binding)
		// Gather is depth tested against the opaque image; image stores of
		// occluded fragments would otherwise survive the late test.
		fmt.Fprintf(&sb, "#define STORE_EARLY_TESTS %d\n", boolDefine(v.Pass == Gather))
	}
	return sb.String()
}

// Source assembles the vertex and fragment sources of v for material m.
func (v Variant) Source(m Material) (vertex, fragment string) {
	v = v.Normalize()
	vertex = glslVersion + m.Vertex
	fragment = v.Header() + "#line 1\n"
	if m.Moments {
		fragment += momentMath + "\n"
		if v.Pass.Stores() {
			fragment += momentStore + "\n"
		}
	}
	return vertex, fragment + m.Fragment
}

// FrameVariants lists the programs one frame needs for material: opaque,
// gather, resolve, shadow generation (when shadows are on) and composite.
func FrameVariants(material string, oit, shadow moment.Config, shadows bool) []Variant {
	vs := []Variant{
		{Material: material, Pass: Opaque, Shadow: shadow, Shadows: shadows},
		{Material: material, Pass: Gather, OIT: oit},
		{Material: material, Pass: Resolve, OIT: oit, Shadow: shadow, Shadows: shadows},
		{Pass: Composite},
	}
	if shadows {
		vs = append(vs, Variant{Material: material, Pass: ShadowGenerate, Shadow: shadow})
	}
	for i := range vs {
		vs[i] = vs[i].Normalize()
	}
	return vs
}
