package moment

import (
	"encoding/binary"

	"github.com/chewxy/math32"

	"github.com/Faultbox/moment-oit/pkg/mboit"
)

// DefaultWrappingZoneAngle is the angle reserved past the far plane for the
// trigonometric basis.
const DefaultWrappingZoneAngle = 0.1 * math32.Pi

// DefaultOverestimation is the weight given to the fragment's own depth when
// reconstructing transmittance.
const DefaultOverestimation = 0.1

// UniformSize is the std140 size of UniformData.
const UniformSize = 32

// UniformData is shared by the gather, resolve and shadow programs through a
// uniform block. Updating it never reallocates the buffer.
type UniformData struct {
	MomentBias             float32
	Overestimation         float32
	WrappingZoneParameters [4]float32
}

// NewUniformData selects the bias for cfg and fills the wrapping zone.
func NewUniformData(cfg Config, overestimation float32) (UniformData, error) {
	bias, err := Bias(cfg)
	if err != nil {
		return UniformData{}, err
	}
	return UniformData{
		MomentBias:             bias,
		Overestimation:         overestimation,
		WrappingZoneParameters: WrappingZoneParameters(DefaultWrappingZoneAngle),
	}, nil
}

// WrappingZoneParameters returns (angle, pi - angle/2, slope, offset) where
// slope and offset ramp the circle parameter from 0 at the start of the
// wrapping zone to 1 at its end.
func WrappingZoneParameters(angle float32) [4]float32 {
	p := mboit.WrappingZone(float64(angle))
	return [4]float32{float32(p[0]), float32(p[1]), float32(p[2]), float32(p[3])}
}

// Bytes encodes the record with std140 layout.
func (u UniformData) Bytes() []byte {
	buf := make([]byte, 0, UniformSize)
	buf = binary.LittleEndian.AppendUint32(buf, math32.Float32bits(u.MomentBias))
	buf = binary.LittleEndian.AppendUint32(buf, math32.Float32bits(u.Overestimation))
	buf = append(buf, make([]byte, 8)...)
	for _, v := range u.WrappingZoneParameters {
		buf = binary.LittleEndian.AppendUint32(buf, math32.Float32bits(v))
	}
	return buf
}

// Reference returns the CPU reconstruction parameters matching the data the
// shaders see for cfg.
func (u UniformData) Reference(cfg Config) mboit.Params {
	wz := u.WrappingZoneParameters
	return mboit.Params{
		NumMoments:     cfg.NumMoments,
		Trigonometric:  cfg.Basis == Trigonometric,
		Quantized:      cfg.Precision == UNorm16,
		Bias:           float64(u.MomentBias),
		Overestimation: float64(u.Overestimation),
		WrappingZone:   [4]float64{float64(wz[0]), float64(wz[1]), float64(wz[2]), float64(wz[3])},
	}
}
