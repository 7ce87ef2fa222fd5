package moment

import "fmt"

type biasKey struct {
	basis     Basis
	moments   int
	precision Precision
}

// biasTable damps light leaking and ringing. The values are empirically
// tuned and cannot be derived.
var biasTable = map[biasKey]float32{
	{Power, 4, UNorm16}: 6e-4,
	{Power, 4, Float32}: 5e-7,
	{Power, 6, UNorm16}: 6e-3,
	{Power, 6, Float32}: 5e-6,
	{Power, 8, UNorm16}: 2.5e-2,
	{Power, 8, Float32}: 5e-5,

	{Trigonometric, 4, UNorm16}: 4e-3,
	{Trigonometric, 4, Float32}: 4e-7,
	{Trigonometric, 6, UNorm16}: 6.5e-3,
	{Trigonometric, 6, Float32}: 8e-6,
	{Trigonometric, 8, UNorm16}: 8.5e-3,
	{Trigonometric, 8, Float32}: 1.5e-5,
}

// Bias returns the moment bias for cfg. Every valid configuration has an
// entry; a miss is an error rather than a default.
func Bias(cfg Config) (float32, error) {
	v, ok := biasTable[biasKey{cfg.Basis, cfg.NumMoments, cfg.Precision}]
	if !ok {
		return 0, fmt.Errorf("%w: no moment bias for %v", ErrInvalidConfig, cfg)
	}
	return v, nil
}
