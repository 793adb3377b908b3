package terrain

import "github.com/ojrac/opensimplex-go"

// fbm2 sums octaves of 2D simplex noise, normalized to roughly [-1, 1].
func fbm2(n opensimplex.Noise, x, z float64, octaves int, persistence, lacunarity float64) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for range octaves {
		sum += n.Eval2(x*freq, z*freq) * amp
		norm += amp
		amp *= persistence
		freq *= lacunarity
	}
	return sum / norm
}

// fbm3 is fbm2 in three dimensions.
func fbm3(n opensimplex.Noise, x, y, z float64, octaves int, persistence, lacunarity float64) float64 {
	var sum, norm float64
	amp, freq := 1.0, 1.0
	for range octaves {
		sum += n.Eval3(x*freq, y*freq, z*freq) * amp
		norm += amp
		amp *= persistence
		freq *= lacunarity
	}
	return sum / norm
}
