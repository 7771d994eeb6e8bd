package tensor

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws random values for generated requests.
type Sampler struct {
	src rand.Source
	rnd *rand.Rand
}

func NewSampler(seed uint64) *Sampler {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &Sampler{src: src, rnd: rand.New(src)}
}

func (s *Sampler) Uniform(min, max float64, n int) []float64 {
	return s.draw(distuv.Uniform{Min: min, Max: max, Src: s.src}, n)
}

func (s *Sampler) Normal(n int) []float64 {
	return s.draw(distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}, n)
}

func (s *Sampler) LogNormal(n int) []float64 {
	return s.draw(distuv.LogNormal{Mu: 0, Sigma: 1, Src: s.src}, n)
}

// IntN returns a value in [0, n).
func (s *Sampler) IntN(n int) int {
	return s.rnd.IntN(n)
}

func (s *Sampler) Float64() float64 {
	return s.rnd.Float64()
}

func (s *Sampler) draw(dist distuv.Rander, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = dist.Rand()
	}
	return out
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
