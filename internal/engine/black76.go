package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Floors below which the standardized argument of the pricing formula
// degenerates; prices collapse to discounted intrinsic value there.
const (
	timeFloor  = 1e-6
	sigmaFloor = 1e-6
)

var stdNormal = distuv.UnitNormal

// Black76Call returns the theoretical price of a European call on a
// futures contract: e^(-rT) * (F*N(d1) - K*N(d2)).
func Black76Call(f, k, t, r, sigma float64) float64 {
	if t < timeFloor || sigma < sigmaFloor {
		return math.Max(f-k, 0) * math.Exp(-r*t)
	}
	d1, d2 := d1d2(f, k, t, sigma)
	return math.Exp(-r*t) * (f*stdNormal.CDF(d1) - k*stdNormal.CDF(d2))
}

// Black76Put returns the theoretical price of a European put on a
// futures contract: e^(-rT) * (K*N(-d2) - F*N(-d1)).
func Black76Put(f, k, t, r, sigma float64) float64 {
	if t < timeFloor || sigma < sigmaFloor {
		return math.Max(k-f, 0) * math.Exp(-r*t)
	}
	d1, d2 := d1d2(f, k, t, sigma)
	return math.Exp(-r*t) * (k*stdNormal.CDF(-d2) - f*stdNormal.CDF(-d1))
}

// Black76Vega returns dPrice/dSigma: F * e^(-rT) * N'(d1) * sqrt(T).
// Exactly zero at the boundary floors, matching the intrinsic-value prices.
func Black76Vega(f, k, t, r, sigma float64) float64 {
	if t < timeFloor || sigma < sigmaFloor {
		return 0
	}
	d1, _ := d1d2(f, k, t, sigma)
	return f * math.Exp(-r*t) * stdNormal.Prob(d1) * math.Sqrt(t)
}

func d1d2(f, k, t, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(f/k) + 0.5*sigma*sigma*t) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}
