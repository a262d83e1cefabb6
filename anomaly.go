package orbits

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// keplerTol is the residual on Kepler's equation under which the solvers stop, in radians.
	keplerTol = 1e-10
	// keplerMaxIter caps the Newton-Raphson iterations of every anomaly solver.
	keplerMaxIter = 50
	// highEccentricity is the threshold from which the elliptic solver uses a better seed.
	highEccentricity = 0.8
)

// EccentricAnomaly solves Kepler's equation M = E - e*sin(E) for an elliptical orbit.
// The returned E is in [0, 2π).
func EccentricAnomaly(M, e float64) (float64, error) {
	if !finite(M, e) || e < 0 || e >= 1 {
		return math.NaN(), errors.Wrapf(ErrConvergence, "elliptic anomaly requires e in [0, 1) and finite M (e=%f M=%f)", e, M)
	}
	M = normalizeAngle(M)
	// Solve on [0, π] and use the symmetry of the equation for the other half.
	reflected := M > math.Pi
	if reflected {
		M = 2*math.Pi - M
	}
	E := M
	if e >= highEccentricity {
		sM := math.Sin(M)
		E = M + e*sM/(1-math.Sin(M+e)+sM)
	}
	for iter := 0; ; iter++ {
		sE, cE := math.Sincos(E)
		residual := E - e*sE - M
		if math.Abs(residual) < keplerTol {
			break
		}
		if iter == keplerMaxIter {
			return math.NaN(), errors.Wrapf(ErrConvergence, "eccentric anomaly after %d iterations (e=%f M=%f)", keplerMaxIter, e, M)
		}
		E -= residual / (1 - e*cE)
		// The root is within [M, π].
		if E > math.Pi {
			E = math.Pi
		} else if E < M {
			E = M
		}
	}
	if reflected {
		E = 2*math.Pi - E
	}
	return normalizeAngle(E), nil
}

// HyperbolicAnomaly solves M = e*sinh(H) - H for a hyperbolic orbit.
func HyperbolicAnomaly(M, e float64) (float64, error) {
	if !finite(M, e) || e <= 1 {
		return math.NaN(), errors.Wrapf(ErrConvergence, "hyperbolic anomaly requires e > 1 and finite M (e=%f M=%f)", e, M)
	}
	H := M
	if e >= 1.6 {
		// Large eccentricities need a logarithmic seed.
		H = Sign(M) * math.Log(2*math.Abs(M)/e+1.8)
	}
	tol := keplerTol * math.Max(1, math.Abs(M))
	for iter := 0; ; iter++ {
		residual := e*math.Sinh(H) - H - M
		if math.Abs(residual) < tol {
			return H, nil
		}
		if iter == keplerMaxIter {
			return math.NaN(), errors.Wrapf(ErrConvergence, "hyperbolic anomaly after %d iterations (e=%f M=%f)", keplerMaxIter, e, M)
		}
		H -= residual / (e*math.Cosh(H) - 1)
	}
}

// ParabolicAnomaly solves Barker's equation M = D + D^3/3 where D = tan(ν/2).
// The cubic has a single real root, returned in closed form.
func ParabolicAnomaly(M float64) (float64, error) {
	if !finite(M) {
		return math.NaN(), errors.Wrapf(ErrConvergence, "parabolic anomaly requires a finite M (M=%f)", M)
	}
	b := 1.5 * M
	s := math.Sqrt(b*b + 1)
	return math.Cbrt(b+s) + math.Cbrt(b-s), nil
}

// MeanFromEccentric returns the mean anomaly in [0, 2π).
func MeanFromEccentric(E, e float64) float64 {
	return normalizeAngle(E - e*math.Sin(E))
}

// MeanFromHyperbolic returns the hyperbolic mean anomaly.
func MeanFromHyperbolic(H, e float64) float64 {
	return e*math.Sinh(H) - H
}

// MeanFromParabolic returns the parabolic mean anomaly from D = tan(ν/2).
func MeanFromParabolic(D float64) float64 {
	return D + math.Pow(D, 3)/3
}

// TrueFromEccentric returns the true anomaly in [0, 2π).
func TrueFromEccentric(E, e float64) float64 {
	sE2, cE2 := math.Sincos(E / 2)
	return normalizeAngle(2 * math.Atan2(math.Sqrt(1+e)*sE2, math.Sqrt(1-e)*cE2))
}

// EccentricFromTrue returns the eccentric anomaly in [0, 2π).
func EccentricFromTrue(ν, e float64) float64 {
	sν2, cν2 := math.Sincos(ν / 2)
	return normalizeAngle(2 * math.Atan2(math.Sqrt(1-e)*sν2, math.Sqrt(1+e)*cν2))
}

// TrueFromHyperbolic returns the true anomaly in (-π, π).
func TrueFromHyperbolic(H, e float64) float64 {
	return 2 * math.Atan(math.Sqrt((e+1)/(e-1))*math.Tanh(H/2))
}

// HyperbolicFromTrue returns the hyperbolic anomaly. The true anomaly must lie within the asymptotes.
func HyperbolicFromTrue(ν, e float64) float64 {
	return 2 * math.Atanh(math.Sqrt((e-1)/(e+1))*math.Tan(wrapAngle(ν)/2))
}

// TrueFromMean returns the true anomaly for the given mean anomaly on any conic.
// Parabolic orbits (e == 1) use the parabolic mean anomaly of Barker's equation.
func TrueFromMean(M, e float64) (float64, error) {
	switch {
	case e < 1:
		E, err := EccentricAnomaly(M, e)
		if err != nil {
			return math.NaN(), err
		}
		return TrueFromEccentric(E, e), nil
	case e > 1:
		H, err := HyperbolicAnomaly(M, e)
		if err != nil {
			return math.NaN(), err
		}
		return normalizeAngle(TrueFromHyperbolic(H, e)), nil
	default:
		D, err := ParabolicAnomaly(M)
		if err != nil {
			return math.NaN(), err
		}
		return normalizeAngle(2 * math.Atan(D)), nil
	}
}

// MeanFromTrue returns the mean anomaly for the given true anomaly on any conic.
// Elliptic mean anomalies are in [0, 2π), the others are signed.
func MeanFromTrue(ν, e float64) float64 {
	switch {
	case e < 1:
		return MeanFromEccentric(EccentricFromTrue(ν, e), e)
	case e > 1:
		return MeanFromHyperbolic(HyperbolicFromTrue(ν, e), e)
	default:
		return MeanFromParabolic(math.Tan(wrapAngle(ν) / 2))
	}
}

// stumpff returns the c2 and c3 Stumpff functions of ψ.
func stumpff(ψ float64) (c2, c3 float64) {
	switch {
	case ψ > 1e-6:
		sψ := math.Sqrt(ψ)
		ssψ, csψ := math.Sincos(sψ)
		c2 = (1 - csψ) / ψ
		c3 = (sψ - ssψ) / (ψ * sψ)
	case ψ < -1e-6:
		sψ := math.Sqrt(-ψ)
		c2 = (1 - math.Cosh(sψ)) / ψ
		c3 = (math.Sinh(sψ) - sψ) / (-ψ * sψ)
	default:
		c2 = 1/2. - ψ/24 + ψ*ψ/720
		c3 = 1/6. - ψ/120 + ψ*ψ/5040
	}
	return
}

// KeplerUniversal solves the Kepler problem with the universal variable χ: it returns the position and
// velocity after Δt seconds of two-body motion from R, V. It is valid for every conic.
// From Vallado, algorithm 8.
func KeplerUniversal(R, V []float64, Δt, μ float64) (Rf, Vf []float64, err error) {
	r0 := Norm(R)
	v0 := Norm(V)
	if r0 < zeroε || !finite(R...) || !finite(V...) || !finite(Δt) {
		return nil, nil, errors.Wrapf(ErrSingularTrajectory, "cannot solve Kepler's problem from R=%v V=%v", R, V)
	}
	if Δt == 0 {
		return append([]float64(nil), R...), append([]float64(nil), V...), nil
	}
	sμ := math.Sqrt(μ)
	rv := Dot(R, V)
	α := -v0*v0/μ + 2/r0 // 1/a
	var χ float64
	switch {
	case α > 1e-6:
		// Ellipse: remove the full revolutions.
		period := 2 * math.Pi / (sμ * math.Pow(α, 1.5))
		Δt = math.Mod(Δt, period)
		χ = sμ * Δt * α
	case α < -1e-6:
		a := 1 / α
		arg := -2 * μ * α * Δt / (rv + Sign(Δt)*math.Sqrt(-μ*a)*(1-r0*α))
		if arg > 0 {
			χ = Sign(Δt) * math.Sqrt(-a) * math.Log(arg)
		} else {
			χ = sμ * Δt / r0
		}
	default:
		h := Norm(Cross(R, V))
		p := h * h / μ
		s := 0.5 * math.Atan(1/(3*math.Sqrt(μ/math.Pow(p, 3))*Δt))
		w := math.Atan(math.Cbrt(math.Tan(s)))
		χ = math.Sqrt(p) * 2 / math.Tan(2*w)
	}
	var c2, c3, ψ, r float64
	for iter := 0; ; iter++ {
		ψ = χ * χ * α
		c2, c3 = stumpff(ψ)
		r = χ*χ*c2 + rv/sμ*χ*(1-ψ*c3) + r0*(1-ψ*c2)
		Δχ := (sμ*Δt - math.Pow(χ, 3)*c3 - rv/sμ*χ*χ*c2 - r0*χ*(1-ψ*c3)) / r
		χ += Δχ
		if math.Abs(Δχ) < 1e-12*math.Max(1, math.Abs(χ)) {
			ψ = χ * χ * α
			c2, c3 = stumpff(ψ)
			r = χ*χ*c2 + rv/sμ*χ*(1-ψ*c3) + r0*(1-ψ*c2)
			break
		}
		if iter == keplerMaxIter || !finite(χ) {
			return nil, nil, errors.Wrapf(ErrConvergence, "universal variable after %d iterations (Δt=%f)", iter, Δt)
		}
	}
	if r < zeroε {
		return nil, nil, errors.Wrapf(ErrSingularTrajectory, "trajectory passes through the center (r=%e)", r)
	}
	f := 1 - χ*χ/r0*c2
	g := Δt - math.Pow(χ, 3)/sμ*c3
	gDot := 1 - χ*χ/r*c2
	fDot := sμ / (r * r0) * χ * (ψ*c3 - 1)
	Rf = make([]float64, 3)
	Vf = make([]float64, 3)
	for i := 0; i < 3; i++ {
		Rf[i] = f*R[i] + g*V[i]
		Vf[i] = fDot*R[i] + gDot*V[i]
	}
	return Rf, Vf, nil
}
