package shaper

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by shaper model functions.
var (
	ErrUnknownType     = errors.New("shaper: unknown shaper type")
	ErrInvalidFreq     = errors.New("shaper: frequency must be positive")
	ErrInvalidDamping  = errors.New("shaper: damping ratio must be in [0, 1)")
	ErrDampingTooLarge = errors.New("shaper: damping ratio exceeds family limit")
)

// Type identifies an input-shaper family.
//
// Declaration order doubles as the tie-break order when candidates score
// equally during optimization.
type Type int

const (
	TypeZV Type = iota
	TypeMZV
	TypeEI
	TypeTwoHumpEI
	TypeThreeHumpEI
)

// Types lists all supported families in declaration order.
var Types = []Type{TypeZV, TypeMZV, TypeEI, TypeTwoHumpEI, TypeThreeHumpEI}

// vibrationTolerance is the residual-vibration budget the EI family designs
// for (1/20 = 5% residual at the design point).
const vibrationTolerance = 1.0 / 20.0

// Metadata holds static properties of a shaper family.
type Metadata struct {
	Name         string  // configuration name, lower case
	Impulses     int     // impulse count of the train
	MinReduction float64 // guaranteed worst-case reduction at the design point, percent
	MaxDamping   float64 // largest damping ratio the closed form is valid for
}

var metadata = map[Type]Metadata{
	TypeZV:          {Name: "zv", Impulses: 2, MinReduction: 90, MaxDamping: 0.99},
	TypeMZV:         {Name: "mzv", Impulses: 3, MinReduction: 90, MaxDamping: 0.99},
	TypeEI:          {Name: "ei", Impulses: 3, MinReduction: 95, MaxDamping: 0.4},
	TypeTwoHumpEI:   {Name: "2hump_ei", Impulses: 4, MinReduction: 99, MaxDamping: 0.3},
	TypeThreeHumpEI: {Name: "3hump_ei", Impulses: 5, MinReduction: 99, MaxDamping: 0.2},
}

// Meta returns the static metadata for typ.
func Meta(typ Type) (Metadata, error) {
	m, ok := metadata[typ]
	if !ok {
		return Metadata{}, fmt.Errorf("%w: %d", ErrUnknownType, typ)
	}
	return m, nil
}

// String returns the configuration name of the family.
func (t Type) String() string {
	if m, ok := metadata[t]; ok {
		return m.Name
	}
	return fmt.Sprintf("shaper(%d)", int(t))
}

// ParseType resolves a configuration name back to a Type.
func ParseType(name string) (Type, error) {
	for typ, m := range metadata {
		if m.Name == name {
			return typ, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Train is a normalized impulse train: weights sum to 1, times start at 0
// and increase.
type Train struct {
	Amplitudes []float64
	Times      []float64
}

// Impulses returns the impulse train of the family at the given resonance
// frequency (Hz) and damping ratio.
//
// The returned weights are normalized to sum 1 so the train preserves the
// commanded end position.
func Impulses(typ Type, freq, damping float64) (Train, error) {
	if freq <= 0 {
		return Train{}, fmt.Errorf("%w: %g", ErrInvalidFreq, freq)
	}
	if damping < 0 || damping >= 1 {
		return Train{}, fmt.Errorf("%w: %g", ErrInvalidDamping, damping)
	}
	m, err := Meta(typ)
	if err != nil {
		return Train{}, err
	}
	if damping > m.MaxDamping {
		return Train{}, fmt.Errorf("%w: %g > %g for %s", ErrDampingTooLarge, damping, m.MaxDamping, m.Name)
	}

	var a, t []float64
	switch typ {
	case TypeZV:
		a, t = zvTrain(freq, damping)
	case TypeMZV:
		a, t = mzvTrain(freq, damping)
	case TypeEI:
		a, t = eiTrain(freq, damping)
	case TypeTwoHumpEI:
		a, t = expansionTrain(freq, damping, twoHumpTimes, twoHumpAmps)
	case TypeThreeHumpEI:
		a, t = expansionTrain(freq, damping, threeHumpTimes, threeHumpAmps)
	}

	normalize(a)
	return Train{Amplitudes: a, Times: t}, nil
}

// zvTrain implements the two-impulse Zero Vibration shaper:
//
//	K = exp(-ζπ/√(1-ζ²)),  t_d = 1/(f·√(1-ζ²))
//	A = [1, K],  T = [0, t_d/2]
func zvTrain(freq, damping float64) ([]float64, []float64) {
	df := math.Sqrt(1 - damping*damping)
	k := math.Exp(-damping * math.Pi / df)
	td := 1 / (freq * df)
	return []float64{1, k}, []float64{0, 0.5 * td}
}

// mzvTrain implements the three-impulse Modified Zero Vibration shaper.
func mzvTrain(freq, damping float64) ([]float64, []float64) {
	df := math.Sqrt(1 - damping*damping)
	k := math.Exp(-0.75 * damping * math.Pi / df)
	td := 1 / (freq * df)

	a1 := 1 - 1/math.Sqrt2
	a2 := (math.Sqrt2 - 1) * k
	a3 := a1 * k * k
	return []float64{a1, a2, a3}, []float64{0, 0.375 * td, 0.75 * td}
}

// eiTrain implements the three-impulse Extra Insensitive shaper designed for
// a residual-vibration budget of vibrationTolerance.
func eiTrain(freq, damping float64) ([]float64, []float64) {
	vTol := vibrationTolerance
	df := math.Sqrt(1 - damping*damping)
	td := 1 / (freq * df)
	dr := damping

	a1 := (0.24968 + 0.24961*vTol) + ((0.80008+1.23328*vTol)+
		(0.49599+3.17316*vTol)*dr)*dr
	a3 := (0.25149 + 0.21474*vTol) + ((-0.83249+1.41498*vTol)+
		(0.85181-4.90094*vTol)*dr)*dr
	a2 := 1 - a1 - a3

	t2 := 0.4999 + (((0.46159+8.57843*vTol)*vTol)+
		(((4.26169-108.644*vTol)*vTol)+
			((1.75601+336.989*vTol)*vTol)*dr)*dr)*dr

	return []float64{a1, a2, a3}, []float64{0, t2 * td, td}
}

// Damping-ratio expansion tables for the multi-hump EI shapers. Each row is
// the polynomial (in the damping ratio, lowest order first) for one impulse;
// times are in units of 1/f.
var twoHumpTimes = [][]float64{
	{0, 0, 0, 0},
	{0.49890, 0.16270, -0.54262, 6.16180},
	{0.99748, 0.18382, -1.58270, 8.17120},
	{1.49920, -0.09297, -0.28338, 1.85710},
}

var twoHumpAmps = [][]float64{
	{0.16054, 0.76699, 2.26560, -1.22750},
	{0.33911, 0.45081, -2.58080, 1.73650},
	{0.34089, -0.61533, -0.68765, 0.42261},
	{0.15997, -0.60246, 1.00280, -0.93145},
}

var threeHumpTimes = [][]float64{
	{0, 0, 0, 0},
	{0.49974, 0.23834, 0.44559, 12.4720},
	{0.99849, 0.29808, -2.36460, 23.3990},
	{1.49870, 0.10306, -2.01390, 17.0320},
	{1.99960, -0.28231, 0.61536, 5.40450},
}

var threeHumpAmps = [][]float64{
	{0.11275, 0.76632, 3.29160, -1.44380},
	{0.23698, 0.61164, -2.57850, 4.85220},
	{0.30008, -0.19062, -2.14560, 0.13744},
	{0.23775, -0.73297, 0.46885, -2.08650},
	{0.11244, -0.45439, 0.96382, -1.46000},
}

// expansionTrain evaluates polynomial expansion tables in the damping ratio
// using Horner's method and scales times by 1/f.
func expansionTrain(freq, damping float64, times, amps [][]float64) ([]float64, []float64) {
	tau := 1 / freq
	n := len(amps)
	k := len(amps[0])

	t := make([]float64, n)
	a := make([]float64, n)
	for i := 0; i < n; i++ {
		u := times[i][k-1]
		v := amps[i][k-1]
		for j := k - 2; j >= 0; j-- {
			u = u*damping + times[i][j]
			v = v*damping + amps[i][j]
		}
		t[i] = u * tau
		a[i] = v
	}
	return a, t
}

func normalize(a []float64) {
	sum := 0.0
	for _, v := range a {
		sum += v
	}
	if sum == 0 {
		return
	}
	inv := 1 / sum
	for i := range a {
		a[i] *= inv
	}
}

// Transfer returns the transfer magnitude |H(f)| of the train at excitation
// frequency f:
//
//	H(f) = Σ aᵢ · exp(-j·2πf·tᵢ)
//
// Weights are assumed normalized. The value is 1 at f=0 (no attenuation of
// the commanded move) and dips toward 0 near the tuned resonance.
func (tr Train) Transfer(f float64) float64 {
	omega := 2 * math.Pi * f
	var re, im float64
	for i, a := range tr.Amplitudes {
		phase := omega * tr.Times[i]
		re += a * math.Cos(phase)
		im += a * math.Sin(phase)
	}
	return math.Hypot(re, im)
}

// SmoothingTime returns the time span of the train in seconds. It is the
// duration over which the shaper spreads a commanded move.
func (tr Train) SmoothingTime() float64 {
	if len(tr.Times) == 0 {
		return 0
	}
	return tr.Times[len(tr.Times)-1] - tr.Times[0]
}

// referenceVelocity is the commanded velocity the acceleration limit is
// derived for, in mm/s.
const referenceVelocity = 500.0

// maxAccelCap is the limit reported for a degenerate zero-length train.
const maxAccelCap = 10000.0

// MaxAccel returns the largest commanded acceleration (mm/s²) that keeps the
// position error of a move within tolerance for the given smoothing time.
// Strictly decreasing in the smoothing time: longer shaping sequences
// tolerate less acceleration.
func MaxAccel(smoothingTime float64) float64 {
	if smoothingTime <= 0 {
		return maxAccelCap
	}
	return referenceVelocity / smoothingTime
}
