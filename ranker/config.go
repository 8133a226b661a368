package ranker

import (
	"github.com/hashicorp/go-multierror"
	"github.com/juju/clock"
	"golang.org/x/xerrors"
)

// Norm selects how the difference between two successive score vectors is
// measured when checking for convergence.
type Norm int

const (
	// L1 sums the absolute per-vertex differences.
	L1 Norm = iota
	// Max takes the largest absolute per-vertex difference.
	Max
)

func (n Norm) String() string {
	switch n {
	case L1:
		return "l1"
	case Max:
		return "max"
	default:
		return "unknown"
	}
}

// ParseNorm maps a norm name to its Norm value.
func ParseNorm(name string) (Norm, error) {
	switch name {
	case "", "l1":
		return L1, nil
	case "max":
		return Max, nil
	}
	return L1, xerrors.Errorf("unknown convergence norm %q", name)
}

const (
	DefaultDampingFactor = 0.85
	DefaultTolerance     = 1e-10
	DefaultMaxIterations = 1000
)

// Config encapsulates the parameters for creating a new Ranker.
type Config struct {
	// DampingFactor is the probability that the random surfer follows one
	// of the outgoing citations instead of jumping to a random paper.
	//
	// If not specified, DefaultDampingFactor is used.
	DampingFactor float64

	// Tolerance is the convergence threshold: ranking stops once the
	// difference between successive score vectors, measured with Norm,
	// is not larger than Tolerance.
	//
	// If not specified, DefaultTolerance is used.
	Tolerance float64

	// Norm used for the convergence check. Defaults to L1.
	Norm Norm

	// MaxIterations caps the number of iterations. Reaching the cap
	// without meeting Tolerance yields a result flagged as not converged.
	//
	// If not specified, DefaultMaxIterations is used.
	MaxIterations int

	// FixedIterations, when positive, runs exactly that many iterations
	// and ignores Tolerance for stopping.
	FixedIterations int

	// The number of workers computing vertex scores. Defaults to 1.
	ComputeWorkers int

	// Clock used for timing runs. Defaults to the wall clock.
	Clock clock.Clock
}

// validate checks whether the configuration is valid and sets the default
// values where required.
func (c *Config) validate() error {
	var err error
	if c.DampingFactor < 0 || c.DampingFactor > 1.0 {
		err = multierror.Append(err, xerrors.New("DampingFactor must be in the range (0, 1]"))
	} else if c.DampingFactor == 0 {
		c.DampingFactor = DefaultDampingFactor
	}

	if c.Tolerance < 0 || c.Tolerance >= 1.0 {
		err = multierror.Append(err, xerrors.New("Tolerance must be in the range (0, 1)"))
	} else if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}

	if c.Norm != L1 && c.Norm != Max {
		err = multierror.Append(err, xerrors.Errorf("unsupported convergence norm %d", c.Norm))
	}

	if c.MaxIterations < 0 {
		err = multierror.Append(err, xerrors.New("MaxIterations must not be negative"))
	} else if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}

	if c.FixedIterations < 0 {
		err = multierror.Append(err, xerrors.New("FixedIterations must not be negative"))
	}

	if c.ComputeWorkers <= 0 {
		c.ComputeWorkers = 1
	}

	if c.Clock == nil {
		c.Clock = clock.WallClock
	}

	return err
}
