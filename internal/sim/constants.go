package sim

import "math"

// Simulation tuning. Length units are centimeters; the defaults model a
// standard 80mm x 30m thermal receipt roll.

const (
	DefaultMaxLength      = 3000.0 // 30m of paper
	DefaultCoreRadius     = 0.65
	DefaultOuterRadius    = 4.0
	DefaultFriction       = 0.96 // per-tick coasting decay
	DefaultSensitivity    = 0.012
	DefaultPaperThickness = 0.0065

	DefaultStripWidth           = 8.0 // 80mm paper
	DefaultSegmentLength        = 1.0
	DefaultMaxActiveRows        = 120
	DefaultSubSteps             = 2
	DefaultConstraintIterations = 6
	DefaultGravity              = -981.0 // cm/s^2
	DefaultDamping              = 0.985
	DefaultBendStiffness        = 0.95
	DefaultFloorY               = -40.0
	DefaultFloorFriction        = 0.6
	DefaultSpinPull             = 2.0

	// Roll placement: the axis runs along X through this point, and paper
	// exits the surface at a fixed angular offset (front-lower quadrant).
	RollCenterY = 0.0
	RollCenterZ = 0.0
	ExitAngle   = -1.1 // radians in the YZ plane

	// Solver guards.
	MaxStepSeconds       = 1.0 / 20.0 // dt clamp against frame hitches
	VelocityEpsilon      = 0.0005     // rad/s below which coasting snaps to rest
	DistanceEpsilon      = 1e-9       // skip constraint correction below this
	SpinPullThreshold    = 0.05       // rad/s below which spin-pull is off
	ResetLengthThreshold = 0.5        // below this the strip is cleared

	// Release momentum: the last drag sample's instantaneous rate is scaled
	// by this before it becomes the coasting velocity.
	DragMomentumScale = 0.9
)

// RadPerTurn is here so callers reporting rotation in turns share one constant.
const RadPerTurn = 2 * math.Pi
