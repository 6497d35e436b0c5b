package sim

import "math"

// RollConfig holds the immutable physical parameters of one roll of paper.
type RollConfig struct {
	MaxLength      float64 `json:"max_length"`
	CoreRadius     float64 `json:"core_radius"`
	OuterRadius    float64 `json:"outer_radius"`
	Friction       float64 `json:"friction"`
	Sensitivity    float64 `json:"sensitivity"`
	PaperThickness float64 `json:"paper_thickness"`
}

// DefaultRollConfig returns the stock 80mm receipt roll.
func DefaultRollConfig() RollConfig {
	return RollConfig{
		MaxLength:      DefaultMaxLength,
		CoreRadius:     DefaultCoreRadius,
		OuterRadius:    DefaultOuterRadius,
		Friction:       DefaultFriction,
		Sensitivity:    DefaultSensitivity,
		PaperThickness: DefaultPaperThickness,
	}
}

// Sanitize clamps a caller-supplied config to physically usable values.
// Invalid fields fall back to the defaults rather than erroring — the
// simulation contract is defensive clamping, not validation failures.
func (c RollConfig) Sanitize() RollConfig {
	d := DefaultRollConfig()
	if c.MaxLength <= 0 {
		c.MaxLength = d.MaxLength
	}
	if c.CoreRadius <= 0 {
		c.CoreRadius = d.CoreRadius
	}
	if c.OuterRadius <= c.CoreRadius {
		c.OuterRadius = c.CoreRadius * (d.OuterRadius / d.CoreRadius)
	}
	if c.Friction <= 0 || c.Friction >= 1 {
		c.Friction = d.Friction
	}
	if c.Sensitivity == 0 {
		c.Sensitivity = d.Sensitivity
	}
	if c.PaperThickness <= 0 {
		c.PaperThickness = d.PaperThickness
	}
	return c
}

// RollModel converts rotational input into unrolled length and the current
// roll radius. It runs in one of two implicit modes: dragging (externally
// driven by pointer samples) or coasting (friction decay).
type RollModel struct {
	cfg RollConfig

	AngularVelocity float64 // rad/s, signed
	TotalRotation   float64 // accumulated radians, never wraps
	UnrolledLength  float64 // invariant: 0 <= UnrolledLength <= cfg.MaxLength
	Dragging        bool
}

func NewRollModel(cfg RollConfig) *RollModel {
	return &RollModel{cfg: cfg.Sanitize()}
}

func (r *RollModel) Config() RollConfig {
	return r.cfg
}

// RadiusForLength derives the roll radius from remaining material area.
// Wound paper has cross-section area proportional to radius^2 minus the
// core, so interpolating area (not radius) keeps the shrink rate physical:
// each unrolled unit removes a thinner shell as the roll gets smaller.
func RadiusForLength(cfg RollConfig, unrolled float64) float64 {
	if cfg.MaxLength <= 0 {
		return cfg.OuterRadius
	}
	remaining := 1 - clamp(unrolled, 0, cfg.MaxLength)/cfg.MaxLength
	coreArea := math.Pi * cfg.CoreRadius * cfg.CoreRadius
	outerArea := math.Pi * cfg.OuterRadius * cfg.OuterRadius
	area := coreArea + (outerArea-coreArea)*remaining
	return math.Sqrt(area / math.Pi)
}

func (r *RollModel) CurrentRadius() float64 {
	return RadiusForLength(r.cfg, r.UnrolledLength)
}

// StartDrag enters dragging mode. Velocity is zeroed so leftover coasting
// momentum doesn't fight the incoming pointer samples.
func (r *RollModel) StartDrag() {
	r.Dragging = true
	r.AngularVelocity = 0
}

// EndDrag releases the roll into coasting with whatever velocity the last
// drag sample left behind.
func (r *RollModel) EndDrag() {
	r.Dragging = false
}

// ApplyDragSample converts one pointer-motion sample into rotation and
// unrolled length while dragging. The instantaneous rate is kept as the
// angular velocity so releasing mid-swipe carries momentum.
func (r *RollModel) ApplyDragSample(pixelDelta, dt float64) {
	if !r.Dragging {
		return
	}
	angularDelta := pixelDelta * r.cfg.Sensitivity
	if math.IsNaN(angularDelta) || math.IsInf(angularDelta, 0) {
		return
	}
	if dt > 0 {
		r.AngularVelocity = angularDelta / dt * DragMomentumScale
	}
	r.integrate(angularDelta)
}

// Tick advances coasting by one frame. Friction is applied once per tick,
// so the decay curve is frame-rate dependent; that is a deliberate choice
// (see DESIGN.md) matching the feel of per-frame decay in the client.
func (r *RollModel) Tick(dt float64) {
	if r.Dragging || r.AngularVelocity == 0 {
		return
	}
	r.AngularVelocity *= r.cfg.Friction
	if math.Abs(r.AngularVelocity) < VelocityEpsilon {
		r.AngularVelocity = 0
		return
	}
	if dt <= 0 {
		return
	}
	if dt > MaxStepSeconds {
		dt = MaxStepSeconds
	}
	r.integrate(r.AngularVelocity * dt)
}

// SetUnrolledLength overrides the length directly (manual numeric entry),
// clamped to bounds. Velocity is zeroed: a jump in length must not be
// followed by stale momentum.
func (r *RollModel) SetUnrolledLength(value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	r.UnrolledLength = clamp(value, 0, r.cfg.MaxLength)
	r.AngularVelocity = 0
}

// integrate applies a signed angular delta, advancing rotation and unrolled
// length by the arc-length relation at the current radius. Hitting either
// length boundary zeroes the velocity so it cannot accumulate past the
// physical limit.
func (r *RollModel) integrate(angularDelta float64) {
	if angularDelta == 0 {
		return
	}
	r.TotalRotation += angularDelta
	next := r.UnrolledLength + angularDelta*r.CurrentRadius()
	if next <= 0 {
		next = 0
		r.AngularVelocity = 0
	} else if next >= r.cfg.MaxLength {
		next = r.cfg.MaxLength
		r.AngularVelocity = 0
	}
	r.UnrolledLength = next
}

// ExitAnchor returns the left and right world-space ends of the line where
// paper leaves the roll. The roll axis runs along X through the fixed roll
// center; the exit sits at a constant angular offset on the surface, so the
// anchor stays flush as the radius shrinks.
func (r *RollModel) ExitAnchor(stripWidth float64) (Vec3, Vec3) {
	rad := r.CurrentRadius()
	y := RollCenterY + rad*math.Sin(ExitAngle)
	z := RollCenterZ + rad*math.Cos(ExitAngle)
	half := stripWidth / 2
	return Vec3{X: -half, Y: y, Z: z}, Vec3{X: half, Y: y, Z: z}
}
