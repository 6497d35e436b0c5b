package sim

import "math"

// ClothConfig holds tuning for the hanging-strip solver.
type ClothConfig struct {
	StripWidth           float64 `json:"strip_width"`
	SegmentLength        float64 `json:"segment_length"`
	MaxActiveRows        int     `json:"max_active_rows"`
	SubSteps             int     `json:"sub_steps"`
	ConstraintIterations int     `json:"constraint_iterations"`
	Gravity              float64 `json:"gravity"`
	Damping              float64 `json:"damping"`
	BendStiffness        float64 `json:"bend_stiffness"`
	FloorY               float64 `json:"floor_y"`
	FloorFriction        float64 `json:"floor_friction"`
	SpinPull             float64 `json:"spin_pull"`
}

// DefaultClothConfig returns the stock strip tuning.
func DefaultClothConfig() ClothConfig {
	return ClothConfig{
		StripWidth:           DefaultStripWidth,
		SegmentLength:        DefaultSegmentLength,
		MaxActiveRows:        DefaultMaxActiveRows,
		SubSteps:             DefaultSubSteps,
		ConstraintIterations: DefaultConstraintIterations,
		Gravity:              DefaultGravity,
		Damping:              DefaultDamping,
		BendStiffness:        DefaultBendStiffness,
		FloorY:               DefaultFloorY,
		FloorFriction:        DefaultFloorFriction,
		SpinPull:             DefaultSpinPull,
	}
}

// Sanitize clamps a caller-supplied config to usable values, falling back to
// defaults where a field is unusable.
func (c ClothConfig) Sanitize() ClothConfig {
	d := DefaultClothConfig()
	if c.StripWidth <= 0 {
		c.StripWidth = d.StripWidth
	}
	if c.SegmentLength <= 0 {
		c.SegmentLength = d.SegmentLength
	}
	if c.MaxActiveRows < 2 {
		c.MaxActiveRows = d.MaxActiveRows
	}
	if c.SubSteps < 1 {
		c.SubSteps = d.SubSteps
	}
	if c.ConstraintIterations < 1 {
		c.ConstraintIterations = d.ConstraintIterations
	}
	if c.Damping <= 0 || c.Damping > 1 {
		c.Damping = d.Damping
	}
	if c.BendStiffness <= 0 {
		c.BendStiffness = d.BendStiffness
	}
	if c.FloorFriction < 0 || c.FloorFriction > 1 {
		c.FloorFriction = d.FloorFriction
	}
	if c.SpinPull < 0 {
		c.SpinPull = d.SpinPull
	}
	if c.Gravity == 0 {
		c.Gravity = d.Gravity
	}
	return c
}

// particle is one simulated point. There is no velocity field: velocity is
// implicit in the Verlet scheme as Pos - Prev.
type particle struct {
	Pos  Vec3
	Prev Vec3
}

// stripRow is one cross-rung of the strip: the left and right edge particles
// plus the material arc coordinate assigned at spawn (drives texture V).
type stripRow struct {
	Left  particle
	Right particle
	Arc   float64
}

// StripSimulator models the unrolled strip as two Verlet particle chains
// (left and right paper edges) joined by cross-rungs, with structural,
// rung and bending distance constraints plus floor collision.
//
// Rows live in a fixed arena addressed as a ring buffer: logical row 0 (the
// row pinned at the roll) maps to head and the free tip to head+count-1, so
// spawning and despawning at the roll end never allocates in the hot path.
type StripSimulator struct {
	cfg ClothConfig

	rows  []stripRow
	head  int
	count int

	// nextArc is the material coordinate the next spawned row receives.
	// Despawning hands its segment back, so a row's V coordinate is stable
	// across re-roll/unroll cycles.
	nextArc float64
}

func NewStripSimulator(cfg ClothConfig) *StripSimulator {
	cfg = cfg.Sanitize()
	return &StripSimulator{
		cfg:  cfg,
		rows: make([]stripRow, cfg.MaxActiveRows),
	}
}

func (s *StripSimulator) Config() ClothConfig {
	return s.cfg
}

func (s *StripSimulator) RowCount() int {
	return s.count
}

// rowAt maps a logical row index (0 = pinned at the roll) to arena storage.
func (s *StripSimulator) rowAt(i int) *stripRow {
	return &s.rows[(s.head+i)%len(s.rows)]
}

// SpawnRow prepends a new particle pair at the roll end, initialized at the
// anchor with zero implicit velocity. Silently ignored at capacity.
func (s *StripSimulator) SpawnRow(exitLeft, exitRight Vec3) {
	if s.count >= len(s.rows) {
		return
	}
	s.head = (s.head - 1 + len(s.rows)) % len(s.rows)
	s.rows[s.head] = stripRow{
		Left:  particle{Pos: exitLeft, Prev: exitLeft},
		Right: particle{Pos: exitRight, Prev: exitRight},
		Arc:   s.nextArc,
	}
	s.nextArc += s.cfg.SegmentLength
	s.count++
}

// DespawnRow removes the roll-adjacent row. The strip never shrinks below a
// single row except through Reset.
func (s *StripSimulator) DespawnRow() {
	if s.count <= 1 {
		return
	}
	s.head = (s.head + 1) % len(s.rows)
	s.count--
	s.nextArc -= s.cfg.SegmentLength
}

// Reset clears all rows. Idempotent.
func (s *StripSimulator) Reset() {
	s.head = 0
	s.count = 0
	s.nextArc = 0
}

// Update advances the strip by one frame. dt is clamped against frame
// hitches and subdivided into sub-steps; each sub-step pins row 0 to the
// live anchor, integrates, applies spin-pull, then relaxes constraints and
// floor collision. spinRate is the roll's current angular velocity.
func (s *StripSimulator) Update(dt float64, exitLeft, exitRight Vec3, spinRate float64) {
	if s.count == 0 || dt <= 0 {
		return
	}
	if dt > MaxStepSeconds {
		dt = MaxStepSeconds
	}
	if !exitLeft.IsFinite() || !exitRight.IsFinite() {
		return
	}

	sub := dt / float64(s.cfg.SubSteps)
	for step := 0; step < s.cfg.SubSteps; step++ {
		s.pinAnchor(exitLeft, exitRight)
		s.integrate(sub)
		s.applySpinPull(spinRate, sub)
		for it := 0; it < s.cfg.ConstraintIterations; it++ {
			s.solveConstraints()
			s.collideFloor()
		}
		s.clampFloor()
	}
}

// pinAnchor hard-sets row 0 to the anchor, current and previous both, so the
// pin introduces no spurious implicit velocity.
func (s *StripSimulator) pinAnchor(exitLeft, exitRight Vec3) {
	r := s.rowAt(0)
	r.Left = particle{Pos: exitLeft, Prev: exitLeft}
	r.Right = particle{Pos: exitRight, Prev: exitRight}
	// Arc is preserved; only positions are driven.
}

// integrate runs the Verlet step on every non-pinned particle: damped
// implicit velocity plus gravity on Y.
func (s *StripSimulator) integrate(dt float64) {
	g := s.cfg.Gravity * dt * dt
	for i := 1; i < s.count; i++ {
		r := s.rowAt(i)
		integrateParticle(&r.Left, s.cfg.Damping, g)
		integrateParticle(&r.Right, s.cfg.Damping, g)
	}
}

func integrateParticle(p *particle, damping, gravityStep float64) {
	vel := p.Pos.Minus(p.Prev).Times(damping)
	next := p.Pos.Plus(vel)
	next.Y += gravityStep
	if !next.IsFinite() {
		// Degenerate state (near-zero constraint edges can blow up).
		// Hold the particle at its last valid position instead of letting
		// NaNs spread through the chain.
		p.Pos = p.Prev
		return
	}
	p.Prev = p.Pos
	p.Pos = next
}

// applySpinPull adds extra downward displacement when the roll spins hard,
// strongest at the roll end and fading linearly to zero at the tip. Without
// it, freshly spawned rows lag behind a fast-moving anchor and the strip
// goes slack instead of staying taut.
func (s *StripSimulator) applySpinPull(spinRate, dt float64) {
	rate := math.Abs(spinRate)
	if rate < SpinPullThreshold || s.count < 2 {
		return
	}
	pull := rate * s.cfg.SpinPull * dt * dt
	n := float64(s.count - 1)
	for i := 1; i < s.count; i++ {
		f := 1 - float64(i)/n
		if f <= 0 {
			continue
		}
		r := s.rowAt(i)
		r.Left.Pos.Y -= pull * f
		r.Right.Pos.Y -= pull * f
	}
}

// solveConstraints runs one relaxation pass: rung constraints across the
// strip width, structural constraints between adjacent rows and bending
// (skip-one) constraints along each edge chain.
func (s *StripSimulator) solveConstraints() {
	seg := s.cfg.SegmentLength
	bendRest := 2 * seg * s.cfg.BendStiffness
	for i := 0; i < s.count; i++ {
		r := s.rowAt(i)
		if i > 0 {
			// Row 0's rung joins two pinned particles; nothing to move.
			solveDistance(&r.Left, &r.Right, s.cfg.StripWidth, false)
		}
		if i+1 < s.count {
			next := s.rowAt(i + 1)
			solveDistance(&r.Left, &next.Left, seg, i == 0)
			solveDistance(&r.Right, &next.Right, seg, i == 0)
		}
		if i+2 < s.count {
			far := s.rowAt(i + 2)
			solveDistance(&r.Left, &far.Left, bendRest, i == 0)
			solveDistance(&r.Right, &far.Right, bendRest, i == 0)
		}
	}
}

// solveDistance projects two particles toward rest distance. Each side moves
// halfway, unless a is pinned, in which case b absorbs the full correction.
// Corrections are skipped on degenerate (near-zero) edges.
func solveDistance(a, b *particle, rest float64, aPinned bool) {
	delta := b.Pos.Minus(a.Pos)
	d := delta.Magnitude()
	if d < DistanceEpsilon {
		return
	}
	diff := (d - rest) / d
	if aPinned {
		b.Pos = b.Pos.Minus(delta.Times(diff))
		return
	}
	half := delta.Times(0.5 * diff)
	a.Pos = a.Pos.Plus(half)
	b.Pos = b.Pos.Minus(half)
}

// collideFloor clamps particles to the floor plane and applies friction by
// pulling the previous position's horizontal components toward the current
// ones, damping the implicit sliding velocity.
func (s *StripSimulator) collideFloor() {
	for i := 1; i < s.count; i++ {
		r := s.rowAt(i)
		floorParticle(&r.Left, s.cfg.FloorY, s.cfg.FloorFriction)
		floorParticle(&r.Right, s.cfg.FloorY, s.cfg.FloorFriction)
	}
}

func floorParticle(p *particle, floorY, friction float64) {
	if p.Pos.Y >= floorY {
		return
	}
	p.Pos.Y = floorY
	p.Prev.X += (p.Pos.X - p.Prev.X) * friction
	p.Prev.Z += (p.Pos.Z - p.Prev.Z) * friction
}

// clampFloor is the final guarantee that no particle ends the sub-step below
// the floor, whatever the constraint passes did.
func (s *StripSimulator) clampFloor() {
	for i := 1; i < s.count; i++ {
		r := s.rowAt(i)
		if r.Left.Pos.Y < s.cfg.FloorY {
			r.Left.Pos.Y = s.cfg.FloorY
		}
		if r.Right.Pos.Y < s.cfg.FloorY {
			r.Right.Pos.Y = s.cfg.FloorY
		}
	}
}
