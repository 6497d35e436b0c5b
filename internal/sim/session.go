package sim

import (
	"math"
	"sync"
	"time"
)

// Session is one live simulation: a roll, its hanging strip, and the state
// needed to resume it. All mutable state sits behind mu; the websocket tick
// loop and message handlers both go through the exported methods.
type Session struct {
	ID        string
	Preset    string
	CreatedAt time.Time

	mu           sync.Mutex
	roll         *RollModel
	strip        *StripSimulator
	lastActivity time.Time
}

// Frame is the per-tick payload streamed to the renderer: the strip's
// render buffers plus the roll scalars the client needs to draw the
// cylinder itself.
type Frame struct {
	Positions []float64 `json:"positions"`
	UVs       []float64 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
	Rows      int       `json:"rows"`
	Radius    float64   `json:"radius"`
	Rotation  float64   `json:"rotation"`
	Length    float64   `json:"length"`
	Spin      float64   `json:"spin"`
	Dragging  bool      `json:"dragging"`
}

// Snapshot is the compact persisted view of a session, small enough to cache
// in Redis and hand back over REST.
type Snapshot struct {
	ID             string      `json:"id"`
	Preset         string      `json:"preset"`
	UnrolledLength float64     `json:"unrolled_length"`
	TotalRotation  float64     `json:"total_rotation"`
	Radius         float64     `json:"radius"`
	Rows           int         `json:"rows"`
	RollConfig     RollConfig  `json:"roll_config"`
	ClothConfig    ClothConfig `json:"cloth_config"`
	CreatedAt      time.Time   `json:"created_at"`
	LastActivity   time.Time   `json:"last_activity"`
}

func NewSession(id, preset string, rollCfg RollConfig, clothCfg ClothConfig) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Preset:       preset,
		CreatedAt:    now,
		roll:         NewRollModel(rollCfg),
		strip:        NewStripSimulator(clothCfg),
		lastActivity: now,
	}
}

// StartDrag enters dragging mode.
func (s *Session) StartDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll.StartDrag()
	s.lastActivity = time.Now()
}

// EndDrag releases into coasting.
func (s *Session) EndDrag() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll.EndDrag()
	s.lastActivity = time.Now()
}

// ApplyDrag feeds one pointer-motion sample into the roll.
func (s *Session) ApplyDrag(pixelDeltaY, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll.ApplyDragSample(pixelDeltaY, dt)
	s.lastActivity = time.Now()
}

// SetLength overrides the unrolled length directly (numeric entry in the UI).
func (s *Session) SetLength(value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll.SetUnrolledLength(value)
	s.lastActivity = time.Now()
}

// Reconfigure swaps both configs, rebuilding the simulation. The unrolled
// length carries over (clamped by the new roll); the strip restarts from the
// anchor and settles within a few frames.
func (s *Session) Reconfigure(rollCfg RollConfig, clothCfg ClothConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	length := s.roll.UnrolledLength
	s.roll = NewRollModel(rollCfg)
	s.roll.SetUnrolledLength(length)
	s.strip = NewStripSimulator(clothCfg)
	s.lastActivity = time.Now()
}

// Step advances the whole simulation by one frame and returns the render
// payload: roll tick, row reconciliation against the unrolled length, then
// the strip update anchored at the roll's exit line.
func (s *Session) Step(dt float64) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roll.Tick(dt)
	left, right := s.roll.ExitAnchor(s.strip.cfg.StripWidth)
	s.reconcileRows(left, right)
	s.strip.Update(dt, left, right, s.roll.AngularVelocity)

	return Frame{
		Positions: s.strip.Positions(),
		UVs:       s.strip.UVs(),
		Indices:   s.strip.Indices(),
		Rows:      s.strip.RowCount(),
		Radius:    s.roll.CurrentRadius(),
		Rotation:  s.roll.TotalRotation,
		Length:    s.roll.UnrolledLength,
		Spin:      s.roll.AngularVelocity,
		Dragging:  s.roll.Dragging,
	}
}

// reconcileRows grows or shrinks the strip so the simulated row count tracks
// the unrolled length: target = floor(length/segment)+1, at least 1, capped
// by the arena. Below the reset threshold the strip is cleared outright.
func (s *Session) reconcileRows(left, right Vec3) {
	length := s.roll.UnrolledLength
	if length < ResetLengthThreshold {
		s.strip.Reset()
		return
	}
	target := int(math.Floor(length/s.strip.cfg.SegmentLength)) + 1
	if target < 1 {
		target = 1
	}
	if target > s.strip.cfg.MaxActiveRows {
		target = s.strip.cfg.MaxActiveRows
	}
	for s.strip.RowCount() < target {
		before := s.strip.RowCount()
		s.strip.SpawnRow(left, right)
		if s.strip.RowCount() == before {
			break
		}
	}
	for s.strip.RowCount() > target && s.strip.RowCount() > 1 {
		s.strip.DespawnRow()
	}
}

// Snapshot returns the persisted view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:             s.ID,
		Preset:         s.Preset,
		UnrolledLength: s.roll.UnrolledLength,
		TotalRotation:  s.roll.TotalRotation,
		Radius:         s.roll.CurrentRadius(),
		Rows:           s.strip.RowCount(),
		RollConfig:     s.roll.Config(),
		ClothConfig:    s.strip.Config(),
		CreatedAt:      s.CreatedAt,
		LastActivity:   s.lastActivity,
	}
}

// Restore rebuilds session state from a snapshot (Redis rehydration after a
// server restart or manager eviction).
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roll = NewRollModel(snap.RollConfig)
	s.roll.SetUnrolledLength(snap.UnrolledLength)
	s.roll.TotalRotation = snap.TotalRotation
	s.strip = NewStripSimulator(snap.ClothConfig)
	s.lastActivity = time.Now()
}

// LastActivity reports when the session last received input or ticked with a
// client attached.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Touch bumps the activity clock (called while a client is attached).
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}
