package sim

import (
	"math"
	"testing"
)

func testClothConfig() ClothConfig {
	cfg := DefaultClothConfig()
	cfg.StripWidth = 8
	cfg.SegmentLength = 1
	cfg.MaxActiveRows = 40
	cfg.FloorY = -40
	return cfg
}

// spawnChain builds an n-row strip hanging from the given anchors and lets it
// settle for the given number of 60 Hz frames.
func spawnChain(cfg ClothConfig, n int, left, right Vec3, settleFrames int) *StripSimulator {
	s := NewStripSimulator(cfg)
	for i := 0; i < n; i++ {
		s.SpawnRow(left, right)
	}
	for i := 0; i < settleFrames; i++ {
		s.Update(1.0/60, left, right, 0)
	}
	return s
}

func TestSpawnDespawnLifecycle(t *testing.T) {
	s := NewStripSimulator(testClothConfig())
	left := Vec3{X: -4}
	right := Vec3{X: 4}

	for i := 1; i <= 10; i++ {
		s.SpawnRow(left, right)
		if s.RowCount() != i {
			t.Fatalf("after %d spawns RowCount = %d", i, s.RowCount())
		}
	}
	for i := 9; i >= 1; i-- {
		s.DespawnRow()
		if s.RowCount() != i {
			t.Fatalf("expected RowCount %d after despawn, got %d", i, s.RowCount())
		}
	}

	// Despawn never drops the last row
	s.DespawnRow()
	if s.RowCount() != 1 {
		t.Errorf("despawn of last row should be a no-op, RowCount = %d", s.RowCount())
	}

	s.Reset()
	if s.RowCount() != 0 {
		t.Errorf("Reset should clear all rows, RowCount = %d", s.RowCount())
	}
	s.Reset()
	if s.RowCount() != 0 {
		t.Errorf("Reset must be idempotent, RowCount = %d", s.RowCount())
	}
}

func TestSpawnStopsAtCapacity(t *testing.T) {
	cfg := testClothConfig()
	cfg.MaxActiveRows = 5
	s := NewStripSimulator(cfg)
	for i := 0; i < 20; i++ {
		s.SpawnRow(Vec3{}, Vec3{X: 8})
	}
	if s.RowCount() != 5 {
		t.Errorf("RowCount = %d, want capacity 5", s.RowCount())
	}
}

func TestRollRowStaysPinned(t *testing.T) {
	left := Vec3{X: -4, Y: 2, Z: 3}
	right := Vec3{X: 4, Y: 2, Z: 3}
	s := spawnChain(testClothConfig(), 8, left, right, 120)

	pos := s.Positions()
	got := Vec3{X: pos[0], Y: pos[1], Z: pos[2]}
	if got.DistanceTo(left) > 1e-12 {
		t.Errorf("row 0 left drifted off anchor: %+v vs %+v", got, left)
	}
	got = Vec3{X: pos[3], Y: pos[4], Z: pos[5]}
	if got.DistanceTo(right) > 1e-12 {
		t.Errorf("row 0 right drifted off anchor: %+v vs %+v", got, right)
	}
}

func TestTipFallsUnderGravity(t *testing.T) {
	// 10 rows spawned at an anchor at the origin. After two simulated
	// seconds the free tip has fallen well below the anchor but never
	// through the floor.
	left := Vec3{X: -4}
	right := Vec3{X: 4}
	s := spawnChain(testClothConfig(), 10, left, right, 120)

	pos := s.Positions()
	tipY := pos[len(pos)-5] // left particle of the last row
	if tipY >= -1 {
		t.Errorf("tip did not fall: y = %.4f", tipY)
	}
	if tipY < s.Config().FloorY {
		t.Errorf("tip below floor: y = %.4f, floor %.4f", tipY, s.Config().FloorY)
	}
}

func TestFloorIsImpenetrable(t *testing.T) {
	cfg := testClothConfig()
	cfg.FloorY = -3 // shallow floor so the strip piles up on it
	s := spawnChain(cfg, 15, Vec3{X: -4}, Vec3{X: 4}, 300)

	pos := s.Positions()
	for i := 1; i < len(pos); i += 3 {
		if pos[i] < cfg.FloorY-1e-9 {
			t.Fatalf("particle below floor: y = %.6f, floor %.4f", pos[i], cfg.FloorY)
		}
	}
}

func TestStructuralConstraintsHoldAtRest(t *testing.T) {
	cfg := testClothConfig()
	s := spawnChain(cfg, 10, Vec3{X: -4}, Vec3{X: 4}, 600)

	pos := s.Positions()
	for i := 0; i+1 < s.RowCount(); i++ {
		aL := Vec3{X: pos[i*6], Y: pos[i*6+1], Z: pos[i*6+2]}
		bL := Vec3{X: pos[(i+1)*6], Y: pos[(i+1)*6+1], Z: pos[(i+1)*6+2]}
		d := aL.DistanceTo(bL)
		if math.Abs(d-cfg.SegmentLength) > 0.1*cfg.SegmentLength {
			t.Errorf("edge %d length %.4f, want %.4f within 10%%", i, d, cfg.SegmentLength)
		}
	}
}

func TestRungHoldsStripWidth(t *testing.T) {
	cfg := testClothConfig()
	s := spawnChain(cfg, 10, Vec3{X: -4}, Vec3{X: 4}, 600)

	pos := s.Positions()
	for i := 0; i < s.RowCount(); i++ {
		l := Vec3{X: pos[i*6], Y: pos[i*6+1], Z: pos[i*6+2]}
		r := Vec3{X: pos[i*6+3], Y: pos[i*6+4], Z: pos[i*6+5]}
		d := l.DistanceTo(r)
		if math.Abs(d-cfg.StripWidth) > 0.1*cfg.StripWidth {
			t.Errorf("rung %d width %.4f, want %.4f within 10%%", i, d, cfg.StripWidth)
		}
	}
}

func TestSpinPullFadesTowardTip(t *testing.T) {
	cfg := testClothConfig()
	s := NewStripSimulator(cfg)
	for i := 0; i < 6; i++ {
		s.SpawnRow(Vec3{Y: float64(-i)}, Vec3{X: 8, Y: float64(-i)})
	}

	before := make([]float64, s.RowCount())
	for i := range before {
		before[i] = s.rowAt(i).Left.Pos.Y
	}

	s.applySpinPull(5, 0.01)

	// Pinned row untouched, displacement strongest near the roll, zero at
	// the tip.
	if s.rowAt(0).Left.Pos.Y != before[0] {
		t.Error("spin-pull must not move the pinned row")
	}
	last := s.RowCount() - 1
	if s.rowAt(last).Left.Pos.Y != before[last] {
		t.Error("spin-pull must fade to zero at the tip")
	}
	d1 := before[1] - s.rowAt(1).Left.Pos.Y
	d2 := before[last-1] - s.rowAt(last-1).Left.Pos.Y
	if d1 <= 0 {
		t.Error("spin-pull should displace roll-adjacent rows downward")
	}
	if d2 >= d1 {
		t.Errorf("spin-pull should weaken toward the tip: near %.8f, far %.8f", d1, d2)
	}
}

func TestSpinPullThreshold(t *testing.T) {
	s := NewStripSimulator(testClothConfig())
	for i := 0; i < 4; i++ {
		s.SpawnRow(Vec3{Y: float64(-i)}, Vec3{X: 8, Y: float64(-i)})
	}
	before := s.rowAt(1).Left.Pos.Y
	s.applySpinPull(SpinPullThreshold/2, 0.01)
	if s.rowAt(1).Left.Pos.Y != before {
		t.Error("sub-threshold spin must not pull the strip")
	}
}

func TestUpdateIgnoresBadInput(t *testing.T) {
	left := Vec3{}
	right := Vec3{X: 8}
	s := spawnChain(testClothConfig(), 5, left, right, 60)

	snapshot := s.Positions()

	s.Update(0, left, right, 0)
	s.Update(-1, left, right, 0)
	s.Update(1.0/60, Vec3{Y: math.NaN()}, right, 0)
	s.Update(1.0/60, left, Vec3{Z: math.Inf(1)}, 0)

	pos := s.Positions()
	for i := range pos {
		if pos[i] != snapshot[i] {
			t.Fatalf("state changed under rejected input at float %d: %.6f vs %.6f", i, pos[i], snapshot[i])
		}
	}

	// Empty strip never panics
	empty := NewStripSimulator(testClothConfig())
	empty.Update(1.0/60, left, right, 3)
}

func TestCorruptParticleRecovers(t *testing.T) {
	left := Vec3{}
	right := Vec3{X: 8}
	s := spawnChain(testClothConfig(), 8, left, right, 60)

	s.rowAt(3).Left.Pos = Vec3{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
	for i := 0; i < 10; i++ {
		s.Update(1.0/60, left, right, 0)
	}

	for i, v := range s.Positions() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite value survived recovery at float %d: %v", i, v)
		}
	}
}

func TestLargeFrameDeltaIsClamped(t *testing.T) {
	// A 5 second hitch must not launch particles. With the step clamp the
	// strip behaves like one modest frame.
	left := Vec3{}
	right := Vec3{X: 8}
	s := spawnChain(testClothConfig(), 10, left, right, 60)

	s.Update(5.0, left, right, 0)

	pos := s.Positions()
	for i := 1; i < len(pos); i += 3 {
		if pos[i] < s.Config().FloorY-1e-9 {
			t.Fatalf("hitch frame pushed particle through floor: y = %.4f", pos[i])
		}
	}
	for i, v := range pos {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("hitch frame produced non-finite value at float %d", i)
		}
	}
}

func TestArcCoordinateStableAcrossRespawn(t *testing.T) {
	left := Vec3{}
	right := Vec3{X: 8}
	s := NewStripSimulator(testClothConfig())
	for i := 0; i < 5; i++ {
		s.SpawnRow(left, right)
	}
	original := s.UVs()

	// Re-roll two rows, then unroll them again
	s.DespawnRow()
	s.DespawnRow()
	s.SpawnRow(left, right)
	s.SpawnRow(left, right)

	after := s.UVs()
	if len(after) != len(original) {
		t.Fatalf("UV length changed: %d vs %d", len(after), len(original))
	}
	for i := range after {
		if after[i] != original[i] {
			t.Fatalf("UV drifted after respawn cycle at float %d: %.6f vs %.6f", i, after[i], original[i])
		}
	}
}

func TestMeshBufferShapes(t *testing.T) {
	s := NewStripSimulator(testClothConfig())

	if s.Indices() != nil {
		t.Error("empty strip should produce nil indices")
	}
	s.SpawnRow(Vec3{}, Vec3{X: 8})
	if s.Indices() != nil {
		t.Error("single row cannot form a quad, want nil indices")
	}

	for i := 0; i < 6; i++ {
		s.SpawnRow(Vec3{}, Vec3{X: 8})
	}
	rows := s.RowCount()

	if got := len(s.Positions()); got != rows*6 {
		t.Errorf("positions length = %d, want %d", got, rows*6)
	}
	if got := len(s.UVs()); got != rows*4 {
		t.Errorf("uvs length = %d, want %d", got, rows*4)
	}
	idx := s.Indices()
	if got := len(idx); got != (rows-1)*6 {
		t.Errorf("indices length = %d, want %d", got, (rows-1)*6)
	}
	maxVertex := uint32(rows*2 - 1)
	for i, v := range idx {
		if v > maxVertex {
			t.Fatalf("index %d out of range: %d > %d", i, v, maxVertex)
		}
	}
}

func TestUVLayout(t *testing.T) {
	cfg := testClothConfig()
	s := NewStripSimulator(cfg)
	for i := 0; i < 4; i++ {
		s.SpawnRow(Vec3{}, Vec3{X: 8})
	}

	uvs := s.UVs()
	// U alternates 0 (left) and 1 (right); both vertices of a row share V.
	for i := 0; i < s.RowCount(); i++ {
		if uvs[i*4] != 0 || uvs[i*4+2] != 1 {
			t.Errorf("row %d U coords = %.1f,%.1f, want 0,1", i, uvs[i*4], uvs[i*4+2])
		}
		if uvs[i*4+1] != uvs[i*4+3] {
			t.Errorf("row %d V mismatch: %.4f vs %.4f", i, uvs[i*4+1], uvs[i*4+3])
		}
	}
	// The tip row was spawned first and carries arc 0
	if got := uvs[len(uvs)-1]; got != 0 {
		t.Errorf("tip V = %.4f, want 0", got)
	}
	// V steps by segmentLength/stripWidth between adjacent rows
	step := cfg.SegmentLength / cfg.StripWidth
	for i := 0; i+1 < s.RowCount(); i++ {
		diff := uvs[i*4+1] - uvs[(i+1)*4+1]
		if math.Abs(diff-step) > 1e-12 {
			t.Errorf("V step between rows %d and %d = %.6f, want %.6f", i, i+1, diff, step)
		}
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []float64 {
		left := Vec3{Y: 1}
		right := Vec3{X: 8, Y: 1}
		s := NewStripSimulator(testClothConfig())
		for i := 0; i < 12; i++ {
			s.SpawnRow(left, right)
		}
		for f := 0; f < 200; f++ {
			spin := math.Sin(float64(f) / 10)
			s.Update(1.0/60, left, right, spin*3)
		}
		return s.Positions()
	}

	a := run()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replay diverged at float %d: %v vs %v", i, a[i], b[i])
		}
	}
}
