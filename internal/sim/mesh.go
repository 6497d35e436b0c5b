package sim

// Render-ready buffers for the strip mesh. The renderer on the client side
// consumes these directly; the layout is two vertices per row (left then
// right), roll end first, tip last.

// Positions returns flattened x/y/z triplets, 6 floats per row.
func (s *StripSimulator) Positions() []float64 {
	out := make([]float64, 0, s.count*6)
	for i := 0; i < s.count; i++ {
		r := s.rowAt(i)
		out = append(out,
			r.Left.Pos.X, r.Left.Pos.Y, r.Left.Pos.Z,
			r.Right.Pos.X, r.Right.Pos.Y, r.Right.Pos.Z,
		)
	}
	return out
}

// UVs returns flattened u/v pairs, 4 floats per row. U is 0 on the left edge
// and 1 on the right; V is the row's material arc coordinate scaled by the
// strip width, so printed texture stays glued to the paper while rows spawn
// and despawn at the roll end.
func (s *StripSimulator) UVs() []float64 {
	out := make([]float64, 0, s.count*4)
	scale := 1.0
	if s.cfg.StripWidth > 0 {
		scale = 1 / s.cfg.StripWidth
	}
	for i := 0; i < s.count; i++ {
		v := s.rowAt(i).Arc * scale
		out = append(out, 0, v, 1, v)
	}
	return out
}

// Indices returns triangle indices joining each consecutive row pair with
// two triangles, wound consistently.
func (s *StripSimulator) Indices() []uint32 {
	if s.count < 2 {
		return nil
	}
	out := make([]uint32, 0, (s.count-1)*6)
	for i := 0; i < s.count-1; i++ {
		a := uint32(i * 2) // left, row i
		b := a + 1         // right, row i
		c := a + 2         // left, row i+1
		d := a + 3         // right, row i+1
		out = append(out, a, b, c, b, d, c)
	}
	return out
}
