package ocarina

// Smoother is a critically damped follower. Each Step moves Value toward the
// target using a closed-form approximation of a critically damped spring, so
// it stays stable for any dt and never overshoots by more than a few
// thousandths of the jump.
type Smoother struct {
	Value    float64
	Velocity float64
}

// Step advances the smoother by dt seconds toward target with the given
// smoothing time (roughly the time to cover most of the distance).
func (s *Smoother) Step(target, smoothTime, dt float64) float64 {
	if smoothTime < 1e-5 {
		smoothTime = 1e-5
	}
	if dt <= 0 {
		return s.Value
	}
	omega := 2.0 / smoothTime
	x := omega * dt
	decay := 1.0 / (1.0 + x + 0.48*x*x + 0.235*x*x*x)

	change := s.Value - target
	temp := (s.Velocity + omega*change) * dt
	s.Velocity = (s.Velocity - omega*temp) * decay
	s.Value = target + (change+temp)*decay

	if !isFinite64(s.Value) || !isFinite64(s.Velocity) {
		s.Value = target
		s.Velocity = 0
	}
	return s.Value
}

// Snap jumps straight to v with zero velocity.
func (s *Smoother) Snap(v float64) {
	s.Value = v
	s.Velocity = 0
}
