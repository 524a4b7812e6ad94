// Package dynamo provides core simulation primitives for compartmental models.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector of compartment sizes
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: numerical stepper interface
//   - [Simulator]: integrates a system over a dense output grid
//
// # Example
//
//	sys := models.NewSEIR()
//	s := dynamo.New(sys, integrators.NewRK4())
//	cfg := dynamo.DefaultConfig()
//	cfg.Duration, cfg.Points = 160, 160
//	result, err := s.Run(ctx, sys.DefaultState(), cfg)
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe; integrators keep scratch buffers.
// Build one simulator per goroutine, or fan work out with [ParallelFor].
package dynamo
