// Package trajectory owns the discontinuity analysis and correction of
// recorded 3D paths.
//
// Responsibilities: per-step displacement vectors, their magnitudes,
// threshold-based discontinuity detection, and rigid suffix translation
// that removes each detected jump.
// Key types: Sample, Trajectory, Result.
//
// Dependency rule: this package performs no I/O and no logging. Callers
// decide what to report. Every operation is deterministic and O(N) or
// O(N·K) for K discontinuities.
package trajectory
