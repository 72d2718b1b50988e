// Package verify implements the continuous-verification layer: a
// heuristic trust score per request, clamped to 0-100, gating
// high-impact actions behind step-up authentication or denial.
package verify
