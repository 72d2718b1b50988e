package goGuard

// UserRiskScore aggregates the user's recent verification history into
// a 0-100 risk figure. Higher means riskier.
func (e *Engine) UserRiskScore(userID string) int {
	return e.verifier.UserRiskScore(userID)
}

// VerificationHistory returns the user's retained verification events,
// newest first. A zero limit returns everything retained.
func (e *Engine) VerificationHistory(userID string, limit int) []VerificationEvent {
	return e.verifier.History(userID, limit)
}

// VerificationStats summarizes verification outcomes engine-wide.
type VerificationStats struct {
	Evaluations uint64
	Denied      uint64
	Reauths     uint64
}

// VerificationStats returns aggregate verification counters.
func (e *Engine) VerificationStats() VerificationStats {
	s := e.verifier.Stats()
	return VerificationStats{
		Evaluations: s.Evaluations,
		Denied:      s.Denied,
		Reauths:     s.Reauths,
	}
}
