package workflows

// Definitions returns both workflows
func Definitions() []Definition {
	return []Definition{MarketAnalysis(), MarketNews()}
}
