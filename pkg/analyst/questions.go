package analyst

// quickQuestions are the curated starter questions surfaced by the
// dashboard and the MCP tool listing.
var quickQuestions = []string{
	"What are the top 10 most mentioned tickers in the last 30 days?",
	"Show me stocks that were only inferred, never explicitly mentioned",
	"What investment themes are trending this week?",
	"Which channels talk about crypto the most?",
	"What are the most recent mentions in the last 7 days?",
}

// QuickQuestions returns the curated starter questions in display order.
func QuickQuestions() []string {
	out := make([]string, len(quickQuestions))
	copy(out, quickQuestions)
	return out
}
