package reputation

// Label maps a trust score to its qualitative band. A nil score means the
// seller has never been verified.
func Label(score *float64) string {
	switch {
	case score == nil:
		return "New Seller"
	case *score >= 90:
		return "Excellent"
	case *score >= 80:
		return "Very Good"
	case *score >= 70:
		return "Good"
	case *score >= 60:
		return "Fair"
	default:
		return "Poor"
	}
}
