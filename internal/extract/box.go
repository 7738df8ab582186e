package extract

// boxPatterns match LaTeX \box{X} / \boxed{X} forms with one or two
// leading backslashes.
var boxPatterns = []string{
	`\\{1,2}box{([A-D])}`,
	`\\{1,2}boxed{([A-D])}`,
}

// NewBoxStrategy returns the LaTeX boxed-answer strategy.
func NewBoxStrategy() Strategy {
	return mustRegexStrategy("box", boxPatterns)
}
