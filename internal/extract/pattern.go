package extract

// patternList covers the common English, Traditional and Simplified Chinese
// phrasings of a final answer. Order matters: anchored and specific forms
// come first, the bare-letter catch-alls last, so a generic pattern cannot
// shadow a specific one.
var patternList = []string{
	`correct answer is:\n\n\n([A-D]).`,
	`correct answer is:\n\n([A-D]).`,
	`correct answer is:\n([A-D]).`,
	`正確的答案應該是:.*?\b([A-D])\b`,
	`正确的答案应该是:.*?\b([A-D])\b`,
	`正確的選項應為:.*?\b([A-D])\b`,
	`正确的选项应为:.*?\b([A-D])\b`,
	`正確的答案是（([A-D])）`,
	`正确的答案是（([A-D])）`,
	`答案應該是:\s?選?項?\s?([A-D])`,
	`答案应该是:\s?选?项?\s?([A-D])`,
	`答案是:\s?選?項?\s?([A-D])`,
	`答案是:\s?选?项?\s?([A-D])`,
	`答案應為:\s?選?項?\s?([A-D])`,
	`答案应为:\s?选?项?\s?([A-D])`,
	`答案為:\s?([A-D])`,
	`答案应为：\s?([A-D])`,
	`答案為：\s?([A-D])`,
	`答案應該是:\s?([A-D])`,
	`正確答案為 \*\*([A-D])`,
	`正確答案為\(([A-D])\)`,
	`答案應為:\s?([A-D])`,
	`答案应为:\s?([A-D])`,
	`答案是 \*\*([A-D])`,
	`答案 ([A-D]) 正確`,
	`選項 ([A-D]) 正確`,
	`所以答案為([A-D])`,
	`答案：\(([A-D])\)`,
	`答案:\s?([A-D])`,
	`答案：\s?([A-D])`,
	`答案: ([A-D]) `,
	`答案([A-D]) `,
	`^選項([A-D])`,
	`^选项([A-D])`,
	`^選([A-D])`,
	`^选([A-D])`,
	`([A-D]). `,
	`([A-D]).`,
}

// NewPatternStrategy returns the default multi-lingual pattern strategy.
func NewPatternStrategy() Strategy {
	return mustRegexStrategy("pattern", patternList)
}
