package dataset

import "math/rand"

// Shuffler randomly relabels the options of a question while keeping the
// answer pointing at the originally correct text. Deterministic given the
// same random source and input.
type Shuffler struct {
	rng *rand.Rand
}

// NewShuffler creates a Shuffler backed by the given random source.
func NewShuffler(rng *rand.Rand) *Shuffler {
	return &Shuffler{rng: rng}
}

// Shuffle returns a new question with the option texts uniformly permuted
// and the answer label recomputed. A question with no options is returned
// unchanged. When two options carry identical text, the first match in the
// permuted order is treated as the correct one.
func (s *Shuffler) Shuffle(q Question) Question {
	texts := make([]string, 0, len(OptionLabels))
	for _, label := range OptionLabels {
		if text, ok := q.OptionText(label); ok {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return q
	}

	correctText, _ := q.OptionText(q.Answer)

	s.rng.Shuffle(len(texts), func(i, j int) {
		texts[i], texts[j] = texts[j], texts[i]
	})

	out := Question{
		Question: q.Question,
		Options:  make(map[string]string, len(texts)),
	}
	for i, text := range texts {
		label := OptionLabels[i]
		out.Options[label] = text
		if out.Answer == "" && text == correctText {
			out.Answer = label
		}
	}
	return out
}
