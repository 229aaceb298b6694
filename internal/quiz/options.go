package quiz

import "math/rand"

// Options builds the multiple-choice option set for one question: the
// correct answer plus distractors sampled from pool, shuffled so result
// order carries no signal about correctness.
//
// The option count is min(max, distinct(pool ∪ {correct})); a pool with
// fewer distinct answers than max simply yields fewer options, down to a
// single-option question.
func Options(correct string, pool []string, max int, rnd *rand.Rand) []string {
	if max < 1 {
		max = 1
	}

	distractors := make([]string, 0, len(pool))
	seen := map[string]struct{}{correct: {}}
	for _, answer := range pool {
		if _, ok := seen[answer]; ok {
			continue
		}
		seen[answer] = struct{}{}
		distractors = append(distractors, answer)
	}

	// Sampling without replacement from the distinct pool terminates
	// regardless of how few distinct answers exist.
	rnd.Shuffle(len(distractors), func(i, j int) {
		distractors[i], distractors[j] = distractors[j], distractors[i]
	})
	if len(distractors) > max-1 {
		distractors = distractors[:max-1]
	}

	options := append(distractors, correct)
	rnd.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}
