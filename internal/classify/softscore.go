package classify

var softScores = [...]float64{1.0, 0.8, 0.6, 0.4, 0.2}

const minTrainingWeight = 0.1

// SoftScore measures how close pred is to truth on the ordered intensity
// scale: 1.0 for an exact match, falling by 0.2 per step, 0 from five steps.
func SoftScore(truth, pred int) float64 {
	d := pred - truth
	if d < 0 {
		d = -d
	}
	if d >= len(softScores) {
		return 0
	}
	return softScores[d]
}

// SoftAccuracy returns the mean soft score over aligned truth and pred slices.
func SoftAccuracy(truth, pred []int) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	var sum float64
	for i := range truth {
		sum += SoftScore(truth[i], pred[i])
	}
	return sum / float64(len(truth))
}

// TrainingWeight weights an example by how badly the prototype stage missed
// it, with a floor of 0.1.
func TrainingWeight(truth, prototypePred int) float64 {
	return max(1.0-SoftScore(truth, prototypePred)+0.1, minTrainingWeight)
}

// TrainingWeights computes TrainingWeight for aligned slices.
func TrainingWeights(truth, prototypePred []int) []float64 {
	out := make([]float64, len(truth))
	for i := range truth {
		out[i] = TrainingWeight(truth[i], prototypePred[i])
	}
	return out
}
