package kneserney

import (
	"math"

	"github.com/kiteco/speechlm/speech-go/lm/ngram"
	"github.com/kiteco/speechlm/speech-go/lm/vocab"
)

// log10SumExp receives a slice of base 10 log scores: log(a), log(b), log(c)...
// and returns log(a + b + c....)
func log10SumExp(logs []float64) float64 {
	if len(logs) == 0 {
		return math.Inf(-1)
	}
	max := logs[0]
	for _, l := range logs {
		if l > max {
			max = l
		}
	}
	var sum float64
	for _, l := range logs {
		sum += math.Pow(10, l-max)
	}
	return max + math.Log10(sum)
}

// sum sums all the entries in an input slice
func sum(slice []float64) float64 {
	var sum float64
	for _, value := range slice {
		sum += value
	}
	return sum
}

// Mass returns the total probability the model assigns to the words of a
// vocabulary of the given size after ctx. It is 1 for a normalized model.
func (m *Model) Mass(ctx ngram.Key, size int) float64 {
	logs := make([]float64, size)
	for w := 0; w < size; w++ {
		logs[w] = m.LogProb(ctx, vocab.ID(w))
	}
	return math.Pow(10, log10SumExp(logs))
}
