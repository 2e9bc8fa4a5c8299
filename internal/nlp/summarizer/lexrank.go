package summarizer

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nlpstudio/textlab/internal/nlp/pipeline"
)

const (
	// LexRankSentences is the fixed extract size of the LexRank strategy.
	LexRankSentences = 3

	// MaxLexRankSentences bounds the similarity graph, which grows with the
	// square of the sentence count.
	MaxLexRankSentences = 1000

	lexRankThreshold = 0.1
	damping          = 0.85
	maxIterations    = 100
	tolerance        = 1e-6
)

// LexRank returns the count most central sentences of text joined with
// single spaces. Texts longer than MaxLexRankSentences are rejected. Sentences are linked when the cosine similarity of their
// TF-IDF vectors reaches the threshold, and centrality is the stationary
// distribution of a damped random walk over those links.
func LexRank(p *pipeline.Pipeline, text string, count int) (string, error) {
	sentences := p.Sentences(text)
	if err := requireSentences(StrategyLexRank, sentences, count); err != nil {
		return "", err
	}
	if err := limitSentences(StrategyLexRank, sentences, MaxLexRankSentences); err != nil {
		return "", err
	}

	terms := make([][]string, len(sentences))
	for i, s := range sentences {
		terms[i] = sentenceTerms(p, s)
	}
	centrality := stationary(similarityGraph(tfidf(terms), lexRankThreshold))

	scores := make([]scored, len(sentences))
	for i, c := range centrality {
		scores[i] = scored{idx: i, score: c}
	}
	return joinSentences(sentences, pickTop(scores, count), " "), nil
}

// tfidf weights each sentence's terms by max-normalised term frequency and
// smoothed inverse sentence frequency.
func tfidf(terms [][]string) []map[string]float64 {
	df := make(map[string]int)
	for _, ts := range terms {
		seen := make(map[string]bool, len(ts))
		for _, t := range ts {
			if !seen[t] {
				df[t]++
				seen[t] = true
			}
		}
	}

	n := float64(len(terms))
	vectors := make([]map[string]float64, len(terms))
	for i, ts := range terms {
		tf := make(map[string]float64, len(ts))
		var top float64
		for _, t := range ts {
			tf[t]++
			top = max(top, tf[t])
		}
		vec := make(map[string]float64, len(tf))
		for t, c := range tf {
			vec[t] = (c / top) * math.Log(1+n/float64(df[t]))
		}
		vectors[i] = vec
	}
	return vectors
}

func cosine(a, b map[string]float64) float64 {
	var dot, na, nb float64
	for t, wa := range a {
		na += wa * wa
		if wb, ok := b[t]; ok {
			dot += wa * wb
		}
	}
	for _, wb := range b {
		nb += wb * wb
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// similarityGraph builds the row-stochastic transition matrix of the
// thresholded similarity graph. Every sentence links to itself, so no row
// is empty.
func similarityGraph(vectors []map[string]float64, threshold float64) *mat.Dense {
	n := len(vectors)
	graph := mat.NewDense(n, n, nil)
	for i := range n {
		graph.Set(i, i, 1)
		for j := i + 1; j < n; j++ {
			if cosine(vectors[i], vectors[j]) >= threshold {
				graph.Set(i, j, 1)
				graph.Set(j, i, 1)
			}
		}
	}
	for i := range n {
		degree := mat.Sum(graph.RowView(i))
		for j := range n {
			graph.Set(i, j, graph.At(i, j)/degree)
		}
	}
	return graph
}

// stationary runs damped power iteration over a transition matrix.
func stationary(transition *mat.Dense) []float64 {
	n, _ := transition.Dims()
	teleport := (1 - damping) / float64(n)

	rank := mat.NewVecDense(n, nil)
	for i := range n {
		rank.SetVec(i, 1/float64(n))
	}
	next := mat.NewVecDense(n, nil)
	delta := mat.NewVecDense(n, nil)
	for range maxIterations {
		next.MulVec(transition.T(), rank)
		for i := range n {
			next.SetVec(i, teleport+damping*next.AtVec(i))
		}
		delta.SubVec(next, rank)
		rank.CopyVec(next)
		if mat.Norm(delta, 2) < tolerance {
			break
		}
	}

	scores := make([]float64, n)
	for i := range n {
		scores[i] = rank.AtVec(i)
	}
	return scores
}
