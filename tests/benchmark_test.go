package tests

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/steosofficial/koreanmorphy/analyzer"
)

var (
	sentencesOnce  sync.Once
	sentencesCache []string
	// Keeps the compiler from dropping the analysis calls.
	benchmarkResult interface{}
)

var benchmarkWords = []string{
	"그사람은", "하늘", "학교에", "도와서", "갔다", "나무", "위키", "사람이",
	"2024", "wiki", "abc123", "漢字", "하늘.", "★",
}

// loadSentences builds a fixed, seeded set of sentences over the test model
// vocabulary.
func loadSentences(limit int) []string {
	sentencesOnce.Do(func() {
		rnd := rand.New(rand.NewSource(42))
		sentencesCache = make([]string, 10_000)
		for i := range sentencesCache {
			n := 1 + rnd.Intn(8)
			words := make([]string, n)
			for j := range words {
				words[j] = benchmarkWords[rnd.Intn(len(benchmarkWords))]
			}
			sentencesCache[i] = strings.Join(words, " ")
		}
	})
	return sentencesCache[:min(limit, len(sentencesCache))]
}

func reportRate(b *testing.B, name string, count int, elapsed time.Duration) {
	total := count * b.N
	if total == 0 {
		return
	}
	avg := elapsed / time.Duration(total)
	b.Logf("\n\t--- %s (%d sentences) ---\n"+
		"\tTotal:            %s\n"+
		"\tPer sentence:     %s\n"+
		"\tSentences/second: %.0f\n",
		name, count,
		elapsed.Round(time.Millisecond),
		avg,
		float64(time.Second)/float64(avg),
	)
}

// BenchmarkAnalyzeSequential measures Analyze one sentence at a time.
func BenchmarkAnalyzeSequential(b *testing.B) {
	for _, count := range []int{1_000, 10_000} {
		b.Run(fmt.Sprintf("%d_sentences", count), func(b *testing.B) {
			sentences := loadSentences(count)
			b.ReportAllocs()
			b.ResetTimer()
			startTime := time.Now()

			for i := 0; i < b.N; i++ {
				for _, s := range sentences {
					benchmarkResult, _ = komoran.Analyze(s)
				}
			}

			b.StopTimer()
			reportRate(b, "Analyze", len(sentences), time.Since(startTime))
		})
	}
}

// BenchmarkAnalyzeWithSpacing measures the single lattice sentence mode.
func BenchmarkAnalyzeWithSpacing(b *testing.B) {
	sentences := loadSentences(10_000)
	b.ReportAllocs()
	b.ResetTimer()
	startTime := time.Now()

	for i := 0; i < b.N; i++ {
		for _, s := range sentences {
			benchmarkResult = komoran.AnalyzeWithSpacing(s)
		}
	}

	b.StopTimer()
	reportRate(b, "AnalyzeWithSpacing", len(sentences), time.Since(startTime))
}

// BenchmarkAnalyzeList measures batch analysis over all CPUs.
func BenchmarkAnalyzeList(b *testing.B) {
	sentences := loadSentences(10_000)
	b.ReportAllocs()
	b.ResetTimer()
	startTime := time.Now()

	var results []analyzer.Result
	for i := 0; i < b.N; i++ {
		results = komoran.AnalyzeList(sentences)
	}

	b.StopTimer()
	benchmarkResult = results
	reportRate(b, "AnalyzeList", len(sentences), time.Since(startTime))
}
