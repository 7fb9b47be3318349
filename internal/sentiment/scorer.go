// Package sentiment scores headlines with a fixed keyword lexicon.
//
// The lexicon and the +3/-3 weights are tuned together with the decision
// thresholds (40/60/70); keep them literal.
package sentiment

import (
	"strings"

	"github.com/Howie-Waves/StockMate/internal/contracts"
)

const (
	// Baseline is the neutral score, also used when no news is available
	Baseline = 50.0

	keywordWeight = 3.0
	minScore      = 0.0
	maxScore      = 100.0
)

// PositiveKeywords 긍정 키워드
var PositiveKeywords = []string{"增长", "利好", "突破", "上涨", "盈利", "业绩"}

// NegativeKeywords 부정 키워드 ("下跌" 중복 포함, 항목당 -6)
var NegativeKeywords = []string{"下跌", "亏损", "风险", "警告", "下跌", "调整"}

// Score returns a score in [0,100]; empty input gives Baseline.
// Each keyword entry found in an item's title+content moves the score once.
func Score(news []contracts.NewsItem) float64 {
	score := Baseline

	for _, item := range news {
		text := item.Text()
		for _, kw := range PositiveKeywords {
			if strings.Contains(text, kw) {
				score += keywordWeight
			}
		}
		for _, kw := range NegativeKeywords {
			if strings.Contains(text, kw) {
				score -= keywordWeight
			}
		}
	}

	return clamp(score)
}

// Level buckets a score for display
func Level(score float64) string {
	switch {
	case score > 70:
		return "积极"
	case score < 40:
		return "低迷"
	default:
		return "中性"
	}
}

func clamp(v float64) float64 {
	if v < minScore {
		return minScore
	}
	if v > maxScore {
		return maxScore
	}
	return v
}
