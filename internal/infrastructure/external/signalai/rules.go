package signalai

import (
	"context"
	"fmt"

	domain "ai-stock-advisor/internal/domain/marketdata"
	"ai-stock-advisor/internal/domain/signal"
)

// 規則計算所需的最少交易日數（受 SMA 60 限制）。
const minSessions = 60

// RuleBased 是確定性的指標計算器，取代生成式 AI 後端：
// SMA 20/60 黃金交叉、RSI 14 超買超賣、20 日動能。
// 它直接吃排程已取回的收盤價序列，不另外存取資料來源；
// 測試與離線環境用它讓整條管線可重現。
type RuleBased struct{}

// NewRuleBased 建立規則計算器。
func NewRuleBased() *RuleBased {
	return &RuleBased{}
}

// Votes 從傳入的收盤價序列計算三個指標判讀；strategy 在規則模式下不影響結果。
func (r *RuleBased) Votes(ctx context.Context, ticker, strategy string, series domain.Series) ([3]signal.IndicatorVote, error) {
	var out [3]signal.IndicatorVote

	closes := series.Closes()
	if len(closes) < minSessions {
		return out, &ProviderError{Ticker: ticker, Err: fmt.Errorf("need at least %d sessions, got %d", minSessions, len(closes))}
	}

	out[0] = signal.IndicatorVote{Name: "SMA 20/60 Crossover", Vote: smaCrossoverVote(closes)}
	out[1] = signal.IndicatorVote{Name: "RSI 14", Vote: rsiVote(closes)}
	out[2] = signal.IndicatorVote{Name: "20-Day Momentum", Vote: momentumVote(closes)}
	return out, nil
}

// smaCrossoverVote 比較短長均線：短均在上看多，在下看空，乖離 0.5% 內視為中性。
func smaCrossoverVote(closes []float64) signal.Vote {
	short := sma(closes, 20)
	long := sma(closes, 60)
	if long == 0 {
		return signal.VoteNeutral
	}
	gap := (short - long) / long
	switch {
	case gap > 0.005:
		return signal.VoteBuy
	case gap < -0.005:
		return signal.VoteSell
	default:
		return signal.VoteNeutral
	}
}

// rsiVote 以 Wilder RSI 14 判讀：<=30 超賣看多、>=70 超買看空。
func rsiVote(closes []float64) signal.Vote {
	rsi := rsi(closes, 14)
	switch {
	case rsi <= 30:
		return signal.VoteBuy
	case rsi >= 70:
		return signal.VoteSell
	default:
		return signal.VoteNeutral
	}
}

// momentumVote 比較現價與 20 日前收盤：漲逾 3% 看多，跌逾 3% 看空。
func momentumVote(closes []float64) signal.Vote {
	last := closes[len(closes)-1]
	prev := closes[len(closes)-1-20]
	if prev == 0 {
		return signal.VoteNeutral
	}
	change := (last - prev) / prev
	switch {
	case change > 0.03:
		return signal.VoteBuy
	case change < -0.03:
		return signal.VoteSell
	default:
		return signal.VoteNeutral
	}
}

func sma(closes []float64, window int) float64 {
	if len(closes) < window || window <= 0 {
		return 0
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}

func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}
	tail := closes[len(closes)-period-1:]
	gain, loss := 0.0, 0.0
	for i := 1; i < len(tail); i++ {
		diff := tail[i] - tail[i-1]
		if diff > 0 {
			gain += diff
		} else {
			loss -= diff
		}
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}
