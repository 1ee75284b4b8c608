package signal

import (
	"fmt"
	"strings"
)

// Vote 表示單一技術指標的方向判讀。
type Vote int

const (
	VoteSell    Vote = -1
	VoteNeutral Vote = 0
	VoteBuy     Vote = 1
)

// ParseVote 將 provider 回傳的字串轉為 Vote。
func ParseVote(s string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy":
		return VoteBuy, nil
	case "sell":
		return VoteSell, nil
	case "neutral", "hold":
		return VoteNeutral, nil
	default:
		return VoteNeutral, fmt.Errorf("unsupported vote: %q", s)
	}
}

func (v Vote) String() string {
	switch v {
	case VoteBuy:
		return "Buy"
	case VoteSell:
		return "Sell"
	default:
		return "Neutral"
	}
}

// IndicatorVote 是一個具名指標與其方向判讀，每次評估固定三筆。
type IndicatorVote struct {
	Name string
	Vote Vote
}

// Bucket 是五檔綜合訊號。
type Bucket string

const (
	BucketStrongBuy  Bucket = "StrongBuy"
	BucketBuy        Bucket = "Buy"
	BucketHold       Bucket = "Hold"
	BucketSell       Bucket = "Sell"
	BucketStrongSell Bucket = "StrongSell"
)

// ParseBucket 驗證並正規化 bucket 字串。
func ParseBucket(s string) (Bucket, error) {
	switch Bucket(strings.TrimSpace(s)) {
	case BucketStrongBuy, BucketBuy, BucketHold, BucketSell, BucketStrongSell:
		return Bucket(strings.TrimSpace(s)), nil
	default:
		return "", fmt.Errorf("unsupported bucket: %q", s)
	}
}

// Result 是三票聚合後的衍生值，只有 Bucket 會被記回訂閱。
type Result struct {
	Ticker     string
	Indicators [3]IndicatorVote
	TotalScore int
	Bucket     Bucket
}

// Score 將三個指標票數聚合為一個五檔訊號。
// totalScore 必為三票之和，落在 [-3,3]；bucket 對照表是唯一的業務規則：
//
//	 3          -> StrongBuy
//	 1, 2       -> Buy
//	 0          -> Hold
//	-1, -2      -> Sell
//	-3          -> StrongSell
//
// 指標如何產生 Buy/Sell/Neutral 是 provider 的責任，這裡只做聚合。
func Score(ticker string, votes [3]IndicatorVote) Result {
	total := 0
	for _, v := range votes {
		total += int(v.Vote)
	}
	return Result{
		Ticker:     ticker,
		Indicators: votes,
		TotalScore: total,
		Bucket:     bucketFor(total),
	}
}

func bucketFor(total int) Bucket {
	switch {
	case total == 3:
		return BucketStrongBuy
	case total >= 1:
		return BucketBuy
	case total == 0:
		return BucketHold
	case total >= -2:
		return BucketSell
	default:
		return BucketStrongSell
	}
}
