package signal

import "testing"

func votes(a, b, c Vote) [3]IndicatorVote {
	return [3]IndicatorVote{
		{Name: "SMA Crossover", Vote: a},
		{Name: "RSI", Vote: b},
		{Name: "OBV", Vote: c},
	}
}

func TestScoreBucketTable(t *testing.T) {
	tests := []struct {
		name      string
		votes     [3]IndicatorVote
		wantTotal int
		wantBkt   Bucket
	}{
		{"all buy", votes(VoteBuy, VoteBuy, VoteBuy), 3, BucketStrongBuy},
		{"two buy one neutral", votes(VoteBuy, VoteBuy, VoteNeutral), 2, BucketBuy},
		{"one buy two neutral", votes(VoteBuy, VoteNeutral, VoteNeutral), 1, BucketBuy},
		{"balanced", votes(VoteBuy, VoteSell, VoteNeutral), 0, BucketHold},
		{"all neutral", votes(VoteNeutral, VoteNeutral, VoteNeutral), 0, BucketHold},
		{"one sell", votes(VoteSell, VoteNeutral, VoteNeutral), -1, BucketSell},
		{"two sell", votes(VoteSell, VoteSell, VoteNeutral), -2, BucketSell},
		{"all sell", votes(VoteSell, VoteSell, VoteSell), -3, BucketStrongSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score("AAPL", tt.votes)
			if got.TotalScore != tt.wantTotal {
				t.Errorf("TotalScore = %d, want %d", got.TotalScore, tt.wantTotal)
			}
			if got.Bucket != tt.wantBkt {
				t.Errorf("Bucket = %s, want %s", got.Bucket, tt.wantBkt)
			}
			if got.Ticker != "AAPL" {
				t.Errorf("Ticker = %s, want AAPL", got.Ticker)
			}
		})
	}
}

// TestScoreExhaustive walks every possible vote triple and checks the
// total/bucket invariants hold for all 27 combinations.
func TestScoreExhaustive(t *testing.T) {
	all := []Vote{VoteSell, VoteNeutral, VoteBuy}
	wantBucket := map[int]Bucket{
		-3: BucketStrongSell,
		-2: BucketSell,
		-1: BucketSell,
		0:  BucketHold,
		1:  BucketBuy,
		2:  BucketBuy,
		3:  BucketStrongBuy,
	}

	for _, a := range all {
		for _, b := range all {
			for _, c := range all {
				res := Score("TSLA", votes(a, b, c))
				sum := int(a) + int(b) + int(c)
				if res.TotalScore != sum {
					t.Fatalf("votes (%d,%d,%d): TotalScore = %d, want %d", a, b, c, res.TotalScore, sum)
				}
				if res.TotalScore < -3 || res.TotalScore > 3 {
					t.Fatalf("TotalScore %d out of [-3,3]", res.TotalScore)
				}
				if res.Bucket != wantBucket[sum] {
					t.Fatalf("votes (%d,%d,%d): Bucket = %s, want %s", a, b, c, res.Bucket, wantBucket[sum])
				}
			}
		}
	}
}

func TestParseVote(t *testing.T) {
	tests := []struct {
		in      string
		want    Vote
		wantErr bool
	}{
		{"Buy", VoteBuy, false},
		{"buy", VoteBuy, false},
		{" SELL ", VoteSell, false},
		{"Neutral", VoteNeutral, false},
		{"hold", VoteNeutral, false},
		{"strong buy", VoteNeutral, true},
		{"", VoteNeutral, true},
	}
	for _, tt := range tests {
		got, err := ParseVote(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseVote(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseVote(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseBucket(t *testing.T) {
	if _, err := ParseBucket("StrongBuy"); err != nil {
		t.Errorf("ParseBucket(StrongBuy) error = %v", err)
	}
	if _, err := ParseBucket("moon"); err == nil {
		t.Error("ParseBucket(moon) expected error")
	}
}
