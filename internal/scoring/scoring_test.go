package scoring

import (
	"testing"

	"reshelf/internal/media"
)

func intPtr(v int) *int { return &v }

func metadata(pairs ...string) media.Metadata {
	var m media.Metadata
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

func TestScore(t *testing.T) {
	scorer := New(DefaultGreenThreshold, DefaultYellowThreshold)
	tests := []struct {
		name   string
		result media.IdentificationResult
		want   int
		level  Level
	}{
		{
			name:   "unknown",
			result: media.IdentificationResult{Record: media.Record{Kind: media.KindUnknown, Title: "x"}},
			want:   0,
			level:  LevelRed,
		},
		{
			name: "movie with sidecar ids",
			result: media.IdentificationResult{Record: media.Record{
				Kind: media.KindMovie, Title: "Arrival", Year: 2016,
				Metadata: metadata(media.KeyTitleSource, media.TitleSourceNFO, media.KeyIMDbID, "tt2543164", media.KeyTMDbID, "329865"),
			}},
			want:  85,
			level: LevelGreen,
		},
		{
			name:   "movie from filename",
			result: media.IdentificationResult{Record: media.Record{Kind: media.KindMovie, Title: "Heat", Year: 1995}},
			want:   25,
			level:  LevelRed,
		},
		{
			name: "movie with folder tmdb id",
			result: media.IdentificationResult{Record: media.Record{
				Kind: media.KindMovie, Title: "The Matrix", Year: 1999, Metadata: metadata(media.KeyTMDbID, "603"),
			}},
			want:  70,
			level: LevelGreen,
		},
		{
			name: "episode with title and part",
			result: media.IdentificationResult{Record: media.Record{
				Kind: media.KindEpisode, Title: "Lost", Season: intPtr(1), Episodes: []int{1}, Part: 2,
				Metadata: metadata(media.KeyEpisodeTitle, "Pilot"),
			}},
			want:  45,
			level: LevelYellow,
		},
		{
			name:   "dated episode",
			result: media.IdentificationResult{Record: media.Record{Kind: media.KindEpisode, Title: "News", Date: "2024-03-15"}},
			want:   25,
			level:  LevelRed,
		},
		{
			name: "clamped at zero",
			result: media.IdentificationResult{
				Record: media.Record{Kind: media.KindMovie},
				Errors: []string{"Failed to parse NFO: a.nfo"},
			},
			want:  0,
			level: LevelRed,
		},
		{
			name: "clamped at one hundred",
			result: media.IdentificationResult{Record: media.Record{
				Kind: media.KindEpisode, Title: "Show", Season: intPtr(2), Episodes: []int{3}, Part: 1,
				Metadata: metadata(media.KeyTitleSource, media.TitleSourceNFO, media.KeyIMDbID, "tt1", media.KeyEpisodeTitle, "E"),
			}},
			want:  100,
			level: LevelGreen,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			score := scorer.Score(tc.result)
			if score.Confidence != tc.want {
				t.Fatalf("confidence = %d, want %d (reasons %v)", score.Confidence, tc.want, score.Reasons)
			}
			if score.Level != tc.level {
				t.Fatalf("level = %s, want %s", score.Level, tc.level)
			}
		})
	}
}

func TestErrorPenalty(t *testing.T) {
	scorer := New(DefaultGreenThreshold, DefaultYellowThreshold)
	clean := media.IdentificationResult{Record: media.Record{Kind: media.KindMovie, Title: "Heat", Year: 1995}}
	dirty := clean
	dirty.Errors = []string{"a", "b"}
	if got, want := scorer.Score(dirty).Confidence, scorer.Score(clean).Confidence-10; got != want {
		t.Fatalf("two errors should cost 10 points: got %d, want %d", got, want)
	}
}

func TestLevelThresholds(t *testing.T) {
	scorer := New(80, 50)
	cases := map[int]Level{100: LevelGreen, 80: LevelGreen, 79: LevelYellow, 50: LevelYellow, 49: LevelRed, 0: LevelRed}
	for confidence, want := range cases {
		if got := scorer.Level(confidence); got != want {
			t.Errorf("Level(%d) = %s, want %s", confidence, got, want)
		}
	}
}
