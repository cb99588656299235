package patterns

import (
	"fmt"
	"testing"
)

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"The Matrix (1999)", 1999, true},
		{"Blade Runner 2049 (2017)", 2017, true},
		{"Movie.2010.1080p", 2010, true},
		{"2001 A Space Odyssey", 2001, true},
		{"Show.1999-", 1999, true},
		{"Show.2024.03.15.Episode", 0, false},
		{"Show.S05E06-1976", 0, false},
		{"Show.5x06_1976", 0, false},
		{"Movie (2050)", 0, false},
		{"(2019.05.03)", 0, false},
		{"x1999", 0, false},
		{"Blade Runner 2049", 0, false},
	}
	for _, tc := range tests {
		got, ok := ExtractYear(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractYear(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractYearIgnoresDates(t *testing.T) {
	for year := MinYear; year <= MaxYear; year++ {
		for _, sep := range []string{"-", "."} {
			date := fmt.Sprintf("%d%s03%s15", year, sep, sep)
			for _, name := range []string{date, "Show " + date, "Show." + date + ".720p"} {
				if got, ok := ExtractYear(name); ok && got == year {
					t.Fatalf("ExtractYear(%q) returned the date year %d", name, got)
				}
			}
		}
	}
}

func TestExtractDate(t *testing.T) {
	tests := map[string]string{
		"The Daily Show 2024-03-15": "2024-03-15",
		"News.2023.11.02.720p":      "2023-11-02",
		"Mixed 2022-01.09":          "2022-01-09",
	}
	for in, want := range tests {
		got, ok := ExtractDate(in)
		if !ok || got != want {
			t.Errorf("ExtractDate(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ExtractDate("Movie 2020"); ok {
		t.Error("expected no date in a bare year")
	}
}

func TestExtractPart(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"Movie Part 2", 2, true},
		{"Movie Pt.III", 3, true},
		{"Movie.Part.Three", 3, true},
		{"Part iv", 4, true},
		{"Movie pt 10", 10, true},
		{"Caption 3", 0, false},
		{"The Departed", 0, false},
		{"Part 0", 0, false},
	}
	for _, tc := range tests {
		got, ok := ExtractPart(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractPart(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractSeasonFromFolder(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"Season 02", 2, true},
		{"Season.1", 1, true},
		{"season 0", 0, true},
		{"Show.S03.1080p", 3, true},
		{"S1", 1, true},
		{"Specials", 0, false},
		{"Mass Effect", 0, false},
	}
	for _, tc := range tests {
		got, ok := ExtractSeasonFromFolder(tc.name)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractSeasonFromFolder(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestExtractTMDbIDFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/movies/The Matrix (1999) [tmdbid-603]/The Matrix.mkv", "603", true},
		{"/movies/Alien {tmdb-348}/Alien.mkv", "348", true},
		{"/shows/Show [tmdbid-1]/Season 01 [tmdbid-2]/ep.mkv", "2", true},
		{"/movies/Plain/Plain.mkv", "", false},
	}
	for _, tc := range tests {
		got, ok := ExtractTMDbIDFromPath(tc.path)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ExtractTMDbIDFromPath(%q) = %q, %v; want %q, %v", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}
