package ncaa

import (
	"reflect"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "valid", input: "2025/01/12", want: Date{Year: 2025, Month: 1, Day: 12}},
		{name: "surrounding space", input: " 2025/02/15 ", want: Date{Year: 2025, Month: 2, Day: 15}},
		{name: "dashes rejected", input: "2025-02-15", wantErr: true},
		{name: "impossible day", input: "2025/02/30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDate(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestYesterdayCrossesMonth(t *testing.T) {
	now := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	got := Yesterday(now)
	want := Date{Year: 2025, Month: 2, Day: 28}
	if got != want {
		t.Errorf("Yesterday() = %+v, want %+v", got, want)
	}
}

func TestDateFormatting(t *testing.T) {
	d := Date{Year: 2025, Month: 3, Day: 7}
	if d.String() != "2025-03-07" {
		t.Errorf("String() = %q", d.String())
	}
	if d.URLPath() != "2025/03/07" {
		t.Errorf("URLPath() = %q", d.URLPath())
	}
}

func TestEnumerateDates(t *testing.T) {
	start := Date{Year: 2025, Month: 2, Day: 27}
	end := Date{Year: 2025, Month: 3, Day: 2}

	got := EnumerateDates(end, start)
	want := []Date{
		{2025, 2, 27}, {2025, 2, 28}, {2025, 3, 1}, {2025, 3, 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EnumerateDates() = %v, want %v", got, want)
	}
}

func TestGenerateURLs(t *testing.T) {
	date := Date{Year: 2025, Month: 2, Day: 6}
	got := GenerateURLs(date, []Division{DivisionD1, DivisionD3}, []Gender{GenderWomen, GenderMen})
	want := []string{
		"https://www.ncaa.com/scoreboard/basketball-women/d1/2025/02/06/all-conf",
		"https://www.ncaa.com/scoreboard/basketball-women/d3/2025/02/06/all-conf",
		"https://www.ncaa.com/scoreboard/basketball-men/d1/2025/02/06/all-conf",
		"https://www.ncaa.com/scoreboard/basketball-men/d3/2025/02/06/all-conf",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GenerateURLs() = %v, want %v", got, want)
	}
}

func TestParseScoreboardURLRoundTrip(t *testing.T) {
	target := Target{Date: Date{2025, 1, 12}, Gender: GenderWomen, Division: DivisionD2}
	got, err := ParseScoreboardURL(ScoreboardURL(target))
	if err != nil {
		t.Fatalf("ParseScoreboardURL() error = %v", err)
	}
	if got != target {
		t.Errorf("ParseScoreboardURL() = %+v, want %+v", got, target)
	}

	if _, err := ParseScoreboardURL("https://www.ncaa.com/scoreboard/football/fbs"); err == nil {
		t.Error("expected error for non-basketball URL")
	}
}

func TestGameIDFromLink(t *testing.T) {
	tests := map[string]string{
		"https://www.ncaa.com/game/6351234":         "6351234",
		"https://www.ncaa.com/game/6351234/":        "6351234",
		"/game/401":                                 "401",
		"https://www.ncaa.com/game/6351234?tab=box": "6351234",
	}
	for link, want := range tests {
		if got := GameIDFromLink(link); got != want {
			t.Errorf("GameIDFromLink(%q) = %q, want %q", link, got, want)
		}
	}
}

func TestAbsoluteLink(t *testing.T) {
	if got := AbsoluteLink("/game/401"); got != "https://www.ncaa.com/game/401" {
		t.Errorf("AbsoluteLink() = %q", got)
	}
	if got := AbsoluteLink("https://example.com/game/9"); got != "https://example.com/game/9" {
		t.Errorf("AbsoluteLink() absolute = %q", got)
	}
	if got := AbsoluteLink("  "); got != "" {
		t.Errorf("AbsoluteLink() blank = %q", got)
	}
}

func TestGameRecordFlatten(t *testing.T) {
	rec := &GameRecord{
		GameID:   "401",
		GameLink: "https://www.ncaa.com/game/401",
		Teams: [2]TeamBoxScore{
			{Team: "A", Opponent: "B", Columns: []string{"PLAYER", "PTS"}, Rows: [][]string{{"Smith", "10"}}},
			{Team: "B", Opponent: "A", Columns: []string{"PTS", "PLAYER"}, Rows: [][]string{{"7", "Jones"}}},
		},
	}

	header, rows := rec.Flatten()
	wantHeader := []string{"PLAYER", "PTS", ColumnTeam, ColumnOpponent, ColumnGameID, ColumnGameLink}
	if !reflect.DeepEqual(header, wantHeader) {
		t.Fatalf("header = %v, want %v", header, wantHeader)
	}
	wantRows := [][]string{
		{"Smith", "10", "A", "B", "401", "https://www.ncaa.com/game/401"},
		{"Jones", "7", "B", "A", "401", "https://www.ncaa.com/game/401"},
	}
	if !reflect.DeepEqual(rows, wantRows) {
		t.Errorf("rows = %v, want %v", rows, wantRows)
	}
}

func TestSessionCrossListed(t *testing.T) {
	s := NewSession(Date{2025, 1, 12}, GenderMen)
	s.RecordGame("401", DivisionD1)
	s.RecordGame("401", DivisionD2)
	s.RecordGame("402", DivisionD2)
	s.RecordGame("402", DivisionD2)

	if got := s.CrossListed(); !reflect.DeepEqual(got, []string{"401"}) {
		t.Errorf("CrossListed() = %v", got)
	}
	if s.GamesWritten() != 2 {
		t.Errorf("GamesWritten() = %d, want 2", s.GamesWritten())
	}

	link := "https://www.ncaa.com/game/401"
	s.MarkVisited(DivisionD1, link)
	if !s.Visited(DivisionD1, link) {
		t.Error("Visited(d1) = false after MarkVisited")
	}
	if s.Visited(DivisionD2, link) {
		t.Error("Visited(d2) = true; links must be tracked per division")
	}
	if s.Visited(DivisionD1, "https://www.ncaa.com/game/402") {
		t.Error("Visited() true for unseen link")
	}
}
