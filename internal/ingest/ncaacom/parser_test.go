package ncaacom

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func loadFixture(t *testing.T, name string) *goquery.Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	doc, err := ParseHTML(string(data))
	if err != nil {
		t.Fatalf("ParseHTML(%s) failed: %v", name, err)
	}
	return doc
}

func TestParseGameLinks(t *testing.T) {
	doc := loadFixture(t, "scoreboard.html")
	got := ParseGameLinks(doc)
	want := []string{
		"https://www.ncaa.com/game/6351234",
		"https://www.ncaa.com/game/6351235?tab=boxscore",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseGameLinks() = %v, want %v", got, want)
	}
	if !HasGamePods(doc) {
		t.Error("HasGamePods() = false")
	}
}

func TestParseGameLinksEmptyScoreboard(t *testing.T) {
	doc := loadFixture(t, "scoreboard_empty.html")
	if links := ParseGameLinks(doc); len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
	if HasGamePods(doc) {
		t.Error("HasGamePods() = true on empty scoreboard")
	}
	if msg := DetectPageError(doc); msg != "" {
		t.Errorf("DetectPageError() = %q on a normal empty page", msg)
	}
}

func TestParseTeamNames(t *testing.T) {
	doc := loadFixture(t, "boxscore_home.html")
	got := ParseTeamNames(doc)
	if !reflect.DeepEqual(got, []string{"Duke", "North Carolina"}) {
		t.Errorf("ParseTeamNames() = %v", got)
	}
	if names := ParseTeamNames(loadFixture(t, "boxscore_no_selector.html")); len(names) != 0 {
		t.Errorf("expected no names without a selector, got %v", names)
	}
}

func TestParseTeamNamesCollapsesWhitespace(t *testing.T) {
	doc, err := ParseHTML(`<div class="boxscore-team-selector"><div>Texas
		A&amp;M</div><div> Baylor </div></div>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := ParseTeamNames(doc); !reflect.DeepEqual(got, []string{"Texas A&M", "Baylor"}) {
		t.Errorf("ParseTeamNames() = %q", got)
	}
}

func TestParseBoxScoreTableDropsTotals(t *testing.T) {
	cols, rows, err := ParseBoxScoreTable(loadFixture(t, "boxscore_home.html"))
	if err != nil {
		t.Fatalf("ParseBoxScoreTable() error = %v", err)
	}
	wantCols := []string{"Player", "Pos", "MIN", "FGM-A", "PTS"}
	if !reflect.DeepEqual(cols, wantCols) {
		t.Errorf("columns = %v, want %v", cols, wantCols)
	}
	wantRows := [][]string{
		{"Cooper Flagg", "F", "36", "9-17", "24"},
		{"Kon Knueppel", "G", "31", "5-11", "16"},
		{"Tyrese Proctor", "G", "29", "4-9", "12"},
	}
	if !reflect.DeepEqual(rows, wantRows) {
		t.Errorf("rows = %v, want %v", rows, wantRows)
	}
}

func TestParseBoxScoreTableShapes(t *testing.T) {
	tests := []struct {
		name     string
		html     string
		wantCols []string
		wantRows int
		wantErr  bool
	}{
		{
			name:    "no table",
			html:    `<div class="gamecenter-tab-boxscore"></div>`,
			wantErr: true,
		},
		{
			name:    "header only",
			html:    `<div class="gamecenter-tab-boxscore"><table><thead><tr><th>A</th></tr></thead><tbody></tbody></table></div>`,
			wantErr: true,
		},
		{
			name:     "two rows are kept",
			html:     `<div class="gamecenter-tab-boxscore"><table><thead><tr><th>A</th></tr></thead><tbody><tr><td>1</td></tr><tr><td>2</td></tr></tbody></table></div>`,
			wantCols: []string{"A"},
			wantRows: 2,
		},
		{
			name:     "no thead uses first row",
			html:     `<div class="gamecenter-tab-boxscore"><table><tr><th>A</th><th>A</th><th></th></tr><tr><td>1</td><td>2</td><td>3</td></tr></table></div>`,
			wantCols: []string{"A", "A.1", "Unnamed: 2"},
			wantRows: 1,
		},
		{
			name:     "short rows are padded",
			html:     `<div class="gamecenter-tab-boxscore"><table><thead><tr><th>A</th><th>B</th></tr></thead><tbody><tr><td>1</td></tr></tbody></table></div>`,
			wantCols: []string{"A", "B"},
			wantRows: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseHTML(tt.html)
			if err != nil {
				t.Fatal(err)
			}
			cols, rows, err := ParseBoxScoreTable(doc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(cols, tt.wantCols) {
				t.Errorf("columns = %v, want %v", cols, tt.wantCols)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("got %d rows, want %d", len(rows), tt.wantRows)
			}
			for _, r := range rows {
				if len(r) != len(cols) {
					t.Errorf("row %v has %d cells, want %d", r, len(r), len(cols))
				}
			}
		})
	}
}

func TestDetectPageError(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"404 fixture", "", "Page not found (404)"},
		{"error title", `<html><head><title>Error</title></head><body></body></html>`, "Error page detected"},
		{"ncaa 404 block", `<html><head><title>NCAA</title></head><body><div class="error-404"></div></body></html>`, "NCAA 404 error page"},
		{"unavailable", `<html><head><title>NCAA</title></head><body>This content is unavailable.</body></html>`, "Content unavailable"},
		{"normal", `<html><head><title>Scoreboard</title></head><body>ok</body></html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc *goquery.Document
			if tt.html == "" {
				doc = loadFixture(t, "scoreboard_404.html")
			} else {
				var err error
				if doc, err = ParseHTML(tt.html); err != nil {
					t.Fatal(err)
				}
			}
			if got := DetectPageError(doc); got != tt.want {
				t.Errorf("DetectPageError() = %q, want %q", got, tt.want)
			}
		})
	}
}
