package ncaa

import (
	"fmt"
	"strings"
	"time"
)

// Division is an NCAA competitive tier.
type Division string

const (
	DivisionD1 Division = "d1"
	DivisionD2 Division = "d2"
	DivisionD3 Division = "d3"
)

// AllDivisions lists divisions in scrape order.
var AllDivisions = []Division{DivisionD1, DivisionD2, DivisionD3}

// ParseDivision validates a division code such as "d2".
func ParseDivision(s string) (Division, error) {
	d := Division(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DivisionD1, DivisionD2, DivisionD3:
		return d, nil
	}
	return "", fmt.Errorf("invalid division %q (must be d1, d2 or d3)", s)
}

// Gender selects the men's or women's scoreboard.
type Gender string

const (
	GenderMen   Gender = "men"
	GenderWomen Gender = "women"
)

// AllGenders lists genders in scrape order.
var AllGenders = []Gender{GenderMen, GenderWomen}

// ParseGender validates a gender value.
func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToLower(strings.TrimSpace(s)))
	switch g {
	case GenderMen, GenderWomen:
		return g, nil
	}
	return "", fmt.Errorf("invalid gender %q (must be men or women)", s)
}

// Date is a calendar day without a time component.
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// ParseDate parses the YYYY/MM/DD form used on the command line and in scoreboard URLs.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006/01/02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY/MM/DD): %w", s, err)
	}
	return DateOf(t), nil
}

// Yesterday returns the day before now.
func Yesterday(now time.Time) Date {
	return DateOf(now.AddDate(0, 0, -1))
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) YYYY() string { return fmt.Sprintf("%04d", d.Year) }
func (d Date) MM() string   { return fmt.Sprintf("%02d", d.Month) }
func (d Date) DD() string   { return fmt.Sprintf("%02d", d.Day) }

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%s-%s-%s", d.YYYY(), d.MM(), d.DD())
}

// URLPath renders the date as YYYY/MM/DD.
func (d Date) URLPath() string {
	return fmt.Sprintf("%s/%s/%s", d.YYYY(), d.MM(), d.DD())
}

// EnumerateDates returns every day from start to end inclusive.
func EnumerateDates(start, end Date) []Date {
	s, e := start.Time(), end.Time()
	if e.Before(s) {
		s, e = e, s
	}

	var dates []Date
	for cur := s; !cur.After(e); cur = cur.AddDate(0, 0, 1) {
		dates = append(dates, DateOf(cur))
	}
	return dates
}

// Target identifies one scoreboard: a date, gender and division.
type Target struct {
	Date     Date
	Gender   Gender
	Division Division
}

func (t Target) String() string {
	return fmt.Sprintf("%s %s %s", t.Gender, t.Division, t.Date)
}

// TeamBoxScore is one team's box-score table from a game page.
type TeamBoxScore struct {
	Team     string
	Opponent string
	Columns  []string
	Rows     [][]string
}

// GameRecord is a scraped game: both teams' box scores tagged with game metadata.
type GameRecord struct {
	GameID   string
	GameLink string
	Date     Date
	Division Division
	Gender   Gender
	Teams    [2]TeamBoxScore
}

// Injected column names.
const (
	ColumnTeam      = "TEAM"
	ColumnOpponent  = "OPP"
	ColumnGameID    = "GAMEID"
	ColumnGameLink  = "GAMELINK"
	ColumnDuplicate = "DUPLICATE_ACROSS_DIVISIONS"

	DuplicateFlag = "TRUE"
)

// Flatten converts the record to CSV rows. The header is the first team's box-score columns
// followed by TEAM, OPP, GAMEID and GAMELINK. Values from the second team are aligned by
// column name.
func (g *GameRecord) Flatten() ([]string, [][]string) {
	header := append([]string{}, g.Teams[0].Columns...)
	for _, team := range g.Teams[1:] {
		for _, col := range team.Columns {
			if indexOf(header, col) < 0 {
				header = append(header, col)
			}
		}
	}
	statCount := len(header)
	header = append(header, ColumnTeam, ColumnOpponent, ColumnGameID, ColumnGameLink)

	var rows [][]string
	for _, team := range g.Teams {
		for _, src := range team.Rows {
			row := make([]string, len(header))
			for i, col := range team.Columns {
				if i >= len(src) {
					break
				}
				if idx := indexOf(header[:statCount], col); idx >= 0 {
					row[idx] = src[i]
				}
			}
			row[statCount] = team.Team
			row[statCount+1] = team.Opponent
			row[statCount+2] = g.GameID
			row[statCount+3] = g.GameLink
			rows = append(rows, row)
		}
	}
	return header, rows
}

func indexOf(values []string, want string) int {
	for i, v := range values {
		if v == want {
			return i
		}
	}
	return -1
}
