package ncaacom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fortuna/ncaa-boxscores/internal/ncaa"
)

// Selectors on ncaa.com pages.
const (
	SelectorGameLink     = ".gamePod-link"
	SelectorGamePod      = ".gamePod"
	SelectorTeamSelector = ".boxscore-team-selector"
	SelectorBoxScore     = ".gamecenter-tab-boxscore"
	SelectorBoxTable     = ".gamecenter-tab-boxscore table"
	selectorError404     = ".error-404"
)

// trailingTotalsRows is the number of summary rows at the bottom of each box-score table.
const trailingTotalsRows = 2

var (
	errNoTable    = errors.New("box score table not found")
	errNoHeader   = errors.New("box score table has no header")
	errEmptyTable = errors.New("box score table has no rows")
)

// ParseHTML converts raw HTML to a goquery Document for parsing
func ParseHTML(htmlContent string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseGameLinks returns the absolute box-score links on a scoreboard page in page order.
// Repeated links are returned once.
func ParseGameLinks(doc *goquery.Document) []string {
	seen := make(map[string]bool)
	var links []string
	doc.Find(SelectorGameLink).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		link := ncaa.AbsoluteLink(href)
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links
}

// HasGamePods reports whether the scoreboard rendered any game containers at all.
func HasGamePods(doc *goquery.Document) bool {
	return doc.Find(SelectorGamePod).Length() > 0
}

// HasTeamSelector reports whether a box-score page rendered its team toggle.
func HasTeamSelector(doc *goquery.Document) bool {
	return doc.Find(SelectorTeamSelector).Length() > 0
}

// ParseTeamNames returns the non-empty labels of the team selector's child divs.
func ParseTeamNames(doc *goquery.Document) []string {
	var names []string
	doc.Find(SelectorTeamSelector).First().Find("div").Each(func(_ int, s *goquery.Selection) {
		// Nested divs repeat their parent's text.
		if s.Find("div").Length() > 0 {
			return
		}
		if name := strings.Join(strings.Fields(s.Text()), " "); name != "" {
			names = append(names, name)
		}
	})
	return names
}

// ParseBoxScoreTable extracts the column names and player rows of the visible box-score
// table. The trailing totals rows are dropped when the table has more than two rows.
func ParseBoxScoreTable(doc *goquery.Document) ([]string, [][]string, error) {
	table := doc.Find(SelectorBoxTable).First()
	if table.Length() == 0 {
		return nil, nil, errNoTable
	}

	var header []string
	bodyRows := table.Find("tbody tr")
	if head := table.Find("thead tr"); head.Length() > 0 {
		header = cellTexts(head.Last())
	} else {
		allRows := table.Find("tr")
		header = cellTexts(allRows.First())
		bodyRows = allRows.Slice(1, allRows.Length())
	}
	if len(header) == 0 {
		return nil, nil, errNoHeader
	}
	header = uniqueColumns(header)

	var rows [][]string
	bodyRows.Each(func(_ int, tr *goquery.Selection) {
		cells := cellTexts(tr)
		if len(cells) == 0 {
			return
		}
		row := make([]string, len(header))
		copy(row, cells)
		rows = append(rows, row)
	})
	if len(rows) == 0 {
		return nil, nil, errEmptyTable
	}
	if len(rows) > trailingTotalsRows {
		rows = rows[:len(rows)-trailingTotalsRows]
	}
	return header, rows, nil
}

// DetectPageError returns a description of a known error page, or "" if the page looks normal.
func DetectPageError(doc *goquery.Document) string {
	title := strings.ToLower(strings.TrimSpace(doc.Find("title").First().Text()))
	switch {
	case strings.Contains(title, "404") || strings.Contains(title, "not found"):
		return "Page not found (404)"
	case strings.Contains(title, "error"):
		return "Error page detected"
	case doc.Find(selectorError404).Length() > 0:
		return "NCAA 404 error page"
	case strings.Contains(strings.ToLower(doc.Text()), "unavailable"):
		return "Content unavailable"
	}
	return ""
}

func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th, td").Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, strings.Join(strings.Fields(c.Text()), " "))
	})
	return cells
}

// uniqueColumns suffixes repeated or blank column names so every column is addressable by name.
func uniqueColumns(cols []string) []string {
	out := make([]string, len(cols))
	seen := make(map[string]int)
	for i, c := range cols {
		if c == "" {
			c = fmt.Sprintf("Unnamed: %d", i)
		}
		name := c
		if n := seen[c]; n > 0 {
			name = fmt.Sprintf("%s.%d", c, n)
		}
		seen[c]++
		out[i] = name
	}
	return out
}
