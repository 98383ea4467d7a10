package ncaa

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the ncaa.com site root.
	BaseURL = "https://www.ncaa.com"

	scoreboardPattern = "%s/scoreboard/basketball-%s/%s/%s/all-conf"
)

// ScoreboardURL builds the scoreboard URL for a target.
func ScoreboardURL(t Target) string {
	return fmt.Sprintf(scoreboardPattern, BaseURL, t.Gender, t.Division, t.Date.URLPath())
}

// GenerateTargets expands a date into one target per gender and division, genders outermost.
func GenerateTargets(date Date, divisions []Division, genders []Gender) []Target {
	targets := make([]Target, 0, len(divisions)*len(genders))
	for _, g := range genders {
		for _, d := range divisions {
			targets = append(targets, Target{Date: date, Gender: g, Division: d})
		}
	}
	return targets
}

// GenerateURLs returns scoreboard URLs for every gender/division combination of a date.
func GenerateURLs(date Date, divisions []Division, genders []Gender) []string {
	targets := GenerateTargets(date, divisions, genders)
	urls := make([]string, 0, len(targets))
	for _, t := range targets {
		urls = append(urls, ScoreboardURL(t))
	}
	return urls
}

// ParseScoreboardURL recovers the target from a URL shaped like
// .../basketball-women/d3/2025/02/06/all-conf.
func ParseScoreboardURL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("invalid scoreboard URL %q: %w", raw, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	idx := -1
	for i, p := range parts {
		if strings.HasPrefix(p, "basketball-") {
			idx = i
			break
		}
	}
	if idx < 0 || len(parts) < idx+5 {
		return Target{}, fmt.Errorf("invalid scoreboard URL %q: missing basketball segment", raw)
	}

	gender, err := ParseGender(strings.TrimPrefix(parts[idx], "basketball-"))
	if err != nil {
		return Target{}, err
	}
	division, err := ParseDivision(parts[idx+1])
	if err != nil {
		return Target{}, err
	}

	var nums [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(parts[idx+2+i])
		if err != nil {
			return Target{}, fmt.Errorf("invalid scoreboard URL %q: bad date segment: %w", raw, err)
		}
		nums[i] = n
	}

	return Target{
		Date:     Date{Year: nums[0], Month: nums[1], Day: nums[2]},
		Gender:   gender,
		Division: division,
	}, nil
}

// GameIDFromLink returns the last path segment of a box-score link.
func GameIDFromLink(link string) string {
	trimmed := strings.TrimRight(link, "/")
	if u, err := url.Parse(trimmed); err == nil && u.Path != "" {
		trimmed = strings.TrimRight(u.Path, "/")
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// AbsoluteLink resolves an href found on a scoreboard page against the site root.
func AbsoluteLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, _ := url.Parse(BaseURL)
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
