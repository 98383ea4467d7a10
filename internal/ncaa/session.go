package ncaa

import "sort"

// Session is the scope of one scraping pass over a (date, gender) slice. It is built fresh
// for every pass and handed to the ingester and then the reconciler.
type Session struct {
	Date   Date
	Gender Gender

	visited map[Division]map[string]bool
	games   map[string]map[Division]bool
}

// NewSession creates an empty session for a date and gender.
func NewSession(date Date, gender Gender) *Session {
	return &Session{
		Date:    date,
		Gender:  gender,
		visited: make(map[Division]map[string]bool),
		games:   make(map[string]map[Division]bool),
	}
}

// Visited reports whether a box-score link has already been handled for a division in this
// session. Links are tracked per division so a game listed on two scoreboards is written to
// both files.
func (s *Session) Visited(division Division, link string) bool {
	return s.visited[division][link]
}

// MarkVisited records a handled box-score link.
func (s *Session) MarkVisited(division Division, link string) {
	links, ok := s.visited[division]
	if !ok {
		links = make(map[string]bool)
		s.visited[division] = links
	}
	links[link] = true
}

// RecordGame notes that a game was written to a division's file during this session.
func (s *Session) RecordGame(gameID string, division Division) {
	divs, ok := s.games[gameID]
	if !ok {
		divs = make(map[Division]bool)
		s.games[gameID] = divs
	}
	divs[division] = true
}

// GamesWritten returns the number of distinct games written this session.
func (s *Session) GamesWritten() int {
	return len(s.games)
}

// CrossListed returns game ids this session wrote under more than one division, sorted.
func (s *Session) CrossListed() []string {
	var ids []string
	for id, divs := range s.games {
		if len(divs) > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
