package domain

import (
	"encoding/json"
	"sort"
)

// ReviewerSet is the set of distinct review authors of a pull request.
// Order is irrelevant; it serializes as a sorted JSON array so that
// snapshots of the same set are byte-identical.
type ReviewerSet map[string]struct{}

// NewReviewerSet builds a set from logins, ignoring empty ones
func NewReviewerSet(logins ...string) ReviewerSet {
	s := make(ReviewerSet, len(logins))
	for _, login := range logins {
		s.Add(login)
	}
	return s
}

// Add inserts a login; repeated logins collapse to one entry
func (s ReviewerSet) Add(login string) {
	if login == "" {
		return
	}
	s[login] = struct{}{}
}

// Has reports whether login reviewed the pull request
func (s ReviewerSet) Has(login string) bool {
	_, ok := s[login]
	return ok
}

// Len returns the number of distinct reviewers
func (s ReviewerSet) Len() int {
	return len(s)
}

// Logins returns the reviewers in lexical order
func (s ReviewerSet) Logins() []string {
	logins := make([]string, 0, len(s))
	for login := range s {
		logins = append(logins, login)
	}
	sort.Strings(logins)
	return logins
}

func (s ReviewerSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Logins())
}

func (s *ReviewerSet) UnmarshalJSON(data []byte) error {
	var logins []string
	if err := json.Unmarshal(data, &logins); err != nil {
		return err
	}
	*s = NewReviewerSet(logins...)
	return nil
}
