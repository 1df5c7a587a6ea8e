package domain

import "time"

// RepoInfo describes the repository a report was generated for
type RepoInfo struct {
	Name      string    `json:"name"`
	FullName  string    `json:"fullName,omitempty"`
	IsPrivate bool      `json:"isPrivate"`
	CreatedAt time.Time `json:"createdAt"`
}

// Period is the requested merge-date window, as calendar dates
type Period struct {
	From  string `json:"from"`
	Until string `json:"until"`
}
