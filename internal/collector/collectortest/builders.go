package collectortest

import (
	"strconv"
	"time"

	"github.com/google/go-github/v55/github"
)

// PR builds a merged pull request; a nil mergedAt leaves it closed unmerged
func PR(id int64, number int, createdAt, updatedAt time.Time, mergedAt *time.Time) *github.PullRequest {
	pr := &github.PullRequest{
		ID:        github.Int64(id),
		Number:    github.Int(number),
		Title:     github.String("Change " + strconv.Itoa(number)),
		HTMLURL:   github.String("https://github.com/octo/widgets/pull/" + strconv.Itoa(number)),
		User:      &github.User{Login: github.String("author")},
		State:     github.String("closed"),
		CreatedAt: &github.Timestamp{Time: createdAt},
		UpdatedAt: &github.Timestamp{Time: updatedAt},
	}
	if mergedAt != nil {
		pr.MergedAt = &github.Timestamp{Time: *mergedAt}
	}
	return pr
}

// Reviews builds one review per login
func Reviews(logins ...string) []*github.PullRequestReview {
	reviews := make([]*github.PullRequestReview, 0, len(logins))
	for _, login := range logins {
		reviews = append(reviews, &github.PullRequestReview{User: &github.User{Login: github.String(login)}})
	}
	return reviews
}

// Commits builds commits authored at the given times, in order
func Commits(dates ...time.Time) []*github.RepositoryCommit {
	commits := make([]*github.RepositoryCommit, 0, len(dates))
	for _, d := range dates {
		commits = append(commits, &github.RepositoryCommit{
			Commit: &github.Commit{Author: &github.CommitAuthor{Date: &github.Timestamp{Time: d}}},
		})
	}
	return commits
}

// Comments builds n issue comments
func Comments(n int) []*github.IssueComment {
	comments := make([]*github.IssueComment, 0, n)
	for i := 0; i < n; i++ {
		comments = append(comments, &github.IssueComment{ID: github.Int64(int64(i + 1))})
	}
	return comments
}

// Ptr returns a pointer to t
func Ptr(t time.Time) *time.Time {
	return &t
}
