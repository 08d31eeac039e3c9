package codeforces

import (
	"fmt"
	"time"
)

const (
	VerdictOK          = "OK"
	problemURLTemplate = "https://codeforces.com/problemset/problem/%d/%s"
)

type Problem struct {
	ContestID int32    `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    *int32   `json:"rating"`
	Tags      []string `json:"tags"`
}

// ID is the contest id followed by the index, e.g. 1850A
func (p Problem) ID() string {
	return ProblemID(p.ContestID, p.Index)
}

func (p Problem) URL() string {
	return ProblemURL(p.ContestID, p.Index)
}

type Submission struct {
	ID                  int64   `json:"id"`
	ContestID           int32   `json:"contestId"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Problem             Problem `json:"problem"`
	Verdict             string  `json:"verdict"`
}

func (s Submission) CreatedAt() time.Time {
	return time.Unix(s.CreationTimeSeconds, 0).UTC()
}

func (s Submission) Accepted() bool {
	return s.Verdict == VerdictOK
}

type User struct {
	Handle string `json:"handle"`
	Rating *int32 `json:"rating"`
}

type envelope struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

type problemsetResult struct {
	Problems []Problem `json:"problems"`
}

func ProblemID(contestID int32, index string) string {
	return fmt.Sprintf("%d%s", contestID, index)
}

func ProblemURL(contestID int32, index string) string {
	return fmt.Sprintf(problemURLTemplate, contestID, index)
}
