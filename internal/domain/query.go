package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QueryJob represents one tracked unit of user work: a submitted
// question, polled by id until processing completes. The JSON shape is
// the persisted record shape and also the worker invocation payload.
type QueryJob struct {
	ID         string   `json:"query_id"`
	CreateTime int64    `json:"create_time"`
	QueryText  string   `json:"query_text"`
	AnswerText string   `json:"answer_text,omitempty"`
	Sources    []string `json:"sources"`
	IsComplete bool     `json:"is_complete"`
}

// NewQueryJob creates a pending QueryJob for the given question.
func NewQueryJob(queryText string) *QueryJob {
	return &QueryJob{
		ID:         strings.ReplaceAll(uuid.NewString(), "-", ""),
		CreateTime: time.Now().Unix(),
		QueryText:  queryText,
		Sources:    []string{},
	}
}

// Complete applies the terminal transition, setting answer, sources
// and the completion flag together. Duplicate completion of the same
// job converges because the store write is a full-record upsert.
func (j *QueryJob) Complete(answerText string, sources []string) {
	j.AnswerText = answerText
	if sources == nil {
		sources = []string{}
	}
	j.Sources = sources
	j.IsComplete = true
}

// ValidateQueryJob validates a QueryJob instance
func ValidateQueryJob(j *QueryJob) error {
	if j == nil {
		return fmt.Errorf("query job cannot be nil")
	}
	if j.ID == "" {
		return fmt.Errorf("query job ID is required")
	}
	if strings.TrimSpace(j.QueryText) == "" {
		return fmt.Errorf("query job QueryText is required")
	}
	if j.IsComplete && j.AnswerText == "" {
		return fmt.Errorf("completed query job must carry an answer")
	}
	return nil
}
