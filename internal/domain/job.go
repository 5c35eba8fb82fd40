package domain

import (
	"encoding/json"
	"time"
)

// JobType enumerates supported background job categories.
type JobType string

const (
	JobTypeCampaignGeneration JobType = "campaign_generation"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job tracks one execution of the campaign pipeline.
type Job struct {
	ID           string
	OwnerID      string
	Type         JobType
	Status       JobStatus
	Progress     int
	CurrentStep  string
	Input        CreateRequest
	Output       *JobOutput
	ErrorMessage string
	Usage        []UsageRecord
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// JobOutput references the artifact a completed job produced.
type JobOutput struct {
	ArtifactID string `json:"artifactId"`
	TokensUsed int    `json:"tokensUsed"`
}

// UsageRecord accounts the tokens of one completed provider sub-call.
type UsageRecord struct {
	Stage  string `json:"stage"`
	Model  string `json:"model"`
	Tokens int    `json:"tokens"`
}

// TokensUsed sums every recorded sub-call, whatever the job outcome.
func (j *Job) TokensUsed() int {
	if j == nil {
		return 0
	}
	total := 0
	for _, u := range j.Usage {
		total += u.Tokens
	}
	return total
}

// CreateRequest is the caller payload for a campaign job.
type CreateRequest struct {
	Brief            string         `json:"brief"`
	CampaignType     CampaignType   `json:"campaignType,omitempty"`
	Tone             Tone           `json:"tone,omitempty"`
	TargetProducts   []string       `json:"targetProducts,omitempty"`
	LayoutPreference FooterVariant  `json:"layoutPreference,omitempty"`
	ImageStyle       ImageStyle     `json:"imageStyle,omitempty"`
	CopyLength       CopyLength     `json:"copyLength,omitempty"`
	Locale           string         `json:"locale,omitempty"`
	Extras           map[string]any `json:"extras,omitempty"`
}

// MarshalInput encodes the request for storage.
func (r CreateRequest) MarshalInput() ([]byte, error) {
	return json.Marshal(r)
}
