package apimodel

import "time"

// CheckInPayload is the user supplied part of a daily check-in.
type CheckInPayload struct {
	Mood     int    `json:"mood"`
	Feedback string `json:"feedback,omitempty"`
}

// RewardSummary carries reward values computed by the server. Clients may
// display them but never derive them.
type RewardSummary struct {
	PointsAwarded int `json:"pointsAwarded"`
	Streak        int `json:"streak"`
	TotalPoints   int `json:"totalPoints"`
}

// Record is an accepted check-in. It is immutable once returned.
type Record struct {
	ID            string         `json:"id"`
	PerformedAt   time.Time      `json:"performedAt"`
	Payload       CheckInPayload `json:"payload"`
	RewardSummary RewardSummary  `json:"rewardSummary"`
}

// StatusResponse answers whether today's check-in has been performed.
// "Today" is the server's calendar day.
type StatusResponse struct {
	CompletedToday bool      `json:"completedToday"`
	CanPerform     bool      `json:"canPerform"`
	NextEligibleAt time.Time `json:"nextEligibleAt"`
	Record         *Record   `json:"record,omitempty"`
}

// SubmitResponse is returned with 201 Created for an accepted check-in.
type SubmitResponse struct {
	Record        Record        `json:"record"`
	RewardSummary RewardSummary `json:"rewardSummary"`
}

// HistoryResponse lists records, most recent first. TotalPoints is the
// user's current balance; the reward summary on each record carries only
// what that check-in earned, so its TotalPoints is left zero.
type HistoryResponse struct {
	Records     []Record `json:"records"`
	TotalPoints int      `json:"totalPoints"`
}
