package domain

// FeedbackLabel is a human verdict on an anomaly candidate.
type FeedbackLabel string

const (
	FeedbackConfirmed FeedbackLabel = "CONFIRMED"
	FeedbackDismissed FeedbackLabel = "DISMISSED"
	FeedbackUncertain FeedbackLabel = "UNCERTAIN"
)

// AnomalyFeedback attaches a review label to a candidate.
// Corresponds to anomaly_feedback table in PostgreSQL. Append-only;
// consumed only by the calibration service.
type AnomalyFeedback struct {
	FeedbackID  string
	CandidateID string
	Label       FeedbackLabel
	Reviewer    string
	CreatedAt   int64 // Unix timestamp in milliseconds
}
