package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"property-risk-lab/internal/domain"
)

// ComputeCandidateID computes a deterministic candidate_id using SHA256.
// Formula: SHA256(property_id|account_code|document_type|period_id|detector_id)
// Returns hex-encoded hash (64 characters).
func ComputeCandidateID(
	propertyID string,
	accountCode string,
	docType domain.DocumentType,
	periodID string,
	detectorID string,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		propertyID,
		accountCode,
		string(docType),
		periodID,
		detectorID,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeScoreID computes a deterministic score_id for one scoring run.
// Formula: SHA256(property_id|account_code|period_id|weight_version)
// Re-scoring with a new weight table yields a new id; repeating a run with
// the same snapshot is idempotent.
func ComputeScoreID(propertyID, accountCode, periodID, weightVersion string) string {
	data := fmt.Sprintf("%s|%s|%s|%s", propertyID, accountCode, periodID, weightVersion)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
