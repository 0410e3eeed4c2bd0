package models

import "time"

// Event is the envelope every message on the platform bus uses. Data carries
// the event-specific payload; producers keep it to JSON-safe primitive types
// so any consumer can decode it without the producer's structs.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Event types carried on the bus.
const (
	EventRecordUploaded    = "record.uploaded"
	EventRecordProcessed   = "record.processed"
	EventRecordShared      = "record.shared"
	EventShareRevoked      = "share.revoked"
	EventClaimSubmitted    = "claim.submitted"
	EventClaimUpdated      = "claim.updated"
	EventInsightsGenerated = "insights.generated"
)

// PatientIDKey is the Data key consumers use to route an event to a patient.
const PatientIDKey = "patient_id"
