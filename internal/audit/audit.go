// Package audit records one append-only event per computation run (and per
// CQI trigger). Events are evidence for accreditation review: they carry the
// scope, the governance config version and a checksum of the inputs used, so
// any published attainment figure can be traced back to what produced it.
package audit

import (
	"context"
	"encoding/json"
	"time"
)

const (
	TypeCourseComputed  = "CourseAttainmentComputed"
	TypeProgramComputed = "ProgramAttainmentComputed"
	TypeComputeRefused  = "ComputationRefused"
	TypeCQITriggered    = "CQITriggered"
)

type Event struct {
	ID            string   `json:"id"` // run/event uuid
	Type          string   `json:"type"`
	ScopeKey      string   `json:"scope_key"`
	ConfigVersion string   `json:"config_version,omitempty"`
	InputChecksum string   `json:"input_checksum,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Details       string   `json:"details,omitempty"` // JSON payload
	CreatedAt     int64    `json:"created_at"`
}

// Emitter receives events. Implementations must be safe for concurrent use;
// distinct scopes may compute in parallel.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

// DetailsJSON marshals an arbitrary payload for Event.Details.
func DetailsJSON(v interface{}) string {
	buf, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(buf)
}

// Now is the timestamp format shared by emitters (unix seconds, matching the
// audit_log schema).
func Now() int64 { return time.Now().Unix() }
