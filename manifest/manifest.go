// Package manifest provides the version manifest format shared by the writer CLI
// and the runtime monitor.
//
// The manifest on disk is a Transport Envelope {"data": "<base64>"} whose data
// field is the base64 of the JSON VersionRecord. The base64 wrap is obfuscation
// only: anyone can decode it, and it offers no integrity or tamper protection.
package manifest

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is wrapped by every decode failure (envelope JSON, base64 or payload JSON).
var ErrMalformed = errors.New("malformed manifest")

// VersionRecord is the payload of a manifest.
type VersionRecord struct {
	Version   string `json:"version"`
	Timestamp int64  `json:"timestamp"` // epoch milliseconds
}

// NewRecord builds a record for version stamped at now.
func NewRecord(version string, now time.Time) VersionRecord {
	return VersionRecord{
		Version:   version,
		Timestamp: now.UnixMilli(),
	}
}

// Time returns the record timestamp as a time.Time.
func (r VersionRecord) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Envelope is the JSON document served to clients.
type Envelope struct {
	Data string `json:"data"`
}

// Encode wraps a record into an Envelope.
func Encode(r VersionRecord) (Envelope, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal version record: %w", err)
	}
	return Envelope{Data: base64.StdEncoding.EncodeToString(payload)}, nil
}

// Record unwraps the envelope payload.
func (e Envelope) Record() (VersionRecord, error) {
	payload, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return VersionRecord{}, fmt.Errorf("%w: data is not base64: %v", ErrMalformed, err)
	}

	var r *VersionRecord
	if err := json.Unmarshal(payload, &r); err != nil {
		return VersionRecord{}, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	if r == nil {
		return VersionRecord{}, fmt.Errorf("%w: payload is null", ErrMalformed)
	}
	return *r, nil
}

// Decode parses a raw manifest document (envelope JSON) into a record.
func Decode(raw []byte) (VersionRecord, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return VersionRecord{}, fmt.Errorf("%w: envelope: %v", ErrMalformed, err)
	}
	return e.Record()
}

// Changed reports whether next should be treated as a new version relative to
// baseline: no baseline yet, a different version string, or a strictly newer
// timestamp. An older timestamp with the same version is not a change.
func Changed(baseline *VersionRecord, next VersionRecord) bool {
	if baseline == nil {
		return true
	}
	if next.Version != baseline.Version {
		return true
	}
	return next.Timestamp > baseline.Timestamp
}
