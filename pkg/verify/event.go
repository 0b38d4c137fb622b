// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import "time"

// EventType identifies the verification phase an Event was produced by.
type EventType string

const (
	// EventChecksum is produced by the checksum phase.
	EventChecksum EventType = "checksum"

	// EventHeaderDigest is produced by the header-digest phase.
	EventHeaderDigest EventType = "header_digest"

	// EventSignature is produced by the signature phase.
	EventSignature EventType = "signature"
)

// NotComputed is the placeholder recorded in an Event for a value that could not be
// calculated due to an earlier error.
const NotComputed = "(not computed)"

// Event records the outcome of a single attempted verification phase. One Event is
// produced for every phase that was attempted, regardless of outcome; phases disabled
// by policy produce no Event.
type Event struct {
	Type        EventType `json:"type"`
	Success     bool      `json:"success"`
	Algorithm   string    `json:"algorithm,omitempty"`
	Expected    string    `json:"expected,omitempty"`
	Actual      string    `json:"actual,omitempty"`
	Path        string    `json:"path"`
	SourceURL   string    `json:"source_url"`
	KeyID       string    `json:"key_id,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	App         string    `json:"app,omitempty"`
	Time        time.Time `json:"time"`
}

// EventSink receives an Event for every verification phase attempted. External systems
// may persist these as an audit log; the package does not retain them.
type EventSink interface {
	Emit(e Event)
}

// EventSinkFunc adapts a function to an EventSink.
type EventSinkFunc func(e Event)

// Emit calls f(e).
func (f EventSinkFunc) Emit(e Event) { f(e) }

// Reporter receives a human-readable report for every hard verification failure.
// Exactly one report is produced per failed verification.
type Reporter interface {
	Report(kind Kind, msg, app string)
}

// ReporterFunc adapts a function to a Reporter.
type ReporterFunc func(kind Kind, msg, app string)

// Report calls f(kind, msg, app).
func (f ReporterFunc) Report(kind Kind, msg, app string) { f(kind, msg, app) }
