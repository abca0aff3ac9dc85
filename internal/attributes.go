// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

// AttributeDestination is a bitset naming where an attribute should be
// allowed to surface.
type AttributeDestination int

const (
	DestTxnTrace AttributeDestination = 1 << iota
	DestTxnEvent
	DestError
	DestErrorEvent
	DestSpanEvent
	DestBrowser

	destNone AttributeDestination = 0
	destAll  AttributeDestination = DestTxnTrace | DestTxnEvent | DestError | DestErrorEvent | DestSpanEvent | DestBrowser
)

// UserAttributes is a flat key/value bag attached to a segment or
// transaction.  Keys are not deduplicated against agent attributes:
// callers own that distinction.
type UserAttributes map[string]any

// SegmentType names the kind of typed attributes a segment carries
// (spec §3.2).
type SegmentType int

const (
	SegmentTypeCustom SegmentType = iota
	SegmentTypeDatastore
	SegmentTypeExternal
)

// DatastoreInstance is the instance sub-record of a datastore segment's
// typed attributes (spec §3.2).
type DatastoreInstance struct {
	Host           string
	PortPathOrID   string
	DatabaseName   string
}

// DatastoreAttributes is the typed-attribute payload for a Datastore
// segment (spec §3.2).
type DatastoreAttributes struct {
	Component        string
	SQL              string
	SQLObfuscated    string
	InputQueryJSON   string
	BacktraceJSON    string
	ExplainPlanJSON  string
	Instance         *DatastoreInstance
}

// ExternalAttributes is the typed-attribute payload for an External
// segment (spec §3.2).
type ExternalAttributes struct {
	TransactionGUID string
	URI             string
	Library         string
	Procedure       string
}

// TypedAttributes is the tagged union described in spec §3.2/§4.3. Only
// the field matching Type is ever populated; changing Type frees
// whichever was previously set.
type TypedAttributes struct {
	Type      SegmentType
	Datastore DatastoreAttributes
	External  ExternalAttributes
}

// Reset clears the typed attribute payload and sets a new active type,
// as required before set_custom/set_datastore/set_external (spec §4.3).
func (t *TypedAttributes) Reset(typ SegmentType) {
	t.Type = typ
	t.Datastore = DatastoreAttributes{}
	t.External = ExternalAttributes{}
}

// SetDatastore deep-copies d's string fields into the segment's typed
// attributes.  An empty string field in d is stored as absent.
func (t *TypedAttributes) SetDatastore(d DatastoreAttributes) {
	t.Reset(SegmentTypeDatastore)
	t.Datastore = d
	if d.Instance != nil {
		inst := *d.Instance
		t.Datastore.Instance = &inst
	}
}

// SetExternal deep-copies e's string fields into the segment's typed
// attributes.
func (t *TypedAttributes) SetExternal(e ExternalAttributes) {
	t.Reset(SegmentTypeExternal)
	t.External = e
}

// SetCustom clears any typed attributes, marking the segment as a
// plain Custom segment.
func (t *TypedAttributes) SetCustom() {
	t.Reset(SegmentTypeCustom)
}
