// Copyright 2020 New Relic Corporation. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package internal

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type dtVersion [2]int

func (v dtVersion) major() int { return v[0] }
func (v dtVersion) minor() int { return v[1] }

const (
	CallerTypeApp     = "App"
	CallerTypeBrowser = "Browser"
	CallerTypeMobile  = "Mobile"

	DistributedTraceNewRelicHeader      = "Newrelic"
	DistributedTraceW3CTraceStateHeader = "Tracestate"
	DistributedTraceW3CTraceParentHeader = "Traceparent"
)

var (
	currentDTVersion = dtVersion([2]int{0, 1})

	traceParentRegex        = regexp.MustCompile(`^([a-f0-9]{2})-([a-f0-9]{32})-([a-f0-9]{16})-([a-f0-9]{2})(-.*)?$`)
	traceParentFlagRegex    = regexp.MustCompile(`^([a-f0-9]{2})$`)
	fullTraceStateRegex     = regexp.MustCompile(`\d+@nr=[^,=]+,?`)
	newRelicTraceStateRegex = regexp.MustCompile(`(\d+)@nr=(\d)-(\d)-(\d+)-(\d+)-([a-f0-9]{16})?-([a-f0-9]{16})?-(\d)?-(\d\.\d+)?-(\d+),?`)
	traceStateVendorsRegex  = regexp.MustCompile(`((?:[\w_\-*\s/]*@)?[\w_\-*\s/]+)=[^,]*`)
)

// timeToUnixMillis and timeFromUnixMillis convert between time.Time
// and the millisecond-epoch wire format the DT payload uses (spec
// §6.3); the teacher's originals lived elsewhere in its package and
// were stripped from the retrieval pack, so they are reconstructed
// here from their obvious contract.
func timeToUnixMillis(t time.Time) uint64 {
	return uint64(t.UnixNano() / int64(time.Millisecond))
}

func timeFromUnixMillis(ms uint64) time.Time {
	return time.Unix(0, int64(ms)*int64(time.Millisecond))
}

// timestampMillis lets a DT payload marshal as milliseconds while
// being constructed from an ordinary time.Time.
type timestampMillis time.Time

func (tm *timestampMillis) UnmarshalJSON(data []byte) error {
	var millis uint64
	if err := json.Unmarshal(data, &millis); err != nil {
		return err
	}
	*tm = timestampMillis(timeFromUnixMillis(millis))
	return nil
}

func (tm timestampMillis) MarshalJSON() ([]byte, error) {
	return json.Marshal(timeToUnixMillis(tm.Time()))
}

func (tm timestampMillis) Time() time.Time  { return time.Time(tm) }
func (tm *timestampMillis) Set(t time.Time) { *tm = timestampMillis(t) }
func (tm *timestampMillis) UnixMillis() uint64 {
	return timeToUnixMillis(tm.Time())
}

// Payload is an inbound or outbound distributed-trace payload (spec
// §6.3, grounded on the teacher's internal.Payload).
type Payload struct {
	payloadCaller
	TransactionID string   `json:"tx,omitempty"`
	ID            string   `json:"id,omitempty"`
	TracedID      string   `json:"tr"`
	Priority      Priority `json:"pr"`
	// Sampled is a *bool so unset is distinguishable from false.
	Sampled              *bool           `json:"sa"`
	Timestamp            timestampMillis `json:"ti"`
	TransportDuration    time.Duration   `json:"-"`
	TrustedParentID      string          `json:"-"`
	TracingVendors       string          `json:"-"`
	HasNewRelicTraceInfo bool            `json:"-"`
	TrustedAccountKey    string          `json:"tk,omitempty"`
	NonTrustedTraceState string          `json:"-"`
}

type payloadCaller struct {
	TransportType string `json:"-"`
	Type          string `json:"ty"`
	App           string `json:"ap"`
	Account       string `json:"ac"`
}

func (p Payload) validateNewRelicData() error {
	if p.TransactionID == "" && p.ID == "" {
		return ErrPayloadMissingField{message: "missing both guid/id and TransactionId/tx"}
	}
	if p.Type == "" {
		return ErrPayloadMissingField{message: "missing Type/ty"}
	}
	if p.Account == "" {
		return ErrPayloadMissingField{message: "missing Account/ac"}
	}
	if p.App == "" {
		return ErrPayloadMissingField{message: "missing App/ap"}
	}
	if p.TracedID == "" {
		return ErrPayloadMissingField{message: "missing TracedID/tr"}
	}
	if p.Timestamp.Time().IsZero() || p.Timestamp.Time().Unix() == 0 {
		return ErrPayloadMissingField{message: "missing Timestamp/ti"}
	}
	return nil
}

func (p Payload) text(v dtVersion) []byte {
	if p.TrustedAccountKey == p.Account {
		p.TrustedAccountKey = ""
	}
	js, _ := json.Marshal(struct {
		Version dtVersion `json:"v"`
		Data    Payload   `json:"d"`
	}{Version: v, Data: p})
	return js
}

// NRText renders the payload as the New Relic proprietary header
// value (JSON, not base64).
func (p Payload) NRText() string { return string(p.text(currentDTVersion)) }

// NRHTTPSafe renders the payload base64-encoded, suitable for an HTTP
// header value.
func (p Payload) NRHTTPSafe() string {
	return base64.StdEncoding.EncodeToString(p.text(currentDTVersion))
}

var (
	typeMap = map[string]string{
		CallerTypeApp:     "0",
		CallerTypeBrowser: "1",
		CallerTypeMobile:  "2",
	}
	typeMapReverse = func() map[string]string {
		reversed := make(map[string]string)
		for k, v := range typeMap {
			reversed[v] = k
		}
		return reversed
	}()
)

const (
	w3cVersion        = "00"
	traceStateVersion = "0"
)

// W3CTraceParent renders the W3C traceparent header value.
func (p Payload) W3CTraceParent() string {
	flags := "00"
	if p.Sampled != nil && *p.Sampled {
		flags = "01"
	}
	return w3cVersion + "-" + p.TracedID + "-" + p.ID + "-" + flags
}

// W3CTraceState renders the W3C tracestate header value, with the New
// Relic entry prepended to any untrusted vendor entries carried
// through from the inbound payload.
func (p Payload) W3CTraceState() string {
	flags := "0"
	if p.Sampled != nil && *p.Sampled {
		flags = "1"
	}
	nrEntry := getTraceStatePrefix(p.TrustedAccountKey) + "=" +
		traceStateVersion + "-" +
		typeMap[p.Type] + "-" +
		p.Account + "-" +
		p.App + "-" +
		p.ID + "-" +
		p.TransactionID + "-" +
		flags + "-" +
		strconv.FormatFloat(float64(p.Priority), 'f', 5, 32) + "-" +
		strconv.FormatUint(p.Timestamp.UnixMillis(), 10)
	if p.NonTrustedTraceState != "" {
		nrEntry = nrEntry + "," + p.NonTrustedTraceState
	}
	return nrEntry
}

// SetSampled assigns the Sampled field through its pointer indirection.
func (p *Payload) SetSampled(sampled bool) { p.Sampled = &sampled }

// ErrPayloadParse indicates that the payload was malformed.
type ErrPayloadParse struct{ err error }

func (e ErrPayloadParse) Error() string {
	return fmt.Sprintf("unable to parse inbound payload: %s", e.err.Error())
}

// ErrPayloadMissingField indicates a required field was absent.
type ErrPayloadMissingField struct{ message string }

func (e ErrPayloadMissingField) Error() string {
	return fmt.Sprintf("payload is missing required fields: %s", e.message)
}

// ErrUnsupportedPayloadVersion indicates an unknown major version.
type ErrUnsupportedPayloadVersion struct{ version int }

func (e ErrUnsupportedPayloadVersion) Error() string {
	return fmt.Sprintf("unsupported major version number %d", e.version)
}

// AcceptPayload parses an inbound distributed-trace header set,
// preferring a New Relic tracestate entry over the Newrelic header
// when both W3C and legacy headers are present (spec §6.3).
func AcceptPayload(hdrs http.Header, trustedAccountKey string) (*Payload, error) {
	var payload Payload
	nrPayload := hdrs.Get(DistributedTraceNewRelicHeader)
	traceParentHdr := hdrs.Get(DistributedTraceW3CTraceParentHeader)

	switch {
	case nrPayload != "" && traceParentHdr != "":
		if err := processW3CHeaders(hdrs, trustedAccountKey, &payload); err != nil {
			if err := processNRDTString(nrPayload, &payload); err != nil {
				return nil, err
			}
		}
	case nrPayload != "":
		if err := processNRDTString(nrPayload, &payload); err != nil {
			return nil, err
		}
	case traceParentHdr != "":
		if err := processW3CHeaders(hdrs, trustedAccountKey, &payload); err != nil {
			return nil, err
		}
	default:
		return nil, nil
	}

	alloc := new(Payload)
	*alloc = payload
	return alloc, nil
}

func processNRDTString(str string, payload *Payload) error {
	if str == "" {
		return nil
	}
	var decoded []byte
	if str[0] == '{' {
		decoded = []byte(str)
	} else {
		var err error
		decoded, err = base64.StdEncoding.DecodeString(str)
		if err != nil {
			return ErrPayloadParse{err: err}
		}
	}
	envelope := struct {
		Version dtVersion       `json:"v"`
		Data    json.RawMessage `json:"d"`
	}{}
	if err := json.Unmarshal(decoded, &envelope); err != nil {
		return ErrPayloadParse{err: err}
	}
	if envelope.Version.major() == 0 && envelope.Version.minor() == 0 {
		return ErrPayloadMissingField{message: "missing v"}
	}
	if envelope.Version.major() > currentDTVersion.major() {
		return ErrUnsupportedPayloadVersion{version: envelope.Version.major()}
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return ErrPayloadParse{err: err}
	}
	payload.HasNewRelicTraceInfo = true
	return payload.validateNewRelicData()
}

func processW3CHeaders(hdrs http.Header, trustedAccountKey string, p *Payload) error {
	if err := processTraceParent(hdrs, p); err != nil {
		return err
	}
	return processTraceState(hdrs, trustedAccountKey, p)
}

var (
	errTooManyHdrs     = ErrPayloadParse{errors.New("too many TraceParent headers")}
	errNoHdrs          = ErrPayloadParse{errors.New("missing TraceParent header")}
	errNumEntries      = ErrPayloadParse{errors.New("invalid number of TraceParent entries")}
	errInvalidTraceID  = ErrPayloadParse{errors.New("invalid TraceParent trace ID")}
	errInvalidParentID = ErrPayloadParse{errors.New("invalid TraceParent parent ID")}
	errInvalidFlags    = ErrPayloadParse{errors.New("invalid TraceParent flags for this version")}
	errFieldNum        = ErrPayloadParse{errors.New("incorrect number of fields in TraceState")}
)

func processTraceParent(hdrs http.Header, p *Payload) error {
	traceParents := getAllValuesCaseInsensitive(hdrs, DistributedTraceW3CTraceParentHeader)
	if len(traceParents) > 1 {
		return errTooManyHdrs
	}
	if len(traceParents) < 1 {
		return errNoHdrs
	}
	sub := traceParentRegex.FindStringSubmatch(traceParents[0])
	if sub == nil || len(sub) != 6 {
		return errNumEntries
	}
	if !validateVersionAndFlags(sub) {
		return errInvalidFlags
	}
	p.TracedID = sub[2]
	if p.TracedID == "00000000000000000000000000000000" {
		return errInvalidTraceID
	}
	p.ID = sub[3]
	if p.ID == "0000000000000000" {
		return errInvalidParentID
	}
	return nil
}

func validateVersionAndFlags(sub []string) bool {
	if sub[1] == w3cVersion {
		if sub[5] != "" {
			return false
		}
		return traceParentFlagRegex.MatchString(sub[4])
	}
	return sub[1] != "ff"
}

func processTraceState(hdrs http.Header, trustedAccountKey string, p *Payload) error {
	traceStates := getAllValuesCaseInsensitive(hdrs, DistributedTraceW3CTraceStateHeader)
	fullTraceState := strings.Join(traceStates, ",")

	nrTraceState := findTrustedNREntry(fullTraceState, trustedAccountKey)
	p.TracingVendors, p.NonTrustedTraceState = parseNonTrustedTraceStates(fullTraceState, nrTraceState)
	if nrTraceState == "" {
		return nil
	}
	matches := newRelicTraceStateRegex.FindStringSubmatch(nrTraceState)
	if len(matches) != 11 {
		return errFieldNum
	}
	p.TrustedAccountKey = matches[1]
	p.Type = typeMapReverse[matches[3]]
	p.Account = matches[4]
	p.App = matches[5]
	p.TrustedParentID = matches[6]
	p.TransactionID = matches[7]

	switch matches[8] {
	case "1":
		p.SetSampled(true)
	case "0":
		p.SetSampled(false)
	}
	if priority, err := strconv.ParseFloat(matches[9], 32); err == nil {
		p.Priority = Priority(priority)
	}
	if ts, err := strconv.ParseUint(matches[10], 10, 64); err == nil {
		p.Timestamp = timestampMillis(timeFromUnixMillis(ts))
	}
	p.HasNewRelicTraceInfo = true
	return nil
}

func getAllValuesCaseInsensitive(hdrs http.Header, key string) []string {
	result := make([]string, 0, 1)
	for k, v := range hdrs {
		if key == http.CanonicalHeaderKey(k) {
			result = append(result, v...)
		}
	}
	return result
}

func parseNonTrustedTraceStates(fullTraceState, trustedTraceState string) (vendors, state string) {
	vendorMatches := traceStateVendorsRegex.FindAllStringSubmatch(fullTraceState, -1)
	if len(vendorMatches) == 0 {
		return
	}
	var vendorList, stateList []string
	for _, vendorMatch := range vendorMatches {
		if vendorMatch[0] == trustedTraceState {
			continue
		}
		if len(vendorMatch) != 2 {
			break
		}
		if vendorMatch[1] != "" {
			vendorList = append(vendorList, vendorMatch[1])
			stateList = append(stateList, vendorMatch[0])
		}
	}
	return strings.Join(vendorList, ","), strings.Join(stateList, ",")
}

func findTrustedNREntry(fullTraceState, trustedAccount string) string {
	submatches := fullTraceStateRegex.FindAllStringSubmatch(fullTraceState, -1)
	prefix := getTraceStatePrefix(trustedAccount)
	for _, str := range submatches {
		if strings.HasPrefix(str[0], prefix) {
			return str[0]
		}
	}
	return ""
}

func getTraceStatePrefix(trustedAccount string) string {
	return trustedAccount + "@nr"
}
