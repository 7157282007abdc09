package models

import "encoding/json"

// RawEvent is the wire shape of an incoming event before normalization.
// The front-end clients are not consistent about field names, so every
// historical alias is accepted and resolved by a fixed precedence.
type RawEvent struct {
	EventType  string         `json:"event_type"`
	Type       string         `json:"type"`
	Event      string         `json:"event"`
	Page       string         `json:"page"`
	Properties map[string]any `json:"properties"`
	Data       map[string]any `json:"data"`
}

// RawResult is the wire shape of an incoming quiz result.
type RawResult struct {
	ResultName string         `json:"result_name"`
	Scores     map[string]any `json:"scores"`
}

// DefaultEventType is assigned when no type field is present.
const DefaultEventType = "custom"

// UnknownResultName marks a result submitted without a name.
const UnknownResultName = "unknown"

// Normalize resolves the raw payload into an Event with every field
// defaulted. Precedence per field:
//
//	event_type: event_type > type > event > "custom"
//	page:       page > properties["page"] > data["page"] > ""
//	properties: properties > data > {}
//
// The id, timestamp, session and source IP are stamped by the caller.
func (r RawEvent) Normalize() Event {
	eventType := r.EventType
	if eventType == "" {
		eventType = r.Type
	}
	if eventType == "" {
		eventType = r.Event
	}
	if eventType == "" {
		eventType = DefaultEventType
	}

	props := r.Properties
	if props == nil {
		props = r.Data
	}
	if props == nil {
		props = map[string]any{}
	}

	page := r.Page
	if page == "" {
		if v, ok := props["page"].(string); ok {
			page = v
		}
	}

	raw, err := json.Marshal(props)
	if err != nil {
		raw = []byte("{}")
	}

	return Event{
		Page:       page,
		EventType:  eventType,
		Properties: raw,
	}
}

// Normalize resolves the raw payload into a Result with defaults applied.
func (r RawResult) Normalize() Result {
	name := r.ResultName
	if name == "" {
		name = UnknownResultName
	}

	scores := r.Scores
	if scores == nil {
		scores = map[string]any{}
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		raw = []byte("{}")
	}

	return Result{
		ResultName: name,
		Scores:     raw,
	}
}
