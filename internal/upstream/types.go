// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

// Package upstream talks to the four TomTom-style endpoints the chokepoint
// pipeline uses: vector flow tiles, point-query flow segment data, incident
// details, and reverse geocoding. Each endpoint family has its own circuit
// breaker; fan-out concurrency is bounded by the callers, not here.
// Malformed or unreachable responses are reported as errors and left to
// the pipeline to tolerate.
package upstream

import "fmt"

// TransportError wraps a non-2xx response or network failure from one of
// the four upstream endpoints, tagged with which endpoint family raised
// it ("tile", "flow_segment", "incidents", "reverse_geocode"). The pipeline
// stages that fan out tile/sub-bbox/probe requests never propagate these;
// they drop the offending item from its batch.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error calling %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// FlowSegmentData is the point-query response for a single lat/lon: current
// vs. free-flow speed and the provider's own confidence in the reading.
type FlowSegmentData struct {
	FrcRoadClass     string  `json:"frc"`
	CurrentSpeed     float64 `json:"currentSpeed"`
	FreeFlowSpeed    float64 `json:"freeFlowSpeed"`
	CurrentTravelTime float64 `json:"currentTravelTime"`
	FreeFlowTravelTime float64 `json:"freeFlowTravelTime"`
	Confidence       float64 `json:"confidence"`
	RoadClosure      bool    `json:"roadClosure"`
}

// flowSegmentEnvelope mirrors the provider's outer object; the segment data
// itself is nested one level down.
type flowSegmentEnvelope struct {
	FlowSegmentData FlowSegmentData `json:"flowSegmentData"`
}

// IncidentGeometry carries a Point or LineString in WGS84 degrees; only the
// first coordinate is ever used downstream, but the full shape is kept for
// fidelity.
type IncidentGeometry struct {
	Type        string      `json:"type"`
	Coordinates interface{} `json:"coordinates"`
}

// IncidentProperties holds the permissively-parsed subset of incident
// properties the pipeline cares about. Upstream sends many more fields;
// anything not listed here is ignored.
type IncidentProperties struct {
	ID          string `json:"id"`
	IconCategory int    `json:"iconCategory"`
	RoadClosed  bool   `json:"roadClosed"`
	MagnitudeOfDelay int `json:"magnitudeOfDelay"`
}

// RawIncident is one GeoJSON-ish feature from the incident details feed.
type RawIncident struct {
	Type       string             `json:"type"`
	Properties IncidentProperties `json:"properties"`
	Geometry   IncidentGeometry   `json:"geometry"`
}

// incidentsEnvelope models the provider's response, which wraps the
// incident list in an object keyed "incidents"; decodeIncidentsPermissive
// normalizes this and the bare-list variant at the boundary.
type incidentsEnvelope struct {
	Incidents []RawIncident `json:"incidents"`
}

// ReverseGeocodeResult is the single best address match for a coordinate.
type ReverseGeocodeResult struct {
	Address struct {
		FreeformAddress string `json:"freeformAddress"`
		StreetName      string `json:"streetName"`
	} `json:"address"`
}

type reverseGeocodeEnvelope struct {
	Addresses []ReverseGeocodeResult `json:"addresses"`
}
