package vision

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
)

// Detection is the normalized result of one inference query. The three slices
// are always non-nil; a field absent from the raw response becomes an empty
// list. Element order within each slice is the service's response order and is
// treated as implicit best-first priority.
type Detection struct {
	Boxes    []Box     `json:"boxes"`
	Centers  []Center  `json:"centers"`
	Polygons []Polygon `json:"polygons"`
}

// Box is a labeled xywh rectangle in the pixel space of the image that was
// sent to the inference service.
type Box struct {
	Label string  `json:"label"`
	XYWH  []Coord `json:"xywh"`
	Score float64 `json:"score,omitempty"`
}

// Center is a labeled point detection.
type Center struct {
	Label string  `json:"label"`
	CX    Coord   `json:"cx"`
	CY    Coord   `json:"cy"`
	Score float64 `json:"score,omitempty"`
}

// Polygon is a labeled point-list detection.
type Polygon struct {
	Label  string    `json:"label"`
	Points [][]Coord `json:"points"`
	Score  float64   `json:"score,omitempty"`
}

// Coord is a single coordinate value that tolerates sloppy model output: it
// accepts JSON numbers and numeric strings, and records anything else as
// invalid instead of failing the surrounding document. Invalid coordinates
// cause the containing entry to be skipped during resolution.
type Coord struct {
	Value float64
	Valid bool
}

// UnmarshalJSON never returns an error; a non-coercible value simply leaves
// the coordinate invalid.
func (c *Coord) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.Valid = false
		return nil
	}
	c.Value = v
	c.Valid = true
	return nil
}

// MarshalJSON renders invalid coordinates as null.
func (c Coord) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// EmptyDetection returns a Detection with all lists present and empty, the
// degraded "nothing found" value every failure path collapses to.
func EmptyDetection() Detection {
	return Detection{Boxes: []Box{}, Centers: []Center{}, Polygons: []Polygon{}}
}

// Empty reports whether the detection holds no entries of any kind.
func (d Detection) Empty() bool {
	return len(d.Boxes) == 0 && len(d.Centers) == 0 && len(d.Polygons) == 0
}

// ParseDetection normalizes a raw inference response into a Detection.
// Decoding is tolerant at every level: an unparseable document degrades to an
// empty Detection, a geometry list of the wrong type is dropped, and a
// malformed entry is skipped without discarding its well-formed neighbors.
func ParseDetection(raw []byte) Detection {
	var doc struct {
		Boxes    json.RawMessage `json:"boxes"`
		Centers  json.RawMessage `json:"centers"`
		Polygons json.RawMessage `json:"polygons"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Printf("[Vision] failed to parse detection response: %v", err)
		return EmptyDetection()
	}

	det := EmptyDetection()
	for _, entry := range rawEntries("boxes", doc.Boxes) {
		var b Box
		if err := json.Unmarshal(entry, &b); err != nil {
			log.Printf("[Vision] skipping malformed box: %v", err)
			continue
		}
		det.Boxes = append(det.Boxes, b)
	}
	for _, entry := range rawEntries("centers", doc.Centers) {
		var c Center
		if err := json.Unmarshal(entry, &c); err != nil {
			log.Printf("[Vision] skipping malformed center: %v", err)
			continue
		}
		det.Centers = append(det.Centers, c)
	}
	for _, entry := range rawEntries("polygons", doc.Polygons) {
		var p Polygon
		if err := json.Unmarshal(entry, &p); err != nil {
			log.Printf("[Vision] skipping malformed polygon: %v", err)
			continue
		}
		det.Polygons = append(det.Polygons, p)
	}
	return det
}

// rawEntries splits a geometry list into its raw elements. A missing field or
// a value that is not a list yields nothing.
func rawEntries(field string, raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Printf("[Vision] dropping %s: not a list: %v", field, err)
		return nil
	}
	return entries
}
