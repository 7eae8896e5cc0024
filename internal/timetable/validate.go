package timetable

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the GET /settings / timetable.json shape. It
// catches structural mistakes (wrong types, missing fields, out-of-range
// differential) before the semantic checks in validateDocument run.
const documentSchema = `{
  "type": "object",
  "required": ["status", "temperatures", "differential", "grace_time", "scale", "cooling", "timetable"],
  "properties": {
    "status": {"type": "string", "enum": ["auto", "on", "off", "tmax", "tmin", "t0"]},
    "temperatures": {
      "type": "object",
      "required": ["tmax", "tmin", "t0"],
      "properties": {
        "tmax": {"type": "number"},
        "tmin": {"type": "number"},
        "t0": {"type": "number"}
      }
    },
    "differential": {"type": "number", "minimum": 0, "maximum": 1},
    "grace_time": {"type": ["integer", "null"], "minimum": 0},
    "scale": {"type": "string", "enum": ["celsius", "fahrenheit"]},
    "cooling": {"type": "boolean"},
    "timetable": {"type": "object"}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

func validateSchema(doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return newContentError(fmt.Sprintf("unable to marshal document for validation: %v", err))
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return newContentError(fmt.Sprintf("schema validation error: %v", err))
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return newContentError(fmt.Sprintf("schema validation failed: %v", msgs))
	}
	return nil
}

// validateDocument runs schema validation followed by the semantic rules
// from invariant I1: tmin <= tmax, a known mode and scale, a differential
// within [0,1], a non-negative grace_time, and a fully populated matrix.
func validateDocument(doc Document) error {
	if err := validateSchema(doc); err != nil {
		return err
	}
	if !doc.Mode.Valid() {
		return newContentError(fmt.Sprintf("unknown mode %q", doc.Mode))
	}
	if !doc.Scale.Valid() {
		return newContentError(fmt.Sprintf("unknown scale %q", doc.Scale))
	}
	if doc.Temperatures.Tmin > doc.Temperatures.Tmax {
		return newContentError("tmin must be less than or equal to tmax")
	}
	if doc.Differential < 0 || doc.Differential > 1 {
		return newContentError("differential must be within [0,1]")
	}
	if doc.GraceTime != nil && *doc.GraceTime < 0 {
		return newContentError("grace_time must be >= 0")
	}
	if !doc.Timetable.Complete() {
		return newContentError("timetable matrix must be complete with 672 valid aliases")
	}
	return nil
}
