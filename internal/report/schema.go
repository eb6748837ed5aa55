package report

// Schema is the JSON Schema (Draft 2020-12) for the run report written
// by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/spyunit/run-report.schema.json",
  "title": "spyunit Run Report",
  "description": "Output schema for a suite run with --format=json",
  "type": "object",
  "required": ["version", "summary", "results", "started_at", "finished_at", "duration_ms"],
  "properties": {
    "version": {
      "type": "string",
      "description": "spyunit version that produced the report"
    },
    "summary": { "$ref": "#/$defs/Summary" },
    "results": {
      "type": "array",
      "items": { "$ref": "#/$defs/Result" }
    },
    "started_at": { "type": "string", "format": "date-time" },
    "finished_at": { "type": "string", "format": "date-time" },
    "duration_ms": {
      "type": "integer",
      "minimum": 0,
      "description": "Wall-clock duration of the whole run"
    }
  },
  "$defs": {
    "Summary": {
      "type": "object",
      "required": ["total", "passed", "failed", "errored", "ok"],
      "properties": {
        "total": { "type": "integer", "minimum": 0 },
        "passed": { "type": "integer", "minimum": 0 },
        "failed": { "type": "integer", "minimum": 0 },
        "errored": { "type": "integer", "minimum": 0 },
        "ok": { "type": "boolean" }
      }
    },
    "Result": {
      "type": "object",
      "required": ["case", "method", "status"],
      "properties": {
        "case": { "type": "string", "description": "Test case name" },
        "method": { "type": "string", "description": "Test method name" },
        "status": {
          "type": "string",
          "enum": ["passed", "failed", "errored"]
        },
        "target": {
          "type": "string",
          "description": "Entity patched for this test"
        },
        "calls": {
          "type": "integer",
          "minimum": 0,
          "description": "Calls recorded by the spy"
        },
        "message": {
          "type": "string",
          "description": "Assertion or unexpected error message"
        },
        "stack": {
          "type": "array",
          "items": { "$ref": "#/$defs/Frame" }
        },
        "debug": {
          "type": "array",
          "items": { "$ref": "#/$defs/DebugLine" }
        }
      }
    },
    "Frame": {
      "type": "object",
      "required": ["function", "file", "line"],
      "properties": {
        "function": { "type": "string" },
        "file": { "type": "string" },
        "line": { "type": "integer" }
      }
    },
    "DebugLine": {
      "type": "object",
      "required": ["time", "message"],
      "properties": {
        "time": { "type": "string", "format": "date-time" },
        "message": { "type": "string" }
      }
    }
  }
}`
