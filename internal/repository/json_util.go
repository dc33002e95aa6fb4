package repository

import "encoding/json"

// nullJSON prepares an optional JSONB payload for the driver: an empty
// RawMessage becomes SQL NULL instead of the empty string Postgres rejects.
func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// rawOrNil turns a scanned JSONB column back into a RawMessage, keeping
// NULL as nil.
func rawOrNil(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
