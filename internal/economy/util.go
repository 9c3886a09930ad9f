package economy

import (
	"encoding/hex"
	"encoding/json"
)

func hexEncode(b []byte) string { return hex.EncodeToString(b) }

func hexDecode(s string) ([]byte, error) { return hex.DecodeString(s) }

func decodeJSON(raw json.RawMessage, out interface{}) error { return json.Unmarshal(raw, out) }
