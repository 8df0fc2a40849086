package tools

import (
	"encoding/json"

	"termagent/internal/llm/core"
)

// decodeParams decodes raw into target. Anything that is not a JSON object
// decodes as an empty object, leaving validation to the tool.
func decodeParams(raw json.RawMessage, target any) error {
	return json.Unmarshal(core.NormalizeArguments(raw), target)
}
