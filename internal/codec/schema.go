/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codec

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema describes Payload for peers written against the wire format.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Payload))
	schema.Title = "Charades stickman pose"
	schema.Description = "Full skeleton state replicated from the active drawer to every other player"

	return schema
}

func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return append(data, '\n'), nil
}
