package server

import (
	"encoding/json"
	"fmt"
)

// jsonCodec lets connect marshal plain Go structs. It replaces connect's
// built-in "json" codec, which only accepts protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal() > %w", err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("json.Unmarshal() > %w", err)
	}
	return nil
}
