// Package rpc wires the pokernight.v1 services into Connect handlers and
// clients. The wire types in pkg/api are plain structs, so every procedure is
// registered with a JSON codec instead of the default protobuf codecs.
package rpc

import "encoding/json"

// jsonCodec implements connect.Codec over encoding/json. Registering it under
// the name "json" replaces Connect's protojson codec, so handlers and clients
// speak plain application/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	return json.Unmarshal(data, message)
}
