// Package wire implements the client-facing request boundary (spec §6):
// a hand-registered grpc.ServiceDesc exactly like tinySQL's
// cmd/server/main.go TinySQLServer, carrying the nineteen request kinds
// listed there (BeginSession, ExecuteStatement, Sync, Checkpoint, …)
// instead of tinySQL's Exec/Query pair. No protoc, no .proto file: the
// method table and JSON codec are both written by hand, following the
// teacher's own pattern rather than introducing protobuf generation
// tooling the teacher never uses.
package wire

import "encoding/json"

// JSONCodec lets the hand-registered ServiceDesc exchange plain JSON
// request/response structs instead of protobuf messages, identical to
// tinySQL's jsonCodec. Exported so cmd/sydneyd can pass it to
// encoding.RegisterCodec at server-startup time.
type JSONCodec struct{}

func (JSONCodec) Name() string                      { return "json" }
func (JSONCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
