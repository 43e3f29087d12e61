package proto

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements google.golang.org/grpc/encoding.Codec over the plain
// structs in trace.pb.go, in place of protobuf wire format. Registering it
// under the name "proto" - grpc-go's default content-subtype - means every
// RPC on IngestionService uses it without callers opting in per call; it is
// also exposed as Codec below so a caller can pin it explicitly via
// grpc.ForceServerCodec instead of depending on package-init ordering.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "proto" }

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("proto: unmarshal %T: %w", v, err)
	}
	return nil
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Codec is the grpc codec IngestionService's messages require: none of them
// implement protoreflect.ProtoMessage, so the grpc-go default "proto" codec
// (backed by google.golang.org/protobuf/proto.Marshal) cannot carry them.
var Codec encoding.Codec = jsonCodec{}
