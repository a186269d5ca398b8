package utils

import (
	"encoding/json"
	"fmt"

	"github.com/topfreegames/pitaya/v3/pkg/logger"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func TypeUrl(src proto.Message) string {
	any, err := anypb.New(src)
	if err != nil {
		logger.Log.Error(err)
		return ""
	}

	return any.GetTypeUrl()
}

func ToAny(ack proto.Message) *anypb.Any {
	data, err := anypb.New(ack)
	if err != nil {
		logger.Log.Error(err)
		return nil
	}
	return data
}

// ToStruct 带json tag的结构体转成structpb
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%T is not a json object: %w", v, err)
	}
	return s, nil
}

// FromStruct ToStruct的逆操作
func FromStruct(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Envelope 推送给客户端的消息，typ区分消息种类
func Envelope(typ string, payload any) (*anypb.Any, error) {
	data, err := ToStruct(payload)
	if err != nil {
		return nil, err
	}
	msg, err := structpb.NewStruct(map[string]any{"type": typ})
	if err != nil {
		return nil, err
	}
	msg.Fields["data"] = structpb.NewStructValue(data)
	return anypb.New(msg)
}

// OpenEnvelope 取出消息种类和内容
func OpenEnvelope(msg *anypb.Any) (string, *structpb.Struct, error) {
	s := &structpb.Struct{}
	if err := msg.UnmarshalTo(s); err != nil {
		return "", nil, err
	}
	return s.Fields["type"].GetStringValue(), s.Fields["data"].GetStructValue(), nil
}
