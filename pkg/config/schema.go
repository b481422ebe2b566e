// The config file schema is described at runtime instead of through generated code. Every leaf field is named after
// the flag it sets; message fields that aren't well-known leaves (google.protobuf.Duration) only group flags.

package config

import (
	"fmt"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	_ "google.golang.org/protobuf/types/known/durationpb" // Registers google/protobuf/duration.proto.
)

const (
	configFileName    = "ttlcache/config.proto"
	configPackage     = "ttlcache"
	configMessageName = "Config"
	durationFullName  = "google.protobuf.Duration"
)

// configSchema returns the descriptor of the ttlcache.Config message, built once.
var configSchema = sync.OnceValues(func() (protoreflect.MessageDescriptor, error) {
	fd, err := protodesc.NewFile(configFileDescriptor(), protoregistry.GlobalFiles)
	if err != nil {
		return nil, fmt.Errorf("failed to build config schema: %w", err)
	}
	return fd.Messages().ByName(configMessageName), nil
})

// configFileDescriptor describes:
//
//	message Logging { optional string log_handler_type = 1; optional string log_level = 2; }
//	message Reaper { google.protobuf.Duration ttl_sweep_interval = 1; google.protobuf.Duration ttl_sweep_lock_wait = 2; }
//	message Demo { google.protobuf.Duration demo_ttl = 1; optional int32 demo_rounds = 2; google.protobuf.Duration demo_delay = 3; }
//	message Config { Logging logging = 1; Reaper reaper = 2; Demo demo = 3; optional string metrics_address = 4; }
//
// Scalars are optional so that `demo_rounds: 0` or `metrics_address: ""` still overrides the flag.
func configFileDescriptor() *descriptorpb.FileDescriptorProto {
	return &descriptorpb.FileDescriptorProto{
		Name:       proto.String(configFileName),
		Package:    proto.String(configPackage),
		Syntax:     proto.String("proto3"),
		Dependency: []string{"google/protobuf/duration.proto"},
		MessageType: []*descriptorpb.DescriptorProto{
			newMessage("Logging",
				newScalarField("log_handler_type", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				newScalarField("log_level", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
			newMessage("Reaper",
				newMessageField("ttl_sweep_interval", 1, "."+durationFullName),
				newMessageField("ttl_sweep_lock_wait", 2, "."+durationFullName)),
			newMessage("Demo",
				newMessageField("demo_ttl", 1, "."+durationFullName),
				newScalarField("demo_rounds", 2, descriptorpb.FieldDescriptorProto_TYPE_INT32),
				newMessageField("demo_delay", 3, "."+durationFullName)),
			newMessage(configMessageName,
				newMessageField("logging", 1, "."+configPackage+".Logging"),
				newMessageField("reaper", 2, "."+configPackage+".Reaper"),
				newMessageField("demo", 3, "."+configPackage+".Demo"),
				newScalarField("metrics_address", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING)),
		},
	}
}

// newMessage declares a message. Scalar fields get proto3 presence, which the descriptor expresses as a synthetic
// oneof per field.
func newMessage(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	message := &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
	for _, field := range fields {
		if field.GetType() == descriptorpb.FieldDescriptorProto_TYPE_MESSAGE {
			continue
		}
		field.Proto3Optional = proto.Bool(true)
		field.OneofIndex = proto.Int32(int32(len(message.OneofDecl)))
		message.OneofDecl = append(message.OneofDecl,
			&descriptorpb.OneofDescriptorProto{Name: proto.String("_" + field.GetName())})
	}
	return message
}

func newScalarField(name string, number int32,
	kind descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   kind.Enum(),
	}
}

func newMessageField(name string, number int32, typeName string) *descriptorpb.FieldDescriptorProto {
	field := newScalarField(name, number, descriptorpb.FieldDescriptorProto_TYPE_MESSAGE)
	field.TypeName = proto.String(typeName)
	return field
}
