package grpckv

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SetRequest holds the arguments of a Set call.
type SetRequest struct {
	Key         string
	Value       []byte
	Expiry      int
	PersistTo   int
	ReplicateTo int
}

// Store is implemented by servers of the Set method. Set returns the
// value the write resolved to. Returning a status error with code
// DeadlineExceeded or Unavailable makes clients retry the write.
type Store interface {
	Set(ctx context.Context, req SetRequest) ([]byte, error)
}

// RegisterStoreServer registers store with s.
func RegisterStoreServer(s grpc.ServiceRegistrar, store Store) {
	s.RegisterService(&storeServiceDesc, store)
}

var storeServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*Store)(nil),
	Methods: []grpc.MethodDesc{{
		MethodName: "Set",
		Handler:    setHandler,
	}},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kvsink/store.proto",
}

func setHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		r, err := decodeSetRequest(req.(*structpb.Struct))
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		v, err := srv.(Store).Set(ctx, r)
		if err != nil {
			return nil, err
		}
		return wrapperspb.Bytes(v), nil
	}
	if interceptor == nil {
		return handler(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: setMethod,
	}
	return interceptor(ctx, in, info, handler)
}

func decodeSetRequest(s *structpb.Struct) (SetRequest, error) {
	fields := s.GetFields()
	key := fields["key"].GetStringValue()
	if key == "" {
		return SetRequest{}, errors.New("key must not be empty")
	}
	// structpb encodes byte slices as base64 strings.
	value, err := base64.StdEncoding.DecodeString(fields["value"].GetStringValue())
	if err != nil {
		return SetRequest{}, errors.Wrap(err, "invalid value")
	}
	return SetRequest{
		Key:         key,
		Value:       value,
		Expiry:      int(fields["expiry"].GetNumberValue()),
		PersistTo:   int(fields["persistTo"].GetNumberValue()),
		ReplicateTo: int(fields["replicateTo"].GetNumberValue()),
	}, nil
}
