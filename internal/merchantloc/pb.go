package merchantloc

import "google.golang.org/grpc"

// LocationUpdate represents a streamed merchant position report.
type LocationUpdate struct {
	MerchantId string
	Lat        float64
	Lng        float64
	Ts         int64
}

// Ack is returned when the stream closes.
type Ack struct{}

// LocationServer defines the gRPC contract.
type LocationServer interface {
	StreamLocation(Location_StreamLocationServer) error
}

// RegisterLocationServer registers the service implementation.
func RegisterLocationServer(s *grpc.Server, srv LocationServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "merchantloc.Location",
		HandlerType: (*LocationServer)(nil),
		Streams: []grpc.StreamDesc{{
			StreamName:    "StreamLocation",
			Handler:       _Location_StreamLocation_Handler,
			ServerStreams: true,
			ClientStreams: true,
		}},
	}, srv)
}

// Location_StreamLocationServer defines the bidi stream interface.
type Location_StreamLocationServer interface {
	grpc.ServerStream
	SendAndClose(*Ack) error
	Recv() (*LocationUpdate, error)
}

func _Location_StreamLocation_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(LocationServer).StreamLocation(&locationStreamServer{ServerStream: stream})
}

type locationStreamServer struct {
	grpc.ServerStream
}

func (s *locationStreamServer) SendAndClose(*Ack) error { return nil }

func (s *locationStreamServer) Recv() (*LocationUpdate, error) {
	msg := new(LocationUpdate)
	if err := s.ServerStream.RecvMsg(msg); err != nil {
		return nil, err
	}
	return msg, nil
}
