package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"hostwatch-agent/internal/model"
)

const (
	healthServiceName     = "hostwatch.health.v1.HealthService"
	StreamSnapshotsMethod = "/" + healthServiceName + "/StreamSnapshots"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec carries snapshots over gRPC as plain JSON so no generated
// protobuf types are needed on either side.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// StreamRequest opens a snapshot stream. MaxSnapshots <= 0 streams until
// the caller cancels.
type StreamRequest struct {
	MaxSnapshots int `json:"max_snapshots,omitempty"`
}

type SnapshotStreamer interface {
	StreamSnapshots(req *StreamRequest, stream grpc.ServerStream) error
}

var healthServiceDesc = grpc.ServiceDesc{
	ServiceName: healthServiceName,
	HandlerType: (*SnapshotStreamer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamSnapshots",
			Handler:       streamSnapshotsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "hostwatch/health/v1/health.proto",
}

func streamSnapshotsHandler(srv any, stream grpc.ServerStream) error {
	req := new(StreamRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(SnapshotStreamer).StreamSnapshots(req, stream)
}

// GRPCService serves the live feed as a gRPC server stream.
type GRPCService struct {
	logger    *slog.Logger
	publisher *Publisher
}

func NewGRPCService(logger *slog.Logger, publisher *Publisher) *GRPCService {
	return &GRPCService{logger: logger, publisher: publisher}
}

// NewGRPCServer returns a server with the health service registered.
func NewGRPCServer(svc *GRPCService, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ForceServerCodec(jsonCodec{}))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&healthServiceDesc, svc)
	return srv
}

func (s *GRPCService) StreamSnapshots(req *StreamRequest, stream grpc.ServerStream) error {
	if req.MaxSnapshots < 0 {
		return status.Error(codes.InvalidArgument, "max_snapshots must not be negative")
	}
	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()

	remote := ""
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		remote = p.Addr.String()
	}

	sent := 0
	sink := SinkFunc(func(_ context.Context, snap model.HealthSnapshot) error {
		if err := stream.SendMsg(&snap); err != nil {
			return err
		}
		sent++
		if req.MaxSnapshots > 0 && sent >= req.MaxSnapshots {
			cancel()
		}
		return nil
	})

	if err := s.publisher.Run(ctx, sink, TransportGRPC, remote); err != nil {
		return status.Error(codes.Unavailable, err.Error())
	}
	return nil
}
