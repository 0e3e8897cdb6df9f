package grpc

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var Logger = logger.GetLogger("transport/rpc")

func NewGrpcServerTransport() transport.IRPCServerTransport {
	return &grpcServerTransport{}
}

type grpcServerTransport struct {
	handler transport.ServerHandleFunc

	mu     sync.Mutex
	server *grpc.Server
	closed bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *grpcServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *grpcServerTransport) Listen(config common.ServerConfig) error {
	lis, err := net.Listen("tcp", config.Endpoint)
	if err != nil {
		return err
	}

	server := t.init(config.LogLevel == "debug")
	if server == nil {
		_ = lis.Close()
		return nil
	}

	Logger.Infof("Starting gRPC server on %s", lis.Addr())
	if err := server.Serve(lis); !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (t *grpcServerTransport) Close() error {
	t.mu.Lock()
	t.closed = true
	server := t.server
	t.mu.Unlock()

	if server != nil {
		server.GracefulStop()
	}
	return nil
}

// --------------------------------------------------------------------------
// Service
// --------------------------------------------------------------------------

// Handle routes one request to the registered handler
func (t *grpcServerTransport) Handle(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	values := md.Get(shardHeader)
	if len(values) != 1 {
		return nil, status.Errorf(codes.InvalidArgument, "expected exactly one %s header", shardHeader)
	}
	shardId, err := strconv.ParseUint(values[0], 10, 64)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid shardId %q", values[0])
	}
	return wrapperspb.Bytes(t.handler(shardId, req.GetValue())), nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// init creates the grpc server and registers the transport service.
// It returns nil if the transport was closed before.
func (t *grpcServerTransport) init(debug bool) *grpc.Server {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}

	var opts []grpc.ServerOption
	if debug {
		opts = append(opts, grpc.UnaryInterceptor(loggerInterceptor))
	}
	t.server = grpc.NewServer(opts...)
	t.server.RegisterService(&serviceDesc, t)
	return t.server
}

// loggerInterceptor logs every call with its status code and duration
func loggerInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	Logger.Debugf("%s => %s took %s", info.FullMethod, status.Code(err), time.Since(start))
	return resp, err
}
