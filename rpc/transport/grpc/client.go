package grpc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/admariner/datafuse/rpc/common"
	"github.com/admariner/datafuse/rpc/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const retryBackoffBase = 10 * time.Millisecond

func NewGrpcClientTransport() transport.IRPCClientTransport {
	return &grpcClientTransport{}
}

type grpcClientTransport struct {
	conns      []*grpc.ClientConn
	counter    atomic.Uint32
	timeout    time.Duration
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *grpcClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("grpc transport: no endpoints configured")
	}

	conns := make([]*grpc.ClientConn, 0, len(config.Endpoints))
	for _, endpoint := range config.Endpoints {
		conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return fmt.Errorf("grpc transport: connect %s: %w", endpoint, err)
		}
		conns = append(conns, conn)
	}

	t.conns = conns
	t.timeout = time.Duration(max(1, config.TimeoutSecond)) * time.Second
	t.retryCount = max(1, config.RetryCount)
	return nil
}

func (t *grpcClientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	if len(t.conns) == 0 {
		return nil, fmt.Errorf("grpc transport not initialized")
	}

	var lastErr error
	for attempt := 0; attempt < t.retryCount; attempt++ {
		conn := t.conns[t.counter.Add(1)%uint32(len(t.conns))]

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		ctx = metadata.AppendToOutgoingContext(ctx, shardHeader, strconv.FormatUint(shardId, 10))
		out := new(wrapperspb.BytesValue)
		lastErr = conn.Invoke(ctx, fullMethod, wrapperspb.Bytes(req), out)
		cancel()

		if lastErr == nil {
			return out.GetValue(), nil
		}
		if attempt < t.retryCount-1 {
			time.Sleep(retryBackoffBase * time.Duration(attempt+1))
		}
	}
	return nil, lastErr
}

func (t *grpcClientTransport) Close() error {
	var errs []error
	for _, conn := range t.conns {
		errs = append(errs, conn.Close())
	}
	t.conns = nil
	return errors.Join(errs...)
}
