package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/aescanero/predictd/internal/application/inference"
	eventsmemory "github.com/aescanero/predictd/pkg/adapters/events/memory"
	"github.com/aescanero/predictd/pkg/adapters/model"
	"github.com/aescanero/predictd/pkg/adapters/model/artifact"
	"github.com/aescanero/predictd/pkg/domain"
)

const toyArtifact = `{
	"name": "toy",
	"version": "1.0.0",
	"kind": "linear_regression",
	"features": [{"name": "feature1"}, {"name": "feature2"}],
	"coefficients": [2, 1],
	"intercept": 0
}`

func startServer(t *testing.T, events *eventsmemory.InMemoryEventBus) *grpc.ClientConn {
	t.Helper()

	m, err := model.New([]byte(toyArtifact), artifact.FormatJSON, "")
	require.NoError(t, err)

	cfg := &inference.Config{Predictor: m, Logger: zap.NewNop()}
	if events != nil {
		cfg.Events = events
	}

	lis := bufconn.Listen(1 << 20)
	srv, err := NewServer(&Config{
		Service:  inference.NewService(cfg),
		Logger:   zap.NewNop(),
		Listener: lis,
	})
	require.NoError(t, err)

	go func() { _ = srv.Start() }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	return conn
}

func predict(ctx context.Context, conn *grpc.ClientConn, row map[string]interface{}) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(row)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, PredictMethod, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func TestPredict(t *testing.T) {
	conn := startServer(t, nil)

	out, err := predict(context.Background(), conn, map[string]interface{}{"feature1": 5, "feature2": 3.2})
	require.NoError(t, err)

	values := out.GetFields()["prediction"].GetListValue().GetValues()
	require.Len(t, values, 1)
	assert.InDelta(t, 13.2, values[0].GetNumberValue(), 1e-9)
}

func TestPredict_Errors(t *testing.T) {
	conn := startServer(t, nil)

	tests := []struct {
		name string
		row  map[string]interface{}
		code codes.Code
	}{
		{name: "missing feature", row: map[string]interface{}{"feature1": 5}, code: codes.InvalidArgument},
		{name: "wrong type", row: map[string]interface{}{"feature1": "abc", "feature2": 1}, code: codes.InvalidArgument},
		{name: "nested value", row: map[string]interface{}{"feature1": []interface{}{1}, "feature2": 1}, code: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := predict(context.Background(), conn, tt.row)
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestPredict_RequestIDMetadata(t *testing.T) {
	bus := eventsmemory.NewInMemoryEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		bus.Wait()
	}()

	received := make(chan domain.Event, 1)
	require.NoError(t, bus.Subscribe(ctx, inference.DefaultEventTopic, func(ctx context.Context, event domain.Event) error {
		received <- event
		return nil
	}))

	conn := startServer(t, bus)

	callCtx := metadata.AppendToOutgoingContext(context.Background(), requestIDMetadata, "grpc-req-1")
	_, err := predict(callCtx, conn, map[string]interface{}{"feature1": 1, "feature2": 1})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "grpc-req-1", event.RequestID)
		assert.Equal(t, inference.SourceGRPC, event.Source)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for prediction event")
	}
}

func TestHealthService(t *testing.T) {
	conn := startServer(t, nil)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: ServiceName,
	})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
