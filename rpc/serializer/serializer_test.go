package serializer

import (
	"reflect"
	"testing"

	"github.com/admariner/datafuse/lib/types"
	"github.com/admariner/datafuse/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON": NewJSONSerializer,
	"GOB":  NewGOBSerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	fileValue := "s3://bucket/a"
	txID := types.TxID{Client: "c1", Serial: 7}
	entry := types.LogEntry{TxID: &txID, Time: 1_000, Cmd: types.NewAddFileCmd("a", fileValue)}
	applied := types.AppliedFile(nil, &fileValue)

	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Write request
		{MsgType: common.MsgTWrite, Entry: &entry},

		// Write response
		{MsgType: common.MsgTWrite, Applied: &applied},

		// Read requests
		{MsgType: common.MsgTGetKV, Key: "test-key"},
		{MsgType: common.MsgTMGetKV, Keys: []string{"a", "b"}},
		{MsgType: common.MsgTGetTable, ID: 42},

		// Read response
		{MsgType: common.MsgTGetKV, Value: []byte(`[1,"dg=="]`)},

		// Error response
		{MsgType: common.MsgTError, Err: "test error message"},

		// Lock messages
		{MsgType: common.MsgTLCKAcquire, Key: "test-lock-key", DeleteIn: 300},
		{MsgType: common.MsgTLCKAcquire, Value: []byte("owner"), Ok: true},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for msgType := common.MsgTSuccess; msgType <= common.MsgTLCKRelease; msgType++ {
				msg := common.Message{MsgType: msgType}

				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType, err)
					continue
				}

				var result common.Message
				if err = serializer.Deserialize(data, &result); err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType, err)
					continue
				}

				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s", msgType, result.MsgType)
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"json", "gob"} {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q) failed: %v", name, err)
		}
	}
	if _, err := New("binary"); err == nil {
		t.Errorf("New(\"binary\") should fail")
	}
}

func TestInvalidData(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			var msg common.Message
			if err := factory().Deserialize([]byte{0xff, 0x01}, &msg); err == nil {
				t.Errorf("Expected error for corrupt data")
			}
		})
	}
}
