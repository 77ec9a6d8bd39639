package events

import (
	"encoding/json"
	"testing"
)

func TestEncodeFrame(t *testing.T) {
	b, err := Encode(MessagesRead, MessagesReadPayload{ReaderID: "u1", MessageCount: 3})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"event":"messagesRead","data":{"readerId":"u1","messageCount":3}}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}

	var f Frame
	if err := json.Unmarshal([]byte(`{"event":"user_logout"}`), &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Event != UserLogout || f.Data != nil {
		t.Fatalf("unexpected frame: %+v", f)
	}
}

func TestEncodeWithoutData(t *testing.T) {
	b, err := Encode(OnlineUsers, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(b) != `{"event":"getOnlineUsers"}` {
		t.Fatalf("unexpected frame %s", b)
	}
}
