//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

// Op codes of the yaniv_match handler.
const (
	OpStartGame      = 1
	OpDraw           = 2
	OpDiscard        = 3
	OpMatchState     = 100
	OpGameStarted    = 101
	OpHandDealt      = 102
	OpCardDrawn      = 103
	OpCardsDiscarded = 104
	OpHandUpdated    = 108
	OpError          = 110
)

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string
	events  chan *rtapi.MatchData
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("yaniv_test_device_%d", time.Now().UnixNano())
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	tc := &TestClient{
		Client:  client,
		Session: session,
		UserID:  session.UserId,
		events:  make(chan *rtapi.MatchData, 256),
	}

	socket := client.NewSocket()
	socket.OnMatchData = func(data *rtapi.MatchData) {
		tc.events <- data
	}
	if err := socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}
	tc.Socket = socket
	return tc
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// QuickMatch calls the quick_match RPC and joins the returned match.
func (tc *TestClient) QuickMatch(t *testing.T, tier string) string {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"tier": tier})
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "quick_match", string(payload))
	if err != nil {
		t.Fatalf("RPC quick_match failed: %v", err)
	}

	var resp struct {
		MatchID string `json:"match_id"`
		IsNew   bool   `json:"is_new"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("quick_match returned %q: %v", rpc.Payload, err)
	}

	tc.Join(t, resp.MatchID)
	return resp.MatchID
}

func (tc *TestClient) Join(t *testing.T, matchID string) {
	t.Helper()
	if _, err := tc.Socket.JoinMatch(context.Background(), nil, matchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", matchID, err)
	}
}

// Send sends a JSON payload with the op code.
func (tc *TestClient) Send(t *testing.T, matchID string, opCode int64, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if _, err := tc.Socket.SendMatchState(context.Background(), matchID, opCode, data, nil); err != nil {
		t.Fatalf("Failed to send op %d: %v", opCode, err)
	}
}

// WaitFor waits for the op code, skipping other messages, and decodes it into out.
func (tc *TestClient) WaitFor(t *testing.T, opCode int64, timeout time.Duration, out any) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case data := <-tc.events:
			if data.OpCode != opCode {
				continue
			}
			if out != nil {
				if err := json.Unmarshal(data.Data, out); err != nil {
					t.Fatalf("decode op %d: %v", opCode, err)
				}
			}
			return
		case <-deadline:
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
		}
	}
}
