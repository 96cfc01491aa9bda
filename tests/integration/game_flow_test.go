//go:build integration

package integration

import (
	"testing"
	"time"
)

type wireCard struct {
	Rank int    `json:"rank"`
	Suit string `json:"suit"`
}

func TestTwoPlayerTurn(t *testing.T) {
	clients := []*TestClient{NewTestClient(t), NewTestClient(t)}
	for _, c := range clients {
		defer c.Close()
	}

	matchID := clients[0].QuickMatch(t, "casual")
	t.Logf("Client 0 joined match: %s", matchID)
	clients[1].Join(t, matchID)

	// Wait a bit for presences to sync
	time.Sleep(1 * time.Second)

	clients[0].Send(t, matchID, OpStartGame, map[string]string{})

	var started struct {
		FirstTurn string `json:"first_turn"`
		DeckSize  int    `json:"deck_size"`
	}
	hands := make(map[string][]wireCard)
	for i, c := range clients {
		c.WaitFor(t, OpGameStarted, 5*time.Second, &started)

		var dealt struct {
			UserID string     `json:"user_id"`
			Hand   []wireCard `json:"hand"`
		}
		c.WaitFor(t, OpHandDealt, 5*time.Second, &dealt)
		if dealt.UserID != c.UserID {
			t.Fatalf("Client %d received the hand of %s", i, dealt.UserID)
		}
		if len(dealt.Hand) != 5 {
			t.Fatalf("Client %d expected 5 cards, got %d", i, len(dealt.Hand))
		}
		hands[c.UserID] = dealt.Hand
	}

	var current *TestClient
	for _, c := range clients {
		if c.UserID == started.FirstTurn {
			current = c
		}
	}
	if current == nil {
		t.Fatalf("first turn %s is not one of the clients", started.FirstTurn)
	}

	current.Send(t, matchID, OpDraw, map[string]string{"source": "deck"})
	var updated struct {
		Hand []wireCard `json:"hand"`
	}
	current.WaitFor(t, OpHandUpdated, 5*time.Second, &updated)
	if len(updated.Hand) != 6 {
		t.Fatalf("expected 6 cards after drawing, got %d", len(updated.Hand))
	}

	current.Send(t, matchID, OpDiscard, map[string]any{"cards": []wireCard{updated.Hand[0]}})
	for _, c := range clients {
		var discarded struct {
			UserID   string `json:"user_id"`
			NextTurn string `json:"next_turn"`
		}
		c.WaitFor(t, OpCardsDiscarded, 5*time.Second, &discarded)
		if discarded.UserID != current.UserID || discarded.NextTurn == current.UserID {
			t.Fatalf("unexpected discard event %+v", discarded)
		}
	}
}
