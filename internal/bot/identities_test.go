package bot

import (
	"path/filepath"
	"testing"
)

func TestLoadIdentities(t *testing.T) {
	if err := LoadIdentities(filepath.Join("..", "..", "data", "bot_identities.json")); err != nil {
		t.Fatalf("LoadIdentities: %v", err)
	}
	first := GetBotIdentity(0)
	if first.Username == "" || first.DeviceID == "" {
		t.Fatalf("first identity incomplete: %+v", first)
	}
	if GetBotIdentity(len(bots.list)) != first {
		t.Fatalf("GetBotIdentity should wrap around the pool")
	}
	if IsBot("") {
		t.Fatalf("unprovisioned identities must not match an empty id")
	}
}

func TestIdentityLevel(t *testing.T) {
	tests := []struct {
		difficulty string
		want       BotLevel
	}{
		{difficulty: "easy", want: BotLevelEasy},
		{difficulty: "HARD", want: BotLevelHard},
		{difficulty: "", want: BotLevelMedium},
		{difficulty: "godlike", want: BotLevelMedium},
	}
	for _, tt := range tests {
		if got := (BotIdentity{Difficulty: tt.difficulty}).Level(); got != tt.want {
			t.Fatalf("Level(%q) = %s, want %s", tt.difficulty, got, tt.want)
		}
	}
	if _, err := ParseLevel("godlike"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestRosterLookups(t *testing.T) {
	r := &roster{byUserID: make(map[string]BotIdentity)}
	r.replace([]BotIdentity{{UserID: "b1", Username: "one"}, {Username: "pending"}})
	if _, ok := r.byUserID["b1"]; !ok {
		t.Fatalf("b1 should be indexed")
	}
	if len(r.byUserID) != 1 {
		t.Fatalf("identities without user ids must not be indexed")
	}
	r.set(1, BotIdentity{UserID: "b2", Username: "pending"})
	if r.byUserID["b2"].Username != "pending" {
		t.Fatalf("set should index the provisioned id")
	}
}
