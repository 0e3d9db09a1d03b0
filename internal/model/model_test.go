// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
	"testing"
)

func TestRole_DisplayName(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleUser, "You"},
		{RoleBot, "Assistant"},
		{Role("other"), "other"},
	}
	for _, tt := range tests {
		if got := tt.role.DisplayName(); got != tt.want {
			t.Errorf("%s.DisplayName() = %q, want %q", tt.role, got, tt.want)
		}
	}
}

func TestNewMessage(t *testing.T) {
	a := NewUserMessage("hi")
	b := NewBotMessage("hello")

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a.ID, b.ID)
	}
	if !a.IsUser() || b.IsUser() {
		t.Error("IsUser mismatch")
	}
	if a.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestMessage_Preview(t *testing.T) {
	m := NewBotMessage("line one\nline two is long")
	if got := m.Preview(12); got != "line one ..." {
		t.Errorf("Preview = %q", got)
	}
}

func TestLog_AppendOrder(t *testing.T) {
	l := NewLog()
	if _, ok := l.Last(); ok {
		t.Fatal("empty log should have no last message")
	}

	l.AddUser("What is flu?")
	l.AddBot("Flu is a viral infection.", true)
	l.AddUser("Thanks")

	msgs := l.Messages()
	if len(msgs) != 3 || l.Len() != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "What is flu?" || msgs[1].Text != "Flu is a viral infection." {
		t.Errorf("unexpected order: %+v", msgs)
	}
	if !msgs[1].Cached {
		t.Error("cached flag lost")
	}

	last, _ := l.Last()
	if last.Text != "Thanks" {
		t.Errorf("Last = %q", last.Text)
	}
	bot, ok := l.LastBot()
	if !ok || bot.Text != "Flu is a viral infection." {
		t.Errorf("LastBot = %q, %v", bot.Text, ok)
	}

	// Returned slice is a copy
	msgs[0].Text = "mutated"
	if l.Messages()[0].Text != "What is flu?" {
		t.Error("Messages() must not expose internal storage")
	}
}

func TestLog_Concurrent(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.AddBot("x", false)
		}()
		go func() {
			defer wg.Done()
			_ = l.Messages()
			_, _ = l.LastBot()
		}()
	}
	wg.Wait()
	if l.Len() != 50 {
		t.Errorf("Len = %d, want 50", l.Len())
	}
}
