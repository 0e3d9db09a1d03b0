// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "sync"

// Log is an ordered, append-only list of chat messages. Safe for concurrent use.
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a message to the end of the log.
func (l *Log) Append(m Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, m)
}

// AddUser appends a user message and returns it.
func (l *Log) AddUser(text string) Message {
	m := NewUserMessage(text)
	l.Append(m)
	return m
}

// AddBot appends a bot message and returns it.
func (l *Log) AddBot(text string, cached bool) Message {
	m := NewBotMessage(text)
	m.Cached = cached
	l.Append(m)
	return m
}

// Messages returns a copy of the log contents in order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Last returns the most recent message.
func (l *Log) Last() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// LastBot returns the most recent bot message.
func (l *Log) LastBot() (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].Role == RoleBot {
			return l.messages[i], true
		}
	}
	return Message{}, false
}
