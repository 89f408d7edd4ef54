package bot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session ID is not registered.
var ErrSessionNotFound = errors.New("session not found")

// Sender delivers a line of text to one connected user.
type Sender interface {
	WriteLine(text string) error
}

// Session is a snapshot of a connected user.
type Session struct {
	// ID is a random UUID assigned on connect.
	ID   string
	Nick string
	// Chat is the room the user currently occupies.
	Chat string
}

type member struct {
	Session
	out Sender
}

// Hub tracks connected sessions and chat room occupancy.
// All methods are safe for concurrent use.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*member         // id → member
	rooms    map[string]map[string]bool // chat → set of ids
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		sessions: make(map[string]*member),
		rooms:    make(map[string]map[string]bool),
	}
}

// Add registers a new session in chat. An empty nick becomes "guest-" plus
// the first eight characters of the session ID.
//
// Precondition: chat must be non-empty; out must be non-nil.
// Postcondition: Returns the created Session.
func (h *Hub) Add(nick, chat string, out Sender) Session {
	id := uuid.NewString()
	if nick == "" {
		nick = "guest-" + id[:8]
	}
	m := &member{Session: Session{ID: id, Nick: nick, Chat: chat}, out: out}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[id] = m
	h.join(id, chat)
	return m.Session
}

// Remove unregisters a session.
//
// Postcondition: Returns the removed Session or ErrSessionNotFound.
func (h *Hub) Remove(id string) (Session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	h.leave(id, m.Chat)
	delete(h.sessions, id)
	return m.Session, nil
}

// Move moves a session to another chat and returns the chat it left.
func (h *Hub) Move(id, chat string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	old := m.Chat
	h.leave(id, old)
	m.Chat = chat
	h.join(id, chat)
	return old, nil
}

// Rename changes a session's nick and returns the previous one.
func (h *Hub) Rename(id, nick string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.sessions[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	old := m.Nick
	m.Nick = nick
	return old, nil
}

// Get returns a snapshot of the session.
func (h *Hub) Get(id string) (Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	m, ok := h.sessions[id]
	if !ok {
		return Session{}, false
	}
	return m.Session, true
}

// Members returns the nicks in chat, sorted.
func (h *Hub) Members(chat string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.rooms[chat]))
	for id := range h.rooms[chat] {
		names = append(names, h.sessions[id].Nick)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Send delivers text to one session, one WriteLine per line of text.
func (h *Hub) Send(id, text string) error {
	h.mu.RLock()
	m, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return deliver(m.out, text)
}

// Broadcast delivers text to every session in chat except exceptID and
// returns how many sessions it reached.
func (h *Hub) Broadcast(chat, text, exceptID string) int {
	h.mu.RLock()
	targets := make([]Sender, 0, len(h.rooms[chat]))
	for id := range h.rooms[chat] {
		if id != exceptID {
			targets = append(targets, h.sessions[id].out)
		}
	}
	h.mu.RUnlock()

	sent := 0
	for _, out := range targets {
		if deliver(out, text) == nil {
			sent++
		}
	}
	return sent
}

func deliver(out Sender, text string) error {
	for _, line := range strings.Split(text, "\n") {
		if err := out.WriteLine(line); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) join(id, chat string) {
	if h.rooms[chat] == nil {
		h.rooms[chat] = make(map[string]bool)
	}
	h.rooms[chat][id] = true
}

func (h *Hub) leave(id, chat string) {
	if rs, ok := h.rooms[chat]; ok {
		delete(rs, id)
		if len(rs) == 0 {
			delete(h.rooms, chat)
		}
	}
}
