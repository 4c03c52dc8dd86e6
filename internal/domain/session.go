package domain

import (
	"sync"
	"time"
)

// SessionState tracks the lifecycle of one live connection.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ChannelKind distinguishes the three connection endpoints.
type ChannelKind int

const (
	ChannelDirect ChannelKind = iota
	ChannelRoom
	ChannelNamed
)

// Identity is a resolved authenticated user.
type Identity struct {
	UserID   string
	Username string
}

// Display returns the name shown to peers in broadcast frames.
func (i Identity) Display() string {
	if i.Username != "" {
		return i.Username
	}
	return i.UserID
}

// Binding describes which channel a session is attached to.
type Binding struct {
	Kind   ChannelKind
	Key    string // group registry key
	ChatID string // direct conversations
	RoomID string // room channels
	Name   string // legacy named channels
}

// Session is the server-side state of one live client connection.
// It is created on connection open and destroyed on disconnect.
type Session struct {
	ID string

	mu           sync.RWMutex
	state        SessionState
	identity     *Identity
	binding      Binding
	groups       map[string]struct{}
	createdAt    time.Time
	lastActiveAt time.Time
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		state:        StateConnecting,
		groups:       make(map[string]struct{}),
		createdAt:    now,
		lastActiveAt: now,
	}
}

// Authenticate records the resolved identity.
func (s *Session) Authenticate(ident Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = &ident
	s.lastActiveAt = time.Now()
}

// Identity returns the authenticated identity, if any.
func (s *Session) Identity() (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return Identity{}, false
	}
	return *s.identity, true
}

func (s *Session) IsAuthenticated() bool {
	_, ok := s.Identity()
	return ok
}

// Bind attaches the session to its channel.
func (s *Session) Bind(b Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.binding = b
}

func (s *Session) Binding() Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.binding
}

// Open transitions Connecting -> Open.
func (s *Session) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnecting {
		s.state = StateOpen
	}
}

// BeginClose transitions to Closing. It reports false when teardown has
// already started, so cleanup runs exactly once.
func (s *Session) BeginClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosing || s.state == StateClosed {
		return false
	}
	s.state = StateClosing
	return true
}

// Close marks the session terminal.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AddGroup records a registry subscription for disconnect cleanup.
func (s *Session) AddGroup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[key] = struct{}{}
}

func (s *Session) RemoveGroup(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, key)
}

// Groups returns a snapshot of the group keys this session joined.
func (s *Session) Groups() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.groups))
	for k := range s.groups {
		keys = append(keys, k)
	}
	return keys
}

func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActiveAt = time.Now()
}
