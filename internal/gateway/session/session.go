// Package session keeps bounded per-client conversation history used to
// build provider context. History is text-only and capped: old turns
// are evicted FIFO, and a turn that carried media is stored as a
// placeholder rather than the raw payload.
package session

import (
	"hash/fnv"
	"sync"

	"github.com/nasoro/gateway/internal/shared/models"
)

// ImagePlaceholder is stored in place of message text when a request
// carried only images.
const ImagePlaceholder = "[image sent]"

const shardCount = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string][]models.Turn
}

// Store is the per-client conversation store. Sharded by client key so
// unrelated clients never contend.
type Store struct {
	shards  [shardCount]*shard
	maxTurn int
}

func New(maxTurns int) *Store {
	if maxTurns <= 0 {
		maxTurns = 20
	}
	s := &Store{maxTurn: maxTurns}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string][]models.Turn)}
	}
	return s
}

// Read returns the most recent depth turns in insertion order. The read
// does not consume; repeated reads return the same turns.
func (s *Store) Read(clientKey string, depth int) []models.Turn {
	sh := s.shardFor(clientKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	turns := sh.sessions[clientKey]
	if depth > 0 && len(turns) > depth {
		turns = turns[len(turns)-depth:]
	}

	out := make([]models.Turn, len(turns))
	copy(out, turns)
	return out
}

// Append records a completed exchange: the user turn and the assistant
// turn land together, then the session is trimmed from the front to the
// cap. Called only after a successful provider call.
func (s *Store) Append(clientKey, userContent, assistantContent string) {
	sh := s.shardFor(clientKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	turns := append(sh.sessions[clientKey],
		models.Turn{Role: models.RoleUser, Content: userContent},
		models.Turn{Role: models.RoleAssistant, Content: assistantContent},
	)
	if len(turns) > s.maxTurn {
		turns = turns[len(turns)-s.maxTurn:]
	}
	sh.sessions[clientKey] = turns
}

// Clear drops a client's history.
func (s *Store) Clear(clientKey string) {
	sh := s.shardFor(clientKey)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.sessions, clientKey)
}

func (s *Store) shardFor(clientKey string) *shard {
	h := fnv.New32a()
	h.Write([]byte(clientKey))
	return s.shards[h.Sum32()%shardCount]
}
