package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nasoro/gateway/internal/shared/models"
)

func TestAppendAndRead(t *testing.T) {
	s := New(10)

	s.Append("c", "hi", "hello!")

	turns := s.Read("c", 10)
	require.Equal(t, []models.Turn{
		{Role: models.RoleUser, Content: "hi"},
		{Role: models.RoleAssistant, Content: "hello!"},
	}, turns)
}

func TestReadDoesNotConsume(t *testing.T) {
	s := New(10)
	s.Append("c", "hi", "hello!")

	first := s.Read("c", 10)
	second := s.Read("c", 10)
	require.Equal(t, first, second)
}

func TestCapEvictsOldestFirst(t *testing.T) {
	s := New(4)

	for i := 1; i <= 5; i++ {
		s.Append("c", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := s.Read("c", 100)
	require.Len(t, turns, 4)
	require.Equal(t, "q4", turns[0].Content)
	require.Equal(t, "a4", turns[1].Content)
	require.Equal(t, "q5", turns[2].Content)
	require.Equal(t, "a5", turns[3].Content)
}

func TestReadDepthReturnsMostRecent(t *testing.T) {
	s := New(20)

	for i := 1; i <= 5; i++ {
		s.Append("c", fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := s.Read("c", 2)
	require.Len(t, turns, 2)
	require.Equal(t, "q5", turns[0].Content)
	require.Equal(t, "a5", turns[1].Content)
}

func TestClear(t *testing.T) {
	s := New(10)
	s.Append("c", "hi", "hello!")

	s.Clear("c")
	require.Empty(t, s.Read("c", 10))
}

func TestClientsAreIsolated(t *testing.T) {
	s := New(10)
	s.Append("a", "from-a", "ok")
	s.Append("b", "from-b", "ok")

	require.Equal(t, "from-a", s.Read("a", 10)[0].Content)
	require.Equal(t, "from-b", s.Read("b", 10)[0].Content)
}
