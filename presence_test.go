package pusher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemberRosterAddRemoveCount(t *testing.T) {
	roster := newMemberRoster()

	roster.add("1", []byte(`{"name":"alice"}`))
	roster.add("2", []byte(`{"name":"bob"}`))
	require.Equal(t, 2, roster.Count())

	info, ok := roster.Get("1")
	require.True(t, ok)
	require.Equal(t, []byte(`{"name":"alice"}`), info)

	require.True(t, roster.remove("1"))
	require.Equal(t, 1, roster.Count())
	require.False(t, roster.remove("1"))
}

func TestMemberRosterReplaceIsAtomic(t *testing.T) {
	roster := newMemberRoster()
	roster.add("stale", []byte(`{}`))

	roster.replace(&presenceHash{
		IDs: []string{"1", "2"},
		Hash: map[string]json.RawMessage{
			"1": json.RawMessage(`{"name":"a"}`),
			"2": json.RawMessage(`{"name":"b"}`),
		},
	})

	require.Equal(t, 2, roster.Count())
	_, stillThere := roster.Get("stale")
	require.False(t, stillThere)
}

func TestMemberRosterEachVisitsAllMembers(t *testing.T) {
	roster := newMemberRoster()
	roster.add("1", []byte(`{}`))
	roster.add("2", []byte(`{}`))

	seen := map[string]bool{}
	roster.Each(func(userID string, userInfo []byte) { seen[userID] = true })

	require.Len(t, seen, 2)
	require.True(t, seen["1"])
	require.True(t, seen["2"])
}

func TestMemberRosterMe(t *testing.T) {
	roster := newMemberRoster()

	_, ok := roster.Me()
	require.False(t, ok)

	roster.SetMe("42")
	id, ok := roster.Me()
	require.True(t, ok)
	require.Equal(t, "42", id)
}
