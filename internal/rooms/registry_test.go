package rooms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roomrelay/relay/internal/rooms"
)

func TestJoin_AddsMember(t *testing.T) {
	r := rooms.NewRegistry()

	r.Join("conn-1", "general")

	assert.Equal(t, []string{"conn-1"}, r.MembersOf("general"))
	assert.Equal(t, "general", r.RoomOf("conn-1"))
}

func TestJoin_SwitchingRoomsLeavesThePreviousOne(t *testing.T) {
	r := rooms.NewRegistry()

	r.Join("conn-1", "general")
	r.Join("conn-1", "random")

	assert.Empty(t, r.MembersOf("general"))
	assert.Equal(t, []string{"conn-1"}, r.MembersOf("random"))
	assert.Equal(t, "random", r.RoomOf("conn-1"))
}

func TestJoin_SameRoomTwiceIsIdempotent(t *testing.T) {
	r := rooms.NewRegistry()

	r.Join("conn-1", "general")
	r.Join("conn-1", "general")

	assert.Equal(t, []string{"conn-1"}, r.MembersOf("general"))
}

func TestJoin_ConnectionBelongsToAtMostOneRoom(t *testing.T) {
	r := rooms.NewRegistry()

	r.Join("conn-1", "a")
	r.Join("conn-1", "b")
	r.Join("conn-1", "c")

	assert.Empty(t, r.MembersOf("a"))
	assert.Empty(t, r.MembersOf("b"))
	assert.Equal(t, []string{"conn-1"}, r.MembersOf("c"))
}

func TestLeave_RemovesMember(t *testing.T) {
	r := rooms.NewRegistry()

	r.Join("conn-1", "general")
	r.Join("conn-2", "general")
	r.Leave("conn-1")

	assert.Equal(t, []string{"conn-2"}, r.MembersOf("general"))
	assert.Equal(t, "", r.RoomOf("conn-1"))
}

func TestLeave_UnknownConnectionIsANoOp(t *testing.T) {
	r := rooms.NewRegistry()

	r.Leave("conn-1")

	assert.Empty(t, r.MembersOf("general"))
}

func TestMembersOf_UnknownRoomIsEmpty(t *testing.T) {
	r := rooms.NewRegistry()

	assert.Empty(t, r.MembersOf("nowhere"))
}
