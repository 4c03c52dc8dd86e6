package domain

import "fmt"

// PairKey derives the canonical identity of a direct conversation from its
// two participants. It is order-independent: both participants compute the
// same key without coordination.
func PairKey(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%s:%s", userA, userB)
}

// Group registry keys. The three endpoint families map to disjoint key
// namespaces so a room and a conversation with the same raw id never
// share a member set.

func DirectKey(chatID string) string {
	return "chat:" + chatID
}

func RoomKey(roomID string) string {
	return "room:" + roomID
}

func ChannelKey(name string) string {
	return "channel:" + name
}
