package chat

import "strconv"

// KeySeparator joins the two ids of a conversation key. Decimal ids never contain it.
const KeySeparator = "_"

// ConversationKey is the order-independent key of the conversation between a and b.
func ConversationKey(a, b uint) string {
	x := strconv.FormatUint(uint64(a), 10)
	y := strconv.FormatUint(uint64(b), 10)
	if y < x {
		x, y = y, x
	}
	return x + KeySeparator + y
}
