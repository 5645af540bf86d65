package telegram

// ChatKindChannel is the entry kind for a broadcast channel. Responses mix
// kinds (channels, chats, users); only channel entries carry the fields the
// crawler needs.
const ChatKindChannel = "channel"

// Chat is one raw entry of a recommendation response.
type Chat struct {
	// Kind discriminates the entry type ("channel", "chat", "user").
	Kind string `json:"kind"`

	// Username is the public handle, empty for private entries.
	Username string `json:"username,omitempty"`

	// Title is the display title. Empty means the platform withheld it.
	Title string `json:"title,omitempty"`

	// ParticipantsCount is the subscriber count. A nil pointer means the
	// platform did not report one, which is distinct from a reported zero;
	// entries without a count are not genuine channels for our purposes.
	ParticipantsCount *int `json:"participants_count,omitempty"`
}

// ChatList is the chat-list-like structure returned by the recommendation
// RPC.
type ChatList struct {
	// Chats holds the raw entries in server order.
	Chats []Chat `json:"chats"`

	// Count is the server-reported total. It may exceed len(Chats) when
	// the session lacks the entitlement to see all results.
	Count int `json:"count,omitempty"`
}
