package domain

type (
	// A ConversationState is the token the caller passes in
	// and gets echoed back on every chat turn.
	ConversationState struct {
		AwaitingEmail  bool
		PendingMessage string
	}

	ChatRequest struct {
		Message   string
		UserEmail string
		State     ConversationState
	}

	ChatReply struct {
		Reply    string
		Products []ProductBrief
		State    ConversationState
	}
)
