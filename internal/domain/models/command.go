package models

// CommandEvent is a normalized inbound chat instruction: the channel
// it arrived on and the raw mention text. The core extracts an ISO
// date and a store code from RawText; anything transport-specific is
// stripped by the stream adapter.
type CommandEvent struct {
	Channel string
	RawText string
}

// ActionEvent is a "more" button press carrying a continuation token.
type ActionEvent struct {
	Channel  string
	ActionID string // "show_more_news" | "show_more_video"
	Value    string // continuation token "date|store"
}
