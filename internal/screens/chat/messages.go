package chat

import "github.com/abhisek/gilbot/internal/tutor"

// replyMsg carries the tutor's answer to one question.
type replyMsg struct {
	Reply *tutor.Reply
	Err   error
}

// alternatesMsg carries the alternates for the current topic.
type alternatesMsg struct {
	Alternates tutor.Alternates
}

// inputErrMsg reports a problem with a chat command, such as an unreadable
// image path.
type inputErrMsg struct {
	Err error
}
