package session

import "github.com/krew-solutions/bimsearch-go/bimsearch/element"

// State of the search session.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateEmpty     State = "empty"
	StateFailed    State = "failed"
)

// NoticeKind classifies the transient user notifications.
type NoticeKind string

const (
	NoticeNoMatches    NoticeKind = "no_matches"
	NoticeInvalidRange NoticeKind = "invalid_range"
	NoticeSearchFailed NoticeKind = "search_failed"
)

type StateChangedEvent struct {
	From  State
	To    State
	Token string
}

type NoticeEvent struct {
	Kind    NoticeKind
	Message string
}

type GroupAppendedEvent struct {
	Group element.ResultGroup
}
