package game

import "fmt"

// Kind classifies an engine error for the dispatch boundary. Every error the
// engine returns is recoverable by the caller; the dispatcher reports it to
// the originating connection only.
type Kind string

const (
	KindNotFound           Kind = "notFound"
	KindPreconditionFailed Kind = "preconditionFailed"
	KindInsufficientFunds  Kind = "insufficientFunds"
	KindRuleViolation      Kind = "ruleViolation"
	KindInvalidInput       Kind = "invalidInput"
)

// Error is a coded domain error.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches on the error code, so sentinel comparisons with errors.Is work.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newErr(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is checks in tests and the dispatcher.
var (
	ErrRoomNotFound       = &Error{Kind: KindNotFound, Code: "RoomNotFound", Message: "room not found"}
	ErrPlayerNotFound     = &Error{Kind: KindNotFound, Code: "PlayerNotFound", Message: "player not found"}
	ErrPropertyNotFound   = &Error{Kind: KindNotFound, Code: "PropertyNotFound", Message: "property not found"}
	ErrRoomFull           = &Error{Kind: KindPreconditionFailed, Code: "RoomFull", Message: "room is full"}
	ErrGameAlreadyStarted = &Error{Kind: KindPreconditionFailed, Code: "GameAlreadyStarted", Message: "game already started"}
	ErrGameNotStarted     = &Error{Kind: KindPreconditionFailed, Code: "GameNotStarted", Message: "game has not started"}
	ErrGameOver           = &Error{Kind: KindPreconditionFailed, Code: "GameOver", Message: "game is over"}
	ErrNotHost            = &Error{Kind: KindPreconditionFailed, Code: "NotHost", Message: "only the host can do that"}
	ErrNotYourTurn        = &Error{Kind: KindPreconditionFailed, Code: "NotYourTurn", Message: "it is not your turn"}
	ErrInsufficientPlayers = &Error{Kind: KindPreconditionFailed, Code: "InsufficientPlayers", Message: "need at least 2 players"}
	ErrWrongPhase         = &Error{Kind: KindPreconditionFailed, Code: "WrongPhase", Message: "action not allowed in the current turn state"}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds, Code: "InsufficientFunds", Message: "not enough money"}
	ErrAlreadyOwned       = &Error{Kind: KindRuleViolation, Code: "AlreadyOwned", Message: "property is already owned"}
	ErrNotOwner           = &Error{Kind: KindRuleViolation, Code: "NotOwner", Message: "you do not own that property"}
	ErrWrongPropertyType  = &Error{Kind: KindRuleViolation, Code: "WrongPropertyType", Message: "that square cannot be built on"}
	ErrNoMonopoly         = &Error{Kind: KindRuleViolation, Code: "NoMonopoly", Message: "you must own the whole color group"}
	ErrHotelAlreadyPresent = &Error{Kind: KindRuleViolation, Code: "HotelAlreadyPresent", Message: "a hotel is already built there"}
	ErrNoHousesInBank     = &Error{Kind: KindRuleViolation, Code: "NoHousesInBank", Message: "the bank has no houses left"}
	ErrNoHotelsInBank     = &Error{Kind: KindRuleViolation, Code: "NoHotelsInBank", Message: "the bank has no hotels left"}
	ErrUnevenBuilding     = &Error{Kind: KindRuleViolation, Code: "UnevenBuilding", Message: "build evenly across the color group"}
	ErrTagNotHeld         = &Error{Kind: KindRuleViolation, Code: "TagNotHeld", Message: "you do not hold that tag"}
	ErrQuestionNotVerified = &Error{Kind: KindRuleViolation, Code: "QuestionNotVerified", Message: "the question has not been marked correct"}
)
