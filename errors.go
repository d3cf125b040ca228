package main

import "errors"

var (
	ErrBeforeStart          = errors.New("advent has not started yet")
	ErrAfterEnd             = errors.New("advent is over")
	ErrExhaustedContent     = errors.New("all days already revealed")
	ErrDailyLimitReached    = errors.New("already opened today")
	ErrStaleAcknowledgement = errors.New("callback query is too old")
	ErrMalformedMedia       = errors.New("malformed media reference")
)

// UserError pairs an internal error with the text the recipient should see.
type UserError struct {
	Err  error
	Text string
}

func (e *UserError) Error() string { return e.Err.Error() }

func (e *UserError) Unwrap() error { return e.Err }

func withUserText(err error, text string) error {
	return &UserError{Err: err, Text: text}
}

// userErrorFor attaches the recipient-facing text to a resolution outcome.
// Errors it does not know are returned unchanged.
func userErrorFor(err error) error {
	switch {
	case errors.Is(err, ErrDailyLimitReached):
		return withUserText(err, "Сегодняшний подарок уже распакован 🤍\nПриходи завтра за следующим!")
	case errors.Is(err, ErrBeforeStart):
		return withUserText(err, "Ещё рано! Адвент скоро начнётся, потерпи немножко 🎄")
	case errors.Is(err, ErrAfterEnd):
		return withUserText(err, "Адвент закончился 🎉\nВсе подарки остались в чате, их можно пересматривать 🤍")
	case errors.Is(err, ErrExhaustedContent):
		return withUserText(err, "Ты распаковал все подарки 🎉\nВсё, что мы открыли, осталось в чате 🤍")
	}
	return err
}

func getUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.Text
	}
	return "Что-то пошло не так, попробуй ещё раз чуть позже."
}
