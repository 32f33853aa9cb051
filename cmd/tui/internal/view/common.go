package view

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrJamesThe3rd/subtrack/internal/client"
)

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// LoggedInMsg is sent once the session holds an access token.
type LoggedInMsg struct{}

// LoggedOutMsg sends the app back to the login screen.
type LoggedOutMsg struct{}

func LoggedOut() tea.Msg {
	return LoggedOutMsg{}
}

func isUnauthorized(err error) bool {
	return errors.Is(err, client.ErrUnauthorized)
}

// errorMessage renders API failures for the status line.
func errorMessage(err error) string {
	var se *client.StatusError
	if errors.As(err, &se) {
		return se.Message
	}

	return err.Error()
}
