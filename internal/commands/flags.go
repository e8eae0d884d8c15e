package commands

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/saransh1220/portal-notify/internal/modules/notification"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/config"
	"github.com/saransh1220/portal-notify/internal/shared/infrastructure/credential"
)

// Flags contains the global flags and the state the root Before hook
// prepares for every command.
type Flags struct {
	LogLevel  string
	LogFile   string
	APIURL    string
	Token     string
	Transport string

	// Config is loaded in the Before hook and available to all commands
	Config config.Config

	Logger zerolog.Logger

	// Keyring is nil when no keyring backend could be opened.
	Keyring *credential.Keyring

	// Tokens resolves the flag or env token first, then the keyring.
	Tokens credential.Source

	// Out receives command output. Logs never go here.
	Out io.Writer
}

// newModule builds the notification module from the loaded config.
func (f *Flags) newModule(deps notification.Deps) (*notification.Module, error) {
	deps.Tokens = f.Tokens
	deps.Logger = f.Logger
	return notification.NewModule(f.Config, deps)
}
