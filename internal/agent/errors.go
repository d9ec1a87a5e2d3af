// internal/agent/errors.go
package agent

import "errors"

// ErrInputClosed signals that the user ended the chat, by closing input or
// typing an exit word. Run treats it as a normal shutdown.
var ErrInputClosed = errors.New("user input closed")
