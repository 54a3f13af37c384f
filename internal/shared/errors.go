package shared

import (
	"fmt"

	"github.com/modular-admin/modular-admin/internal/platform/httpx"
)

var (
	// ErrInvalidCredentials indicates login failure. The message never says
	// which of username or password was wrong.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", httpx.ErrUnauthorized)
)
