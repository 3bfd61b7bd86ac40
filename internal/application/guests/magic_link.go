package guests

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"club25-backend/internal/application/notifications"
	"club25-backend/internal/auth"
	"club25-backend/internal/pkg/validation"

	"github.com/rs/zerolog/log"
)

// MagicLinks mails a signed "my drops" link to guests who already have a profile.
type MagicLinks struct {
	Resolver   *Resolver
	Tokens     *auth.GuestTokens
	Dispatcher *notifications.Dispatcher
	AppURL     string
}

// Link builds the sign-in URL for a token.
func (m *MagicLinks) Link(token string) string {
	return strings.TrimRight(m.AppURL, "/") + "/my-drops?token=" + url.QueryEscape(token)
}

// Request sends a link when the email belongs to a guest. Unknown emails are not an
// error so callers cannot probe which addresses have reserved.
func (m *MagicLinks) Request(ctx context.Context, email string) error {
	if !validation.IsValidEmail(validation.NormalizeEmail(email)) {
		return ErrEmailRequired
	}
	guest, err := m.Resolver.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Info().Msg("magic link requested for unknown email")
			return nil
		}
		return err
	}
	token, err := m.Tokens.Issue(guest.ID, guest.Email)
	if err != nil {
		return err
	}
	m.Dispatcher.Notify(ctx, notifications.MagicLinkJob(guest, m.Link(token)))
	return nil
}
