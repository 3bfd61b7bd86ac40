package notifications

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"club25-backend/internal/domain"
)

// Brand palette.
const (
	brandBlue     = "#004aad"
	brandGold     = "#D4AF37"
	brandCream    = "#fffcf7"
	brandCharcoal = "#1E1E1E"
	brandLilac    = "#4a3e8e"
	brandGray     = "#B8B8B8"
)

const dateLayout = "Monday, January 2, 2006 at 3:04 PM"

var ErrUnknownKind = errors.New("unknown notification kind")

// Email is one rendered message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// FormatDropDate renders a drop time the way guests see it in e-mails.
func FormatDropDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// Render turns a job into a ready-to-send e-mail.
func Render(job Job, appURL string) (Email, error) {
	subject, preheader, body, err := compose(job, appURL)
	if err != nil {
		return Email{}, err
	}
	return Email{To: job.To, Subject: subject, HTML: EmailLayout(body, preheader)}, nil
}

func compose(job Job, appURL string) (subject, preheader, body string, err error) {
	appURL = strings.TrimRight(appURL, "/")
	name := job.Name
	if name == "" {
		name = "there"
	}
	date := ""
	if !job.DropDate.IsZero() {
		date = FormatDropDate(job.DropDate)
	}
	ticketURL := appURL + "/my-ticket?code=" + url.QueryEscape(job.ConfirmationCode)
	dropURL := appURL + "/drop/" + url.PathEscape(job.DropSlug)

	switch job.Kind {
	case KindRSVPConfirmation:
		if job.Status == domain.RSVPWaitlist {
			return "On waitlist: " + job.DropTitle,
				"We'll tell you the moment a seat opens",
				waitlistContent(name, job.DropTitle, date, job.ConfirmationCode), nil
		}
		return "\u2713 You're in: " + job.DropTitle,
			"Code " + job.ConfirmationCode + " \u2022 Tap to view your ticket",
			confirmedContent(name, job.DropTitle, date, job.ConfirmationCode, ticketURL), nil
	case KindCheckinReminder:
		location := job.DropLocation
		if location == "" {
			location = "Location on your ticket"
		}
		return "\U0001F303 Tomorrow: " + job.DropTitle,
			"Location revealed: " + location,
			reminderContent(name, job.DropTitle, date, location, ticketURL), nil
	case KindWaitlistPromoted:
		return "\U0001F389 A seat opened: " + job.DropTitle,
			"You're off the waitlist",
			promotedContent(name, job.DropTitle, date, ticketURL, dropURL), nil
	case KindMagicLink:
		if job.Link == "" {
			return "", "", "", errors.New("magic link job without link")
		}
		return "Your Club25 sign-in link", "Open your drops and tickets", magicLinkContent(name, job.Link), nil
	case KindEventRecap:
		return "\u2728 Last night: " + job.DropTitle,
			"Relive the moments",
			recapContent(name, job.DropTitle, dropURL+"/gallery"), nil
	}
	return "", "", "", fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
}

func confirmedContent(name, title, date, code, ticketURL string) string {
	return fmt.Sprintf(`
    <p class="badge">CONFIRMED</p>
    <h1>%s</h1>
    <p class="muted">%s</p>
    <p>%s, your seat is confirmed.</p>
    <p>Twenty-five seats and one night. Come hungry and come curious.</p>
    <div class="code-box">%s</div>
    <p>Your QR code is on your ticket. Show it at the door for instant check-in; it works offline once saved.</p>
    <center>
      <a href="%s" class="club-button">View Ticket &amp; QR Code</a>
    </center>
    <p class="muted">The location is revealed 24 hours before doors open.</p>
    <p>See you soon.<br>Club25</p>
`, EscapeHTML(title), EscapeHTML(date), EscapeHTML(name), EscapeHTML(code), ticketURL)
}

func waitlistContent(name, title, date, code string) string {
	return fmt.Sprintf(`
    <p class="badge">WAITLIST</p>
    <h1>%s</h1>
    <p class="muted">%s</p>
    <p>%s, we're at capacity right now.</p>
    <p>You're on the priority waitlist. If a seat opens you'll be the first to know.</p>
    <div class="code-box">%s</div>
    <p class="muted">Keep this code. You'll need it if a seat opens.</p>
    <p>We'll keep you posted.<br>Club25</p>
`, EscapeHTML(title), EscapeHTML(date), EscapeHTML(name), EscapeHTML(code))
}

func reminderContent(name, title, date, location, ticketURL string) string {
	return fmt.Sprintf(`
    <p class="badge">TOMORROW NIGHT</p>
    <h1>%s</h1>
    <p class="muted">%s</p>
    <p class="location">%s</p>
    <p>%s, it's happening tomorrow.</p>
    <p>The location is unlocked above. Doors open 15 minutes early; have your QR code ready when you arrive.</p>
    <center>
      <a href="%s" class="club-button">View QR Code</a>
    </center>
    <p>See you tomorrow.<br>Club25</p>
`, EscapeHTML(title), EscapeHTML(date), EscapeHTML(location), EscapeHTML(name), ticketURL)
}

func promotedContent(name, title, date, ticketURL, dropURL string) string {
	return fmt.Sprintf(`
    <p class="badge">SEAT AVAILABLE</p>
    <h1>%s</h1>
    <p class="muted">%s</p>
    <p>%s, you're off the waitlist.</p>
    <p>A seat just opened and it's yours. Your confirmation code stays the same and your ticket is ready.</p>
    <center>
      <a href="%s" class="club-button">View My Ticket</a>
    </center>
    <p class="muted"><a href="%s">View event details</a></p>
    <p>See you there.<br>Club25</p>
`, EscapeHTML(title), EscapeHTML(date), EscapeHTML(name), ticketURL, dropURL)
}

func magicLinkContent(name, link string) string {
	return fmt.Sprintf(`
    <h1>Sign in to Club25</h1>
    <p>Hi %s,</p>
    <p>Tap the button below to see your drops and tickets. The link works once and expires in 7 days.</p>
    <center>
      <a href="%s" class="club-button">Open My Drops</a>
    </center>
    <p class="muted">If you didn't ask for this link you can ignore this email.</p>
`, EscapeHTML(name), link)
}

func recapContent(name, title, galleryURL string) string {
	return fmt.Sprintf(`
    <p class="badge">LAST NIGHT</p>
    <h1>%s</h1>
    <p>%s, last night was something special.</p>
    <p>The photos are live. View the gallery, save your favorites and share your own moments from the evening.</p>
    <center>
      <a href="%s" class="club-button">View Photo Gallery</a>
    </center>
    <p>The next drop is coming soon. You'll be the first to know.<br>Club25</p>
`, EscapeHTML(title), EscapeHTML(name), galleryURL)
}

// EmailLayout wraps content in the Club25 card with a hidden preheader line.
func EmailLayout(contentHTML, preheader string) string {
	year := time.Now().Year()
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en" xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="x-apple-disable-message-reformatting">
  <title>Club25</title>
  <style>
    body { margin: 0; padding: 0; width: 100%% !important; background-color: %s; -webkit-font-smoothing: antialiased; }
    table { border-collapse: collapse; }
    body, td, p, a { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; color: %s; }
    .content-body h1 { margin: 0 0 16px 0; font-size: 32px; font-weight: 400; line-height: 1.2; font-family: Georgia, 'Times New Roman', serif; color: %s; }
    .content-body p { margin: 0 0 24px 0; font-size: 16px; line-height: 1.7; color: %s; }
    .content-body .muted { font-size: 14px; color: %s; }
    .content-body .badge { font-size: 11px; letter-spacing: 2px; font-weight: bold; color: %s; }
    .content-body .location { font-size: 20px; font-weight: bold; color: %s; }
    .code-box { margin: 32px 0; padding: 32px; text-align: center; border: 2px solid %s; border-radius: 8px; font-family: 'Courier New', monospace; font-size: 36px; font-weight: bold; letter-spacing: 4px; color: %s; }
    .club-button { display: inline-block; padding: 18px 48px; background-color: %s; color: %s !important; text-decoration: none !important; font-weight: bold; font-size: 15px; letter-spacing: 2px; border-radius: 6px; text-transform: uppercase; }
    @media only screen and (max-width: 600px) { .main-container { width: 100%% !important; } .mobile-p { padding: 24px !important; } }
  </style>
</head>
<body style="margin: 0; padding: 0; background-color: %s;">
  <div style="display: none; max-height: 0; overflow: hidden; opacity: 0;">%s</div>
  <table role="presentation" width="100%%" border="0" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table class="main-container" role="presentation" width="600" border="0" cellspacing="0" cellpadding="0" style="width: 600px;">
          <tr>
            <td align="center" style="padding-bottom: 32px;">
              <p style="margin: 0; font-size: 48px; letter-spacing: 6px; font-family: Georgia, 'Times New Roman', serif; color: %s;">Club25</p>
              <p style="margin: 8px 0 0 0; font-size: 10px; letter-spacing: 3px; font-weight: bold; color: %s;">INVITATION ONLY</p>
            </td>
          </tr>
          <tr>
            <td class="content-body mobile-p" style="background-color: %s; padding: 40px; border-radius: 8px; border: 1px solid %s;">%s</td>
          </tr>
          <tr>
            <td align="center" style="padding-top: 32px;">
              <p style="margin: 0; font-size: 12px; line-height: 1.6; opacity: 0.6; color: %s;">Questions? Reply to this email.<br>&copy; %d Club25</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		brandBlue, brandCream, brandCream, brandCream, brandGray, brandGold, brandGold, brandGold, brandGold,
		brandGold, brandCharcoal, brandBlue, EscapeHTML(preheader), brandBlue, brandCream, brandGold,
		brandCharcoal, brandLilac, contentHTML, brandCream, year)
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}
