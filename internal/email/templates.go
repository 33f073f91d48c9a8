package email

import "fmt"

// MagicLink renders the login email for a magic-link URL.
func MagicLink(loginURL string) Message {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Sign in to Feature Voting</h2>
  <p>Click the button below to sign in. This link expires in 15 minutes.</p>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%[1]s" style="display: inline-block; background: #667eea; color: white; padding: 14px 32px; text-decoration: none; border-radius: 8px;">Sign In</a>
  </p>
  <p style="color: #9ca3af; font-size: 14px;">Or copy and paste this URL into your browser:<br><a href="%[1]s">%[1]s</a></p>
  <p style="color: #9ca3af; font-size: 13px;">If you didn't request this email, you can safely ignore it.</p>
</body>
</html>`, loginURL)

	text := fmt.Sprintf(`Sign in to Feature Voting

Click the link below to sign in to your account:

%s

This link will expire in 15 minutes.

If you didn't request this email, you can safely ignore it.`, loginURL)

	return Message{
		Subject: "Sign in to Feature Voting",
		HTML:    html,
		Text:    text,
	}
}

// SuggestionOutcome renders the approval/rejection notice for a suggestion.
func SuggestionOutcome(title string, approved bool, note string) Message {
	verdict := "approved"
	if !approved {
		verdict = "rejected"
	}
	body := fmt.Sprintf("Your feature suggestion %q has been %s.", title, verdict)
	if note != "" {
		body += "\n\nReviewer note: " + note
	}
	return Message{
		Subject: fmt.Sprintf("Your suggestion was %s", verdict),
		HTML:    "<p>" + body + "</p>",
		Text:    body,
	}
}
