package notification

import (
	"fmt"
	"html"
	"time"
)

const (
	PurposeRegister = "register"
	PurposeReset    = "reset"
)

// OTPEmail builds the subject and HTML body for a one-time code.
func OTPEmail(purpose, code string, ttl time.Duration) (subject, body string) {
	heading := "Confirm your email"
	intro := "Use the code below to finish creating your Pronat account."
	if purpose == PurposeReset {
		heading = "Reset your password"
		intro = "Use the code below to sign in and choose a new password."
	}
	subject = fmt.Sprintf("%s: %s", heading, FormatCode(code))

	body = fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head><meta http-equiv="Content-Type" content="text/html; charset=UTF-8" /><title>%s</title></head>
<body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f7f9fc;">
	<table align="center" border="0" cellpadding="0" cellspacing="0" width="600" style="border-collapse: collapse; background-color: #ffffff;">
		<tr>
			<td align="center" style="padding: 30px 0; background-color: #0f766e; color: #ffffff;">
				<h1 style="margin: 0; font-size: 24px;">%s</h1>
			</td>
		</tr>
		<tr>
			<td style="padding: 30px; color: #333333; font-size: 16px; line-height: 1.6;">
				<p style="margin-top: 0;">%s</p>
				<p align="center" style="margin: 30px 0;">
					<span style="background-color: #f0fdfa; border: 1px solid #99f6e4; border-radius: 8px; padding: 15px 40px; color: #0f766e; font-size: 24px; font-weight: bold; letter-spacing: 2px;">%s</span>
				</p>
				<p>This code expires in %d minutes and can be used once.</p>
				<p style="margin-bottom: 0;">If you did not request it, you can ignore this email.</p>
			</td>
		</tr>
		<tr>
			<td align="center" style="padding: 20px; background-color: #f0f2fa; color: #666666; font-size: 12px;">
				This is an automated message, please do not reply.
			</td>
		</tr>
	</table>
</body>
</html>`, html.EscapeString(heading), html.EscapeString(heading), html.EscapeString(intro),
		html.EscapeString(FormatCode(code)), int(ttl.Minutes()))
	return subject, body
}

// AccountBlockedEmail tells a user their account was suspended after a compliance match.
func AccountBlockedEmail(fullName string) (subject, body string) {
	name := fullName
	if name == "" {
		name = "there"
	}
	subject = "Your Pronat account has been suspended"
	body = fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: Arial, sans-serif; color: #333333;">
	<p>Hello %s,</p>
	<p>Your account and listing were suspended because the listing content did not meet our publishing rules for private sellers.</p>
	<p>If you think this is a mistake, please contact support.</p>
</body>
</html>`, html.EscapeString(name))
	return subject, body
}
