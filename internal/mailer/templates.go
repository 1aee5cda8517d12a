package mailer

import (
	"fmt"
	"html"
)

func VerificationEmail(to, link string) Message {
	l := html.EscapeString(link)
	return Message{
		To:      to,
		Subject: "Verify Your Email",
		HTML:    fmt.Sprintf(`Please click this link to verify your email: <a href="%s">%s</a>`, l, l),
	}
}

func PasswordResetEmail(to, link string) Message {
	l := html.EscapeString(link)
	return Message{
		To:      to,
		Subject: "Reset Your Password",
		HTML:    fmt.Sprintf(`Please click this link to reset your password: <a href="%s">%s</a>. The link expires in one hour.`, l, l),
	}
}
