package mailer

import "embed"

const (
	FromName           = "Pulso"
	maxRetries         = 3
	FriendInviteTmpl   = "friend_invitation.tmpl"
	WelcomeTmpl        = "user_welcome.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
