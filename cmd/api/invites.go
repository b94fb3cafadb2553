package main

import (
	"errors"
	"fmt"
	"net/http"

	"pulso/internal/mailer"
	"pulso/internal/store"

	"github.com/google/uuid"
)

type SendInvitePayload struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// sendInviteHandler godoc
//
//	@Summary		Invite a friend by email
//	@Description	Sends an email invitation to join the app. One invite per (sender, email) pair.
//	@Tags			friends
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SendInvitePayload	true	"Invitee email"
//	@Success		201		{object}	store.Invite
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error	"Already invited"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/invites [post]
func (app *application) sendInviteHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload SendInvitePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	invite := &store.Invite{
		SenderID: user.ID,
		Email:    payload.Email,
		Token:    uuid.NewString(),
	}

	if err := app.store.Invites.Create(r.Context(), invite); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			app.conflictResponse(w, r, errors.New("this person was already invited"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	inviteURL := fmt.Sprintf("%s/join?invite=%s", app.config.frontendURL, invite.Token)

	vars := struct {
		SenderName string
		InviteURL  string
	}{
		SenderName: user.Username,
		InviteURL:  inviteURL,
	}

	status, err := app.mailer.Send(mailer.FriendInviteTmpl, user.Username, payload.Email, vars)
	if err != nil {
		app.logger.Errorw("error sending invite email", "error", err)
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("Invite email sent", "status code", status)

	if err := app.jsonResponse(w, http.StatusCreated, invite); err != nil {
		app.internalServerError(w, r, err)
	}
}
