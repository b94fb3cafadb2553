package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"pulso/internal/notifications"
	"pulso/internal/social"
	"pulso/internal/store"

	"github.com/go-chi/chi/v5"
)

type SendFriendRequestPayload struct {
	UserID int64 `json:"user_id" validate:"required,min=1"`
}

// sendFriendRequestHandler godoc
//
//	@Summary		Send a friend request
//	@Description	Creates a pending friendship edge towards another user and notifies them
//	@Tags			friends
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SendFriendRequestPayload	true	"Receiver"
//	@Success		201		{object}	store.Friendship
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error	"Already friends or request already pending"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/friends/requests [post]
func (app *application) sendFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload SendFriendRequestPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	edge, err := app.social.SendRequest(r.Context(), user.ID, payload.UserID)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrSelfRequest), errors.Is(err, social.ErrGuestIdentity):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, social.ErrAlreadyFriends),
			errors.Is(err, social.ErrRequestSent),
			errors.Is(err, social.ErrRequestReceived):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	receiverID := payload.UserID
	requesterName := user.Username
	app.background("notify friend request", func(ctx context.Context) {
		err := notifications.SendFriendRequestToUser(ctx, app.push, &app.store, receiverID, requesterName)
		if err != nil {
			app.logger.Warnw("failed to push friend request", "receiver_id", receiverID, "error", err)
		}
	})

	if err := app.jsonResponse(w, http.StatusCreated, edge); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RespondFriendRequestPayload struct {
	Accept bool `json:"accept"`
}

// respondFriendRequestHandler godoc
//
//	@Summary		Accept or decline a friend request
//	@Description	Only the receiver may respond. Accepting makes the edge permanent; declining deletes it so a fresh request can follow.
//	@Tags			friends
//	@Accept			json
//	@Produce		json
//	@Param			requestID	path	int							true	"Friendship ID"
//	@Param			payload		body	RespondFriendRequestPayload	true	"Decision"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		403	{object}	error	"Not the receiver"
//	@Failure		404	{object}	error
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/friends/requests/{requestID} [put]
func (app *application) respondFriendRequestHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	requestID, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload RespondFriendRequestPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	edge, err := app.store.Friendships.GetByID(r.Context(), requestID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.social.Respond(r.Context(), requestID, user.ID, payload.Accept); err != nil {
		switch {
		case errors.Is(err, social.ErrNotReceiver):
			app.forbiddenResponse(w, r)
		case errors.Is(err, social.ErrAlreadyFriends):
			app.conflictResponse(w, r, err)
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if payload.Accept {
		requesterID := edge.RequesterID
		accepterName := user.Username
		app.background("notify friend accepted", func(ctx context.Context) {
			err := notifications.SendFriendAcceptedToUser(ctx, app.push, &app.store, requesterID, accepterName)
			if err != nil {
				app.logger.Warnw("failed to push friend accepted", "requester_id", requesterID, "error", err)
			}
		})
	}

	w.WriteHeader(http.StatusNoContent)
}

// unfriendHandler godoc
//
//	@Summary		Remove a friend
//	@Description	Deletes the friendship edge (or cancels an outgoing pending request). Either participant may do it.
//	@Tags			friends
//	@Produce		json
//	@Param			friendshipID	path	int	true	"Friendship ID"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		403	{object}	error	"Not a participant"
//	@Failure		404	{object}	error
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/friends/{friendshipID} [delete]
func (app *application) unfriendHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	friendshipID, err := strconv.ParseInt(chi.URLParam(r, "friendshipID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.social.Unfriend(r.Context(), friendshipID, user.ID); err != nil {
		switch {
		case errors.Is(err, social.ErrNotParticipant):
			app.forbiddenResponse(w, r)
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// listFriendsHandler godoc
//
//	@Summary		List friends
//	@Description	Returns the user's accepted friendships
//	@Tags			friends
//	@Produce		json
//	@Success		200	{object}	[]store.Friendship
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/friends [get]
func (app *application) listFriendsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	friends, err := app.social.Friends(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, friends); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listFriendRequestsHandler godoc
//
//	@Summary		List pending friend requests
//	@Description	Returns pending requests in both directions
//	@Tags			friends
//	@Produce		json
//	@Success		200	{object}	[]store.Friendship
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/friends/requests [get]
func (app *application) listFriendRequestsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	requests, err := app.social.PendingRequests(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, requests); err != nil {
		app.internalServerError(w, r, err)
	}
}

// friendRelationHandler godoc
//
//	@Summary		Relation to another user
//	@Description	Returns the viewer's relation to the given user: none, pending_sent, pending_received or friends
//	@Tags			friends
//	@Produce		json
//	@Param			userID	path		int	true	"Other user ID"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/friends/relation/{userID} [get]
func (app *application) friendRelationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	otherID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	relation, err := app.social.RelationBetween(r.Context(), user.ID, otherID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"relation": string(relation)}); err != nil {
		app.internalServerError(w, r, err)
	}
}
