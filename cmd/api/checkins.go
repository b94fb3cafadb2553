package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pulso/internal/aggregate"
	"pulso/internal/geo"
	"pulso/internal/geofence"
	"pulso/internal/notifications"
	"pulso/internal/store"

	"github.com/go-chi/chi/v5"
)

// TempVenuePayload carries the provider snapshot of a not-yet-persisted venue
// so the first check-in can promote it to a real record.
type TempVenuePayload struct {
	Name     string   `json:"name" validate:"required,min=2,max=120"`
	Address  string   `json:"address" validate:"required,max=255"`
	Category string   `json:"category" validate:"required,oneof=bar nightclub pub restaurant other"`
	Lat      *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng      *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

// Signal levels run 0–3: zero is a legal observation (empty venue, dead
// vibe), so coordinates use pointers to tell "absent" from "zero" and the
// levels skip required.
type CreateCheckInPayload struct {
	Price   int      `json:"price" validate:"min=0,max=3"`
	Crowd   int      `json:"crowd" validate:"min=0,max=3"`
	Vibe    int      `json:"vibe" validate:"min=0,max=3"`
	Comment string   `json:"comment" validate:"max=280"`
	Lat     *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng     *float64 `json:"lng" validate:"required,min=-180,max=180"`

	// Required when checking in against a temporary provider id.
	Venue *TempVenuePayload `json:"venue,omitempty"`
}

// createCheckInHandler godoc
//
//	@Summary		Check in at a venue
//	@Description	Records price/crowd/vibe at the venue. Requires being within 300 m of it. A second check-in at the same venue is a success no-op. If the primary store is down the check-in is queued locally and synced later. Checking in against a provider-sourced temp id persists the venue first.
//	@Tags			checkins
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		string					true	"Venue ID (real or osm- temp id)"
//	@Param			payload	body		CreateCheckInPayload	true	"Check-in data"
//	@Success		201		{object}	map[string]any
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	error	"No position or too far from venue"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/checkins [post]
func (app *application) createCheckInHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCheckInPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.processCheckIn(w, r, payload)
}

type QuickVotePayload struct {
	Price int      `json:"price" validate:"min=0,max=3"`
	Crowd int      `json:"crowd" validate:"min=0,max=3"`
	Vibe  int      `json:"vibe" validate:"min=0,max=3"`
	Lat   *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng   *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

// quickVoteHandler godoc
//
//	@Summary		Quick vote from the map
//	@Description	A comment-less check-in posted straight from a map marker. Same geofence and duplicate policy as a full check-in.
//	@Tags			checkins
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		string				true	"Venue ID"
//	@Param			payload	body		QuickVotePayload	true	"Vote data"
//	@Success		201		{object}	map[string]any
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	error
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/vote [post]
func (app *application) quickVoteHandler(w http.ResponseWriter, r *http.Request) {
	var payload QuickVotePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	app.processCheckIn(w, r, CreateCheckInPayload{
		Price: payload.Price,
		Crowd: payload.Crowd,
		Vibe:  payload.Vibe,
		Lat:   payload.Lat,
		Lng:   payload.Lng,
	})
}

func (app *application) processCheckIn(w http.ResponseWriter, r *http.Request, payload CreateCheckInPayload) {
	user := getUserFromContext(r)
	venueID := chi.URLParam(r, "venueID")

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	venue, err := app.resolveVenue(r.Context(), venueID, payload.Venue)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, errTempSnapshotMissing):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	userPos := geo.Point{Lat: *payload.Lat, Lng: *payload.Lng}
	if err := app.guard.Check(&userPos, venue.Position()); err != nil {
		switch {
		case errors.Is(err, geofence.ErrNoPosition):
			app.badRequestResponse(w, r, err)
		default:
			app.forbiddenResponse(w, r)
		}
		return
	}

	checkIn := &store.CheckIn{
		VenueID: venue.ID,
		UserID:  user.ID,
		Price:   payload.Price,
		Crowd:   payload.Crowd,
		Vibe:    payload.Vibe,
		Comment: payload.Comment,
	}

	outcome, err := app.engine.Submit(r.Context(), checkIn)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if outcome == aggregate.OutcomeCreated {
		venueID := venue.ID
		venueName := venue.Name
		username := user.Username
		userID := user.ID

		app.background("recompute venue stats", func(ctx context.Context) {
			if err := app.engine.Recompute(ctx, venueID); err != nil {
				app.logger.Errorw("failed to recompute venue stats", "venue_id", venueID, "error", err)
			}
		})
		app.background("notify friends of check-in", func(ctx context.Context) {
			err := notifications.SendCheckInToFriends(ctx, app.push, &app.store, userID, username, venueID, venueName)
			if err != nil {
				app.logger.Warnw("failed to notify friends", "user_id", userID, "error", err)
			}
		})
	}

	response := map[string]any{
		"outcome":  outcome,
		"venue_id": venue.ID,
	}

	if err := app.jsonResponse(w, http.StatusCreated, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

var errTempSnapshotMissing = errors.New("venue snapshot required to check in at an unpersisted venue")

// resolveVenue maps the path id to a stored venue, promoting a temporary
// provider-sourced venue to a persisted record on its first check-in.
func (app *application) resolveVenue(ctx context.Context, venueID string, snapshot *TempVenuePayload) (*store.Venue, error) {
	if !store.IsTemporaryID(venueID) {
		return app.store.Venues.GetByID(ctx, venueID)
	}

	if snapshot == nil {
		return nil, errTempSnapshotMissing
	}

	venue := &store.Venue{
		Name:     snapshot.Name,
		Address:  snapshot.Address,
		Category: store.Category(snapshot.Category),
		Lat:      *snapshot.Lat,
		Lng:      *snapshot.Lng,
	}
	if err := app.store.Venues.Create(ctx, venue); err != nil {
		return nil, err
	}

	app.logger.Infow("temp venue promoted", "temp_id", venueID, "venue_id", venue.ID)
	return venue, nil
}

// listVenueCheckInsHandler godoc
//
//	@Summary		Recent check-ins at a venue
//	@Description	Returns the venue's check-ins inside the trailing aggregation window, newest first
//	@Tags			checkins
//	@Produce		json
//	@Param			venueID	path		string	true	"Venue ID"
//	@Success		200		{object}	[]store.CheckIn
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/venues/{venueID}/checkins [get]
func (app *application) listVenueCheckInsHandler(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueID")

	since := time.Now().Add(-aggregate.TrailingWindow)
	checkIns, err := app.store.CheckIns.ListSince(r.Context(), venueID, since)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, checkIns); err != nil {
		app.internalServerError(w, r, err)
	}
}
