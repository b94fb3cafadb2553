package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pulso/internal/geo"
	"pulso/internal/pulse"
	"pulso/internal/store"

	"github.com/go-chi/chi/v5"
)

// VenueWithPulse is a venue plus its live heat classification.
type VenueWithPulse struct {
	store.Venue
	Pulse pulse.Classification `json:"pulse"`
}

func classifyVenues(venues []store.Venue) []VenueWithPulse {
	now := time.Now()
	out := make([]VenueWithPulse, 0, len(venues))
	for _, v := range venues {
		out = append(out, VenueWithPulse{
			Venue: v,
			Pulse: pulse.Classify(v.Stats.AvgCrowd, v.Stats.AvgVibe, v.Stats.LastUpdated, now),
		})
	}
	return out
}

func parseFloatParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("missing query parameter %q", name)
	}
	return strconv.ParseFloat(raw, 64)
}

// discoverVenuesHandler godoc
//
//	@Summary		Discover venues near a position
//	@Description	Returns venues around (lat,lng) sorted by distance, with live heat classification. Optional north/south/east/west restrict the query to a viewport box.
//	@Tags			venues
//	@Produce		json
//	@Param			lat		query		number	true	"Latitude"
//	@Param			lng		query		number	true	"Longitude"
//	@Param			north	query		number	false	"Viewport north edge"
//	@Param			south	query		number	false	"Viewport south edge"
//	@Param			east	query		number	false	"Viewport east edge"
//	@Param			west	query		number	false	"Viewport west edge"
//	@Success		200		{object}	[]VenueWithPulse
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/venues [get]
func (app *application) discoverVenuesHandler(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloatParam(r, "lat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	lng, err := parseFloatParam(r, "lng")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var bounds *geo.BoundingBox
	if r.URL.Query().Get("north") != "" {
		north, err1 := parseFloatParam(r, "north")
		south, err2 := parseFloatParam(r, "south")
		east, err3 := parseFloatParam(r, "east")
		west, err4 := parseFloatParam(r, "west")
		if err := errors.Join(err1, err2, err3, err4); err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		bounds = &geo.BoundingBox{North: north, South: south, East: east, West: west}
	}

	venues := app.discovery.Discover(r.Context(), lat, lng, bounds)

	if err := app.jsonResponse(w, http.StatusOK, classifyVenues(venues)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// searchVenuesHandler godoc
//
//	@Summary		Search venues by name
//	@Description	Merges stored venues with live provider results, deduplicated; stored records win.
//	@Tags			venues
//	@Produce		json
//	@Param			q	query		string	true	"Search text, minimum 2 characters"
//	@Param			lat	query		number	true	"Latitude"
//	@Param			lng	query		number	true	"Longitude"
//	@Success		200	{object}	[]VenueWithPulse
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Router			/venues/search [get]
func (app *application) searchVenuesHandler(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloatParam(r, "lat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	lng, err := parseFloatParam(r, "lng")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	query := r.URL.Query().Get("q")
	venues := app.discovery.SearchByText(r.Context(), query, lat, lng)

	if err := app.jsonResponse(w, http.StatusOK, classifyVenues(venues)); err != nil {
		app.internalServerError(w, r, err)
	}
}

// nearbyProviderVenuesHandler godoc
//
//	@Summary		Live OpenStreetMap venues near a position
//	@Description	Fetches nightlife venues straight from the map-data provider, normalized and stamped with temporary ids. Best effort: provider downtime returns an empty list, never an error.
//	@Tags			venues
//	@Produce		json
//	@Param			lat		query		number	true	"Latitude"
//	@Param			lng		query		number	true	"Longitude"
//	@Param			radius	query		int		false	"Search radius in meters, default 2000, max 5000"
//	@Success		200		{object}	[]store.Venue
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Router			/venues/osm [get]
func (app *application) nearbyProviderVenuesHandler(w http.ResponseWriter, r *http.Request) {
	lat, err := parseFloatParam(r, "lat")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	lng, err := parseFloatParam(r, "lng")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	radius := 2000
	if raw := r.URL.Query().Get("radius"); raw != "" {
		radius, err = strconv.Atoi(raw)
		if err != nil || radius <= 0 || radius > 5000 {
			app.badRequestResponse(w, r, errors.New("radius must be between 1 and 5000 meters"))
			return
		}
	}

	origin := geo.Point{Lat: lat, Lng: lng}
	venues, err := app.overpass.Nearby(r.Context(), origin, radius)
	if err != nil {
		// The provider is best effort and never on the critical path.
		app.logger.Warnw("overpass fetch failed", "error", err)
		venues = nil
	}

	for i := range venues {
		venues[i].DistanceMeters = geo.DistanceBetween(origin, venues[i].Position())
	}

	if err := app.jsonResponse(w, http.StatusOK, venues); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateVenuePayload struct {
	Name     string   `json:"name" validate:"required,min=2,max=120"`
	Address  string   `json:"address" validate:"required,max=255"`
	Category string   `json:"category" validate:"required,oneof=bar nightclub pub restaurant other"`
	Lat      *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng      *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

// createVenueHandler godoc
//
//	@Summary		Create a venue
//	@Description	Registers a user-submitted venue. It starts unverified until the community confirms it.
//	@Tags			venues
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateVenuePayload	true	"Venue data"
//	@Success		201		{object}	store.Venue
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/venues [post]
func (app *application) createVenueHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateVenuePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	venue := &store.Venue{
		Name:     payload.Name,
		Address:  payload.Address,
		Category: store.Category(payload.Category),
		Lat:      *payload.Lat,
		Lng:      *payload.Lng,
	}

	if err := app.store.Venues.Create(r.Context(), venue); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, venue); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getVenueHandler godoc
//
//	@Summary		Get a venue
//	@Description	Returns one venue with its live heat classification
//	@Tags			venues
//	@Produce		json
//	@Param			venueID	path		string	true	"Venue ID"
//	@Success		200		{object}	VenueWithPulse
//	@Failure		404		{object}	error
//	@Router			/venues/{venueID} [get]
func (app *application) getVenueHandler(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueID")

	// Temp ids only live in provider responses; they have no stored row to
	// fetch until a check-in promotes them.
	if store.IsTemporaryID(venueID) {
		app.notFoundResponse(w, r, errors.New("venue not yet persisted"))
		return
	}

	venue, err := app.store.Venues.GetByID(r.Context(), venueID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	response := VenueWithPulse{
		Venue: *venue,
		Pulse: pulse.Classify(venue.Stats.AvgCrowd, venue.Stats.AvgVibe, venue.Stats.LastUpdated, time.Now()),
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

// uploadVenuePhotoHandler godoc
//
//	@Summary		Upload a venue photo
//	@Description	Uploads a venue cover photo to Cloudinary and stores the URL
//	@Tags			venues
//	@Accept			mpfd
//	@Produce		json
//	@Param			venueID	path		string	true	"Venue ID"
//	@Param			photo	formData	file	true	"Photo file, max 5MB"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/photos [post]
func (app *application) uploadVenuePhotoHandler(w http.ResponseWriter, r *http.Request) {
	venueID := chi.URLParam(r, "venueID")

	err := r.ParseMultipartForm(5 << 20) // 5 MB
	if err != nil {
		http.Error(w, "Unable to parse form, file size limit is 5MB", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "Unable to retrieve file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		http.Error(w, "Only JPEG and PNG images are allowed", http.StatusBadRequest)
		return
	}

	url, err := app.uploadVenuePhoto(file, venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Venues.SetImage(r.Context(), venueID, url); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"image_url": url}); err != nil {
		app.internalServerError(w, r, err)
	}
}

type VerifyVenuePayload struct {
	Lat *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng *float64 `json:"lng" validate:"required,min=-180,max=180"`
}

// verifyVenueHandler godoc
//
//	@Summary		Vote that a venue really exists
//	@Description	Records one verification vote. Votes are idempotent per user; the venue flips to verified once enough distinct users confirm it. Requires being physically at the venue.
//	@Tags			venues
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		string				true	"Venue ID"
//	@Param			payload	body		VerifyVenuePayload	true	"Voter position"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	error	"Too far from venue"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/verify [post]
func (app *application) verifyVenueHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	venueID := chi.URLParam(r, "venueID")

	var payload VerifyVenuePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	venue, err := app.store.Venues.GetByID(r.Context(), venueID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	userPos := geo.Point{Lat: *payload.Lat, Lng: *payload.Lng}
	if err := app.guard.Check(&userPos, venue.Position()); err != nil {
		app.forbiddenResponse(w, r)
		return
	}

	counted, err := app.store.Verifications.AddVote(r.Context(), venueID, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	votes, err := app.store.Verifications.CountVotes(r.Context(), venueID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	verified := venue.Verified
	if !verified && votes >= store.VerifiedVoteThreshold {
		if err := app.store.Venues.MarkVerified(r.Context(), venueID); err != nil {
			app.internalServerError(w, r, err)
			return
		}
		verified = true
		app.logger.Infow("venue verified by community", "venue_id", venueID, "votes", votes)
	}

	response := map[string]any{
		"counted":  counted,
		"votes":    votes,
		"verified": verified,
	}

	if err := app.jsonResponse(w, http.StatusOK, response); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ClaimVenuePayload struct {
	ContactPhone string `json:"contact_phone" validate:"required,max=30"`
	ContactEmail string `json:"contact_email" validate:"required,email,max=255"`
}

// claimVenueHandler godoc
//
//	@Summary		Claim a venue as its owner
//	@Description	Marks the venue as an official, owner-managed listing with contact details
//	@Tags			venues
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		string				true	"Venue ID"
//	@Param			payload	body		ClaimVenuePayload	true	"Business contact"
//	@Success		204
//	@Failure		400	{object}	ErrorBadRequestResponse
//	@Failure		404	{object}	error
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/claim [post]
func (app *application) claimVenueHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	venueID := chi.URLParam(r, "venueID")

	var payload ClaimVenuePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	info := store.ClaimInfo{
		OwnerID:      user.ID,
		ContactPhone: payload.ContactPhone,
		ContactEmail: payload.ContactEmail,
	}

	if err := app.store.Venues.Claim(r.Context(), venueID, info); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type ReportVenuePayload struct {
	Reason string `json:"reason" validate:"required,oneof=closed wrong_data offensive duplicate other"`
	Detail string `json:"detail" validate:"max=500"`
}

// reportVenueHandler godoc
//
//	@Summary		Report a venue listing
//	@Description	Flags a listing for moderation (closed down, wrong data, offensive content)
//	@Tags			venues
//	@Accept			json
//	@Produce		json
//	@Param			venueID	path		string				true	"Venue ID"
//	@Param			payload	body		ReportVenuePayload	true	"Report"
//	@Success		201		{object}	store.Report
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/venues/{venueID}/reports [post]
func (app *application) reportVenueHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)
	venueID := chi.URLParam(r, "venueID")

	var payload ReportVenuePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	report := &store.Report{
		VenueID: venueID,
		UserID:  user.ID,
		Reason:  payload.Reason,
		Detail:  payload.Detail,
	}

	if err := app.store.Reports.Create(r.Context(), report); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, report); err != nil {
		app.internalServerError(w, r, err)
	}
}
