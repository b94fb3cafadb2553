package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// uploadVenuePhoto uploads a venue cover photo with a controlled public ID.
func (app *application) uploadVenuePhoto(file io.Reader, venueID string) (string, error) {
	publicID := fmt.Sprintf("venue_%s_%d", venueID, time.Now().UnixNano())

	resp, err := app.cld.Upload.Upload(
		context.Background(), // external call, not tied to the request
		file,
		uploader.UploadParams{
			Folder:    "venues",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}
