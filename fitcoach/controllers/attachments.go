package controllers

import (
	"context"
	"io"

	"fitcoach/fitcoach/sources/storage"
	"fitcoach/fitcoach/types"
)

type AttachmentController struct {
	store *storage.MinIOClient
}

func NewAttachmentController(store *storage.MinIOClient) *AttachmentController {
	return &AttachmentController{store: store}
}

// Upload stores the file and returns the attachment reference clients embed
// in chat messages.
func (c *AttachmentController) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (types.Attachment, error) {
	return c.store.UploadAttachment(ctx, name, contentType, r, size)
}
