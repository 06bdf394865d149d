package server

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/creatornet/creatornet/internal/onboarding"
	"github.com/creatornet/creatornet/internal/uploads"
)

// UploadPhotos accepts multipart profile photos during the creator photos
// step, saves them under the upload directory, and records the stored
// filenames on the draft. Upload batches that would exceed the photo
// ceiling are rejected outright, not truncated.
func (s *Server) UploadPhotos(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	w := sess.Wizard
	if w.Step != onboarding.StepCreatorPhotos {
		return &onboarding.ErrWrongStep{Want: onboarding.StepCreatorPhotos, Got: w.Step}
	}

	form, err := c.MultipartForm()
	if err != nil {
		return NewAppError(fiber.StatusBadRequest, "Invalid multipart payload", nil, err)
	}

	headers := form.File["photos"]
	if len(headers) == 0 {
		return NewAppError(fiber.StatusBadRequest, "Upload at least 1 photo", nil, nil)
	}
	if len(w.Draft.Photos)+len(headers) > s.onb.MaxPhotos() {
		return NewAppError(fiber.StatusUnprocessableEntity,
			fmt.Sprintf("Max %d photos for now", s.onb.MaxPhotos()), nil, nil)
	}

	files := make([]uploads.File, 0, len(headers))
	closers := make([]func() error, 0, len(headers))
	defer func() {
		for _, close := range closers {
			_ = close()
		}
	}()
	for _, fh := range headers {
		f, openErr := fh.Open()
		if openErr != nil {
			return NewAppError(fiber.StatusBadRequest, "Unreadable upload", nil, openErr)
		}
		closers = append(closers, f.Close)
		files = append(files, uploads.File{Name: fh.Filename, Reader: f})
	}

	prefix := "creator_" + w.DisplayName
	saved, err := s.saver.Save(files, prefix)
	if err != nil {
		return NewAppError(fiber.StatusUnprocessableEntity, err.Error(), nil, err)
	}

	if err := w.AddPhotos(saved, s.onb.MaxPhotos()); err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{w, sess.ProfileID}, ""))
}

// UploadSelfie accepts the single optional verification selfie.
func (s *Server) UploadSelfie(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	w := sess.Wizard
	if w.Step != onboarding.StepCreatorVerification {
		return &onboarding.ErrWrongStep{Want: onboarding.StepCreatorVerification, Got: w.Step}
	}

	fh, err := c.FormFile("selfie")
	if err != nil {
		return NewAppError(fiber.StatusBadRequest, "Selfie file is missing", nil, err)
	}

	f, err := fh.Open()
	if err != nil {
		return NewAppError(fiber.StatusBadRequest, "Unreadable upload", nil, err)
	}
	defer f.Close()

	saved, err := s.saver.Save(
		[]uploads.File{{Name: fh.Filename, Reader: f}},
		"selfie_"+w.DisplayName,
	)
	if err != nil {
		return NewAppError(fiber.StatusUnprocessableEntity, err.Error(), nil, err)
	}

	if err := w.SetSelfie(saved[0]); err != nil {
		return err
	}

	return Success(c, fiber.StatusOK, MessageOK,
		s.stateResponse(sessionView{w, sess.ProfileID}, ""))
}

// ServeUpload resolves a stored filename against the fixed upload directory
// and serves it. Traversal attempts are rejected.
func (s *Server) ServeUpload(c fiber.Ctx) error {
	path, err := s.saver.Resolve(c.Params("name"))
	if err != nil {
		return NewAppError(fiber.StatusNotFound, MessageNotFound, nil, err)
	}
	return c.SendFile(path)
}
