package uploads

import (
	uploadsvc "club25-backend/internal/application/uploads"
	"club25-backend/internal/interfaces/handlers/httperr"
	"club25-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Handlers bundles drop media handlers with the service.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

type approveRequest struct {
	Approved bool `json:"approved"`
}

func param(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	return id, err == nil
}

// UploadURL POST /api/admin/drops/:id/media/upload-url
func (h *Handlers) UploadURL(c *fiber.Ctx) error {
	dropID, ok := param(c, "id")
	if !ok {
		return response.Error(c, "Invalid drop id", fiber.StatusBadRequest, nil)
	}
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return response.Error(c, uploadsvc.ErrFileNameRequired.Error(), fiber.StatusBadRequest, nil)
	}

	res, err := h.Service.SignUpload(c.Context(), dropID, req.FileName)
	if err != nil {
		if httperr.Status(err) != fiber.StatusInternalServerError {
			return httperr.Admin(c, err)
		}
		log.Error().Err(err).Str("drop_id", dropID.String()).Msg("upload: failed to generate signed URL")
		return response.Error(c, "Failed to generate upload URL", fiber.StatusInternalServerError, nil)
	}
	return response.Success(c, "Upload URL generated", res, nil)
}

// Register POST /api/admin/drops/:id/media: records an uploaded file, unapproved.
func (h *Handlers) Register(c *fiber.Ctx) error {
	dropID, ok := param(c, "id")
	if !ok {
		return response.Error(c, "Invalid drop id", fiber.StatusBadRequest, nil)
	}
	var in uploadsvc.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	m, err := h.Service.Register(c.Context(), dropID, in)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.SuccessCreated(c, "Media registered", m, nil)
}

// List GET /api/admin/drops/:id/media: approved and pending.
func (h *Handlers) List(c *fiber.Ctx) error {
	dropID, ok := param(c, "id")
	if !ok {
		return response.Error(c, "Invalid drop id", fiber.StatusBadRequest, nil)
	}
	media, err := h.Service.List(c.Context(), dropID)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Media fetched successfully", media, fiber.Map{"count": len(media)})
}

// Approve PATCH /api/admin/media/:mediaId: {approved}
func (h *Handlers) Approve(c *fiber.Ctx) error {
	id, ok := param(c, "mediaId")
	if !ok {
		return response.Error(c, "Invalid media id", fiber.StatusBadRequest, nil)
	}
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	m, err := h.Service.SetApproved(c.Context(), id, req.Approved)
	if err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Media updated", m, nil)
}

// Delete DELETE /api/admin/media/:mediaId
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, ok := param(c, "mediaId")
	if !ok {
		return response.Error(c, "Invalid media id", fiber.StatusBadRequest, nil)
	}
	if err := h.Service.Delete(c.Context(), id); err != nil {
		return httperr.Admin(c, err)
	}
	return response.Success(c, "Media deleted", nil, nil)
}
