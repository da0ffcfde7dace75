package server

import (
	"io"

	"memoria/internal/models"
	"memoria/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadImage handles POST /api/image
// @Summary Upload an image
// @Description Stores a downsized WebP copy and returns its public URL.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 200 {object} service.UploadedImage
// @Failure 400 {object} models.ErrorResponse
// @Router /image [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	if s.imageService == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewValidationError("Image storage is not configured"))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	uploaded, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(uploaded)
}
