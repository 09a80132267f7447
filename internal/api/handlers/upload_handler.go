package handlers

import (
	"io"
	"strconv"

	"contentfactory/internal/models"
	"contentfactory/internal/repository"
	"contentfactory/internal/service"
	"github.com/gofiber/fiber/v2"
)

type UploadHandler struct {
	media   service.MediaService
	uploads repository.UploadRepository
}

func NewUploadHandler(media service.MediaService, uploads repository.UploadRepository) *UploadHandler {
	return &UploadHandler{media: media, uploads: uploads}
}

func (h *UploadHandler) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	filename, fileType, err := h.media.SaveUpload(c.Context(), fileHeader.Filename, data)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	projectID, _ := strconv.ParseInt(c.FormValue("project_id"), 10, 64)

	upload, err := h.uploads.Create(c.Context(), &models.Upload{
		ProjectID: projectID,
		Filename:  filename,
		Filepath:  "/uploads/" + filename,
		FileType:  fileType,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(upload)
}

func (h *UploadHandler) ListUploads(c *fiber.Ctx) error {
	projectID, err := paramID(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project id",
		})
	}

	uploads, err := h.uploads.ListByProject(c.Context(), projectID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(uploads)
}
