package records

import (
	"encoding/json"
	"errors"
	"strings"

	"rootify-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// CropList accepts either a JSON array or a comma separated string.
type CropList []string

func (l *CropList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = ParseCrops(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*l = list
	return nil
}

type SoilTypeRequest struct {
	Name             string   `json:"name"`
	PH               float64  `json:"pH"`
	Nutrients        string   `json:"nutrients"`
	WaterRetention   string   `json:"waterRetention"`
	RecommendedCrops CropList `json:"recommendedCrops"`
}

// ----------------------------------------
// LISTING (every signed-in user)
// ----------------------------------------

// GET /api/soil-types
func ListSoilTypesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.SoilTypes(c.UserContext(), "")
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/distributors
func ListDistributorsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := svc.Distributors(c.UserContext(), "")
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// ----------------------------------------
// ADMIN
// ----------------------------------------

// GET /api/admin/soil-types
func ListMySoilTypesHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.UserID(c)
		if err != nil {
			return err
		}
		list, err := svc.SoilTypes(c.UserContext(), uid)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// GET /api/admin/distributors
func ListMyDistributorsHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.UserID(c)
		if err != nil {
			return err
		}
		list, err := svc.Distributors(c.UserContext(), uid)
		if err != nil {
			return err
		}
		return c.JSON(list)
	}
}

// POST /api/admin/soil-types
func CreateSoilTypeHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body SoilTypeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		rec, err := svc.AddSoilType(c.UserContext(), uid, SoilTypeInput{
			Name:             body.Name,
			PH:               body.PH,
			Nutrients:        body.Nutrients,
			WaterRetention:   body.WaterRetention,
			RecommendedCrops: body.RecommendedCrops,
		})
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// POST /api/admin/distributors
func CreateDistributorHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.UserID(c)
		if err != nil {
			return err
		}

		var body DistributorInput
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		rec, err := svc.AddDistributor(c.UserContext(), uid, body)
		if err != nil {
			return httpError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// DELETE /api/admin/soil-types/:id and /api/admin/distributors/:id
func DeleteHandler(svc *Service, kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.UserID(c)
		if err != nil {
			return err
		}

		if err := svc.Delete(c.UserContext(), kind, c.Params("id"), uid); err != nil {
			return httpError(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/soil-types/import and /api/admin/distributors/import
// (multipart, field "file", .xlsx)
func ImportHandler(svc *Service, kind Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.UserID(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File upload failed: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files can be imported")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not open uploaded file")
		}
		defer file.Close()

		var res *ImportResult
		switch kind {
		case SoilTypes:
			res, err = svc.ImportSoilTypes(c.UserContext(), uid, file)
		case Distributors:
			res, err = svc.ImportDistributors(c.UserContext(), uid, file)
		default:
			err = ErrUnknownKind
		}
		if err != nil {
			return httpError(err)
		}
		return c.JSON(res)
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "Record not found")
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(fiber.StatusForbidden, "You can only delete records you added")
	case errors.Is(err, ErrNotAdmin):
		return fiber.NewError(fiber.StatusForbidden, "Only admins can add records")
	case errors.Is(err, ErrUnknownKind):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
