package admin

import (
	"rootify-backend/internal/audit"
	"rootify-backend/internal/auth"
	"rootify-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      string             `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityKey   string             `json:"entity_key"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

// GET /api/admin/audit-logs?entity_type=soil_type&limit=50
// Admins only see what they did themselves.
func ListAuditLogsHandler(svc *audit.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid, err := auth.UserID(c)
		if err != nil {
			return err
		}

		logs, err := svc.List(c.UserContext(), audit.Filter{
			UserID:     uid,
			EntityType: c.Query("entity_type"),
			Limit:      c.QueryInt("limit", 100),
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list audit logs")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, log := range logs {
			resp = append(resp, AuditLogResponse{
				ID:          log.ID,
				CreatedAt:   log.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:      log.UserID,
				UserName:    log.UserName,
				EntityType:  log.EntityType,
				EntityKey:   log.EntityKey,
				Action:      log.Action,
				Description: log.Description,
			})
		}

		return c.JSON(resp)
	}
}
