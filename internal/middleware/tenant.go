package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-import-service/internal/models"
)

// TenantMiddleware requires a tenant on every catalog request.
// A tenant_id already placed in the context by an upstream gateway wins over headers.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}
		if tenantID == "" {
			tenantID = c.GetHeader("X-Vendor-ID")
		}

		if tenantID == "" {
			c.JSON(http.StatusUnauthorized, models.NewErrorResponse(
				"TENANT_REQUIRED",
				"Tenant ID is required. Include X-Tenant-ID header.",
			))
			c.Abort()
			return
		}

		c.Set("tenantId", tenantID)
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) string {
	if tid := c.GetString("tenant_id"); tid != "" {
		return tid
	}
	return c.GetString("tenantId")
}
