// Package devices stores the client devices refresh tokens are bound to.
package devices

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, device *models.Device) (*models.Device, error)
	// Touch records fresh activity from the device.
	Touch(ctx context.Context, id int64, userAgent, ip string, at time.Time) error
	Deactivate(ctx context.Context, id int64) error
}
