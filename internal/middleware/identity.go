package middleware

// identity.go resolves the authenticated staff actor from the claims
// that JWTAuth stored in the Echo context. JWT numeric claims arrive as
// float64 from encoding/json; string claims are accepted too so tokens
// minted by older issuers keep working.

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-orders/internal/service"
)

// ErrNoActor is returned when the context carries no usable identity.
var ErrNoActor = errors.New("no authenticated actor in context")

func claimUint64(c echo.Context, key string) (uint64, bool) {
	switch v := c.Get(key).(type) {
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ActorFrom builds the service.Actor consumed by the settlement core.
// It fails when the user id, role or tenant claim is missing or the
// role is not in the closed staff set.
func ActorFrom(c echo.Context) (service.Actor, error) {
	userID, ok := claimUint64(c, "user_id")
	if !ok {
		return service.Actor{}, ErrNoActor
	}
	restaurantID, ok := claimUint64(c, "restaurant_id")
	if !ok {
		return service.Actor{}, ErrNoActor
	}
	role, ok := c.Get("role").(string)
	if !ok || !service.ValidRole(service.Role(role)) {
		return service.Actor{}, ErrNoActor
	}
	return service.Actor{
		UserID:       userID,
		Role:         service.Role(role),
		RestaurantID: restaurantID,
	}, nil
}

// currentUserID is the identity string used by rate-limit keys. Falls
// back to "anon" for unauthenticated requests.
func currentUserID(c echo.Context) string {
	if id, ok := claimUint64(c, "user_id"); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
