package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func testContext(t *testing.T) echo.Context {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestActorFrom(t *testing.T) {
	c := testContext(t)
	// JWTAuth stores numeric claims as float64, the way encoding/json
	// decodes them.
	c.Set("user_id", float64(7))
	c.Set("restaurant_id", float64(3))
	c.Set("role", "CASHIER")

	actor, err := ActorFrom(c)
	if err != nil {
		t.Fatalf("ActorFrom: %v", err)
	}
	if actor.UserID != 7 || actor.RestaurantID != 3 || string(actor.Role) != "CASHIER" {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestActorFromStringClaims(t *testing.T) {
	c := testContext(t)
	c.Set("user_id", "7")
	c.Set("restaurant_id", "3")
	c.Set("role", "MANAGER")

	actor, err := ActorFrom(c)
	if err != nil {
		t.Fatalf("ActorFrom: %v", err)
	}
	if actor.UserID != 7 || actor.RestaurantID != 3 {
		t.Fatalf("unexpected actor: %+v", actor)
	}
}

func TestActorFromRejects(t *testing.T) {
	// No claims at all.
	if _, err := ActorFrom(testContext(t)); err == nil {
		t.Fatalf("expected error for empty context")
	}

	// Unknown role.
	c := testContext(t)
	c.Set("user_id", float64(7))
	c.Set("restaurant_id", float64(3))
	c.Set("role", "OWNER")
	if _, err := ActorFrom(c); err == nil {
		t.Fatalf("expected error for unknown role")
	}

	// Missing tenant claim.
	c = testContext(t)
	c.Set("user_id", float64(7))
	c.Set("role", "WAITER")
	if _, err := ActorFrom(c); err == nil {
		t.Fatalf("expected error for missing restaurant claim")
	}
}

func TestCurrentUserID(t *testing.T) {
	c := testContext(t)
	if got := currentUserID(c); got != "anon" {
		t.Fatalf("got %q, want anon", got)
	}
	c.Set("user_id", float64(42))
	if got := currentUserID(c); got != "42" {
		t.Fatalf("got %q, want 42", got)
	}
}
