package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agora/internal/domain"
	"agora/internal/transport/http/ez"
	resp "agora/internal/transport/http/response"
)

// requireElectedAdmin gates the moderation API on the election outcome. There
// is no admin role flag anywhere; holding a leader seat right now is the only
// thing that grants access.
func requireElectedAdmin(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, err := d.Engine.IsElectedAdmin(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServerError, "admin check failed"))
			return
		}
		if !admin {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "not an elected admin"))
			return
		}
		c.Next()
	}
}

func mountAdminActions(d Deps, g *gin.RouterGroup) {
	adm := ez.New(g)

	ez.RegisterAction(adm, ez.Action[struct{}, []domain.User]{
		Method: http.MethodGet, Path: "/users", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.User, error) {
			users, err := d.Users.List(c.Request.Context())
			if err != nil {
				return nil, ez.Internal("list users", err)
			}
			return users, nil
		},
	})

	ez.RegisterAction(adm, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/users/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			ctx := c.Request.Context()
			if c.Param("id") == c.GetString("userId") {
				return struct{}{}, ez.BadRequest("cannot remove your own account here")
			}
			u, err := d.Users.FindByID(ctx, c.Param("id"))
			if err != nil {
				return struct{}{}, ez.Internal("lookup user", err)
			}
			if u == nil {
				return struct{}{}, ez.NotFound("user not found")
			}
			if err := d.Users.SoftDelete(ctx, u.ID); err != nil {
				return struct{}{}, ez.Internal("remove user", err)
			}
			return struct{}{}, nil
		},
	})

	ez.RegisterAction(adm, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/suggestions/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			err := d.Engine.DeleteSuggestion(c.Request.Context(), c.GetString("userId"), c.Param("id"))
			return struct{}{}, ez.FromEngine(err)
		},
	})

	ez.RegisterAction(adm, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/messages/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			if err := d.Messages.Delete(c.Request.Context(), c.Param("id")); err != nil {
				return struct{}{}, ez.Internal("delete message", err)
			}
			return struct{}{}, nil
		},
	})
}
