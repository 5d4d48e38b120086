package router

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agora/internal/domain"
	"agora/internal/transport/http/ez"
	"agora/internal/transport/http/middleware"
	"agora/pkg/utils"
)

const defaultMessageLimit = 100

type postMessageIn struct {
	Room    string `json:"room" binding:"required,max=64"`
	Content string `json:"content" binding:"required,max=4000"`
}

type listMessagesIn struct {
	Room  string `form:"room" binding:"required,max=64"`
	Limit int    `form:"limit"`
}

type createLeadIn struct {
	Date        string `json:"date" binding:"required"` // RFC 3339
	Duration    string `json:"duration" binding:"required,max=64"`
	Description string `json:"description" binding:"required,max=4000"`
}

// leadView joins the author's display name onto the lead row.
type leadView struct {
	domain.BookingLead
	AuthorName string `json:"authorName"`
}

// validRoom allows the shared room plus the per-referendum rooms.
func validRoom(room string) bool {
	return room == "general" || strings.HasPrefix(room, "referendum-")
}

func mountCommunityActions(d Deps, g *gin.RouterGroup) {
	priv := ez.New(g.Group("", middleware.AuthJWT(d.JWT)))

	// Chat messages.

	ez.RegisterAction(priv, ez.Action[postMessageIn, *domain.Message]{
		Method: http.MethodPost, Path: "/messages", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *postMessageIn) (*domain.Message, error) {
			if !validRoom(in.Room) {
				return nil, ez.BadRequest("unknown room")
			}
			ctx := c.Request.Context()
			m := &domain.Message{
				ID:       utils.NewID(),
				AuthorID: c.GetString("userId"),
				Room:     in.Room,
				Content:  in.Content,
			}
			if err := d.Messages.Create(ctx, m); err != nil {
				return nil, ez.Internal("store message", err)
			}
			if err := d.RT.Broadcast(ctx, "chat:"+in.Room, m); err != nil {
				d.Log.Warn("broadcast message", zap.String("room", in.Room), zap.Error(err))
			}
			return m, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[listMessagesIn, []domain.Message]{
		Method: http.MethodGet, Path: "/messages", Binder: ez.BindQuery, Auth: true,
		Handler: func(c *gin.Context, in *listMessagesIn) ([]domain.Message, error) {
			if !validRoom(in.Room) {
				return nil, ez.BadRequest("unknown room")
			}
			limit := in.Limit
			if limit <= 0 || limit > 500 {
				limit = defaultMessageLimit
			}
			msgs, err := d.Messages.ListByRoom(c.Request.Context(), in.Room, limit)
			if err != nil {
				return nil, ez.Internal("list messages", err)
			}
			return msgs, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/messages/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			ctx := c.Request.Context()
			admin, err := d.Engine.IsElectedAdmin(ctx, c.GetString("userId"))
			if err != nil {
				return struct{}{}, ez.Internal("check admin", err)
			}
			if !admin {
				return struct{}{}, ez.Forbidden("only elected admins may remove messages")
			}
			if err := d.Messages.Delete(ctx, c.Param("id")); err != nil {
				return struct{}{}, ez.Internal("delete message", err)
			}
			return struct{}{}, nil
		},
	})

	// Booking leads.

	ez.RegisterAction(priv, ez.Action[createLeadIn, *domain.BookingLead]{
		Method: http.MethodPost, Path: "/leads", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *createLeadIn) (*domain.BookingLead, error) {
			date, err := time.Parse(time.RFC3339, in.Date)
			if err != nil {
				return nil, ez.BadRequest("date must be RFC 3339")
			}
			ctx := c.Request.Context()
			l := &domain.BookingLead{
				ID:          utils.NewID(),
				AuthorID:    c.GetString("userId"),
				Date:        date,
				Duration:    in.Duration,
				Description: in.Description,
			}
			if err := d.Leads.Create(ctx, l); err != nil {
				return nil, ez.Internal("store lead", err)
			}
			if emails, err := d.Users.AllEmails(ctx); err != nil {
				d.Log.Warn("collect lead recipients", zap.Error(err))
			} else if err := d.Mail.Send(emails, "New Booking Lead",
				fmt.Sprintf("%s posted a new booking lead for %s (%s):\n\n%s",
					c.GetString("userName"), date.Format("2006-01-02"), l.Duration, l.Description)); err != nil {
				d.Log.Warn("send lead mail", zap.Error(err))
			}
			return l, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, []leadView]{
		Method: http.MethodGet, Path: "/leads", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) ([]leadView, error) {
			ctx := c.Request.Context()
			leads, err := d.Leads.List(ctx)
			if err != nil {
				return nil, ez.Internal("list leads", err)
			}
			out := make([]leadView, 0, len(leads))
			for _, l := range leads {
				name := l.AuthorID
				if u, err := d.Users.FindByID(ctx, l.AuthorID); err == nil && u != nil {
					name = u.Name
				}
				out = append(out, leadView{BookingLead: l, AuthorName: name})
			}
			return out, nil
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/leads/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			ctx := c.Request.Context()
			l, err := d.Leads.FindByID(ctx, c.Param("id"))
			if err != nil {
				return struct{}{}, ez.Internal("lookup lead", err)
			}
			if l == nil {
				return struct{}{}, ez.NotFound("lead not found")
			}
			if l.AuthorID != c.GetString("userId") {
				admin, err := d.Engine.IsElectedAdmin(ctx, c.GetString("userId"))
				if err != nil {
					return struct{}{}, ez.Internal("check admin", err)
				}
				if !admin {
					return struct{}{}, ez.Forbidden("only the author or an elected admin may delete a lead")
				}
			}
			if err := d.Leads.Delete(ctx, l.ID); err != nil {
				return struct{}{}, ez.Internal("delete lead", err)
			}
			return struct{}{}, nil
		},
	})
}
