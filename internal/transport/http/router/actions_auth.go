package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"agora/internal/domain"
	"agora/internal/transport/http/ez"
	"agora/internal/transport/http/middleware"
	"agora/pkg/utils"
)

type registerIn struct {
	Name     string `json:"name" binding:"required,min=2,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type registerOut struct {
	ID string `json:"id"`
}

type loginIn struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginOut struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type verifyIn struct {
	Token string `form:"token" binding:"required"`
}

type verifyOut struct {
	Verified bool `json:"verified"`
}

func mountAuthActions(d Deps, g *gin.RouterGroup) {
	pub := ez.New(g.Group("/auth"))

	ez.RegisterAction(pub, ez.Action[registerIn, registerOut]{
		Method: http.MethodPost, Path: "/register", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *registerIn) (registerOut, error) {
			ctx := c.Request.Context()
			if existing, err := d.Users.FindByEmail(ctx, in.Email); err != nil {
				return registerOut{}, ez.Internal("lookup email", err)
			} else if existing != nil {
				return registerOut{}, ez.BadRequest("email already registered")
			}

			token, err := d.JWT.IssueEmailToken(in.Email)
			if err != nil {
				return registerOut{}, ez.Internal("issue verify token", err)
			}
			u := &domain.User{
				ID:           utils.NewID(),
				Name:         in.Name,
				Email:        in.Email,
				PasswordHash: utils.HashPassword(in.Password),
				VerifyToken:  token,
			}
			if err := d.Users.Create(ctx, u); err != nil {
				if utils.IsDuplicateKey(err) {
					return registerOut{}, ez.BadRequest("name or email already registered")
				}
				return registerOut{}, ez.Internal("create user", err)
			}

			link := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", d.Cfg.App.BaseURL, token)
			body := fmt.Sprintf("Welcome to the community, %s.\n\nConfirm your email address to activate your account:\n\n%s", u.Name, link)
			if err := d.Mail.Send([]string{u.Email}, "Verify your email", body); err != nil {
				d.Log.Warn("send verification mail", zap.String("user_id", u.ID), zap.Error(err))
			}
			return registerOut{ID: u.ID}, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[verifyIn, verifyOut]{
		Method: http.MethodGet, Path: "/verify-email", Binder: ez.BindQuery,
		Handler: func(c *gin.Context, in *verifyIn) (verifyOut, error) {
			email, err := d.JWT.ParseEmailToken(in.Token)
			if err != nil {
				return verifyOut{}, ez.BadRequest("invalid or expired verification link")
			}
			ctx := c.Request.Context()
			u, err := d.Users.FindByEmail(ctx, email)
			if err != nil {
				return verifyOut{}, ez.Internal("lookup user", err)
			}
			if u == nil {
				return verifyOut{}, ez.NotFound("account not found")
			}
			if !u.EmailVerified {
				if err := d.Users.MarkVerified(ctx, u.ID); err != nil {
					return verifyOut{}, ez.Internal("mark verified", err)
				}
			}
			return verifyOut{Verified: true}, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[loginIn, loginOut]{
		Method: http.MethodPost, Path: "/login", Binder: ez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (loginOut, error) {
			ctx := c.Request.Context()
			u, err := d.Users.FindByEmail(ctx, in.Email)
			if err != nil {
				return loginOut{}, ez.Internal("lookup user", err)
			}
			if u == nil || !utils.CheckPassword(in.Password, u.PasswordHash) {
				return loginOut{}, ez.Unauthorized("wrong email or password")
			}
			if !u.EmailVerified {
				return loginOut{}, ez.Forbidden("email not verified")
			}
			token, err := d.JWT.Issue(u.ID, u.Name)
			if err != nil {
				return loginOut{}, ez.Internal("issue token", err)
			}
			return loginOut{Token: token, User: u}, nil
		},
	})

	priv := ez.New(g.Group("", middleware.AuthJWT(d.JWT)))
	ez.RegisterAction(priv, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet, Path: "/me", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.User, error) {
			u, err := d.Users.FindByID(c.Request.Context(), c.GetString("userId"))
			if err != nil {
				return nil, ez.Internal("lookup user", err)
			}
			if u == nil {
				return nil, ez.NotFound("account not found")
			}
			return u, nil
		},
	})
}
