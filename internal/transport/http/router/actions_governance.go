package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"agora/internal/core/cache"
	"agora/internal/domain"
	"agora/internal/governance"
	"agora/internal/transport/http/ez"
	"agora/internal/transport/http/middleware"
)

// Tallies are hot reads during a vote rush; a short shared TTL keeps the
// store quiet without anyone seeing stale counts for long. Writes invalidate.
const tallyTTL = 3 * time.Second

func suggestionTallyKey(id string) string { return "tally:suggestion:" + id }
func referendumTallyKey(id string) string { return "tally:referendum:" + id }

const referendaListKey = "referenda:list"

type createSuggestionIn struct {
	Title       string `json:"title" binding:"required,min=3,max=191"`
	Description string `json:"description" binding:"max=4000"`
}

type voteReferendumIn struct {
	Choice string `json:"choice" binding:"required,oneof=yes no"`
}

type voteAdminIn struct {
	CandidateID string `json:"candidateId" binding:"required"`
}

func mountGovernanceActions(d Deps, g *gin.RouterGroup) {
	pub := ez.New(g.Group(""))
	priv := ez.New(g.Group("", middleware.AuthJWT(d.JWT)))

	// Suggestions.

	ez.RegisterAction(priv, ez.Action[createSuggestionIn, *domain.Suggestion]{
		Method: http.MethodPost, Path: "/suggestions", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *createSuggestionIn) (*domain.Suggestion, error) {
			s, err := d.Engine.CreateSuggestion(c.Request.Context(), c.GetString("userId"), in.Title, in.Description)
			return s, ez.FromEngine(err)
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, []domain.Suggestion]{
		Method: http.MethodGet, Path: "/suggestions", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Suggestion, error) {
			list, err := d.Engine.ListActiveSuggestions(c.Request.Context())
			return list, ez.FromEngine(err)
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, struct{}]{
		Method: http.MethodDelete, Path: "/suggestions/:id", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (struct{}, error) {
			err := d.Engine.DeleteSuggestion(c.Request.Context(), c.GetString("userId"), c.Param("id"))
			return struct{}{}, ez.FromEngine(err)
		},
	})

	ez.RegisterAction(priv, ez.Action[struct{}, governance.CastResult]{
		Method: http.MethodPost, Path: "/suggestions/:id/vote", Binder: ez.BindNone, Auth: true,
		Handler: func(c *gin.Context, _ *struct{}) (governance.CastResult, error) {
			ctx := c.Request.Context()
			id := c.Param("id")
			res, err := d.Engine.CastVote(ctx, c.GetString("userId"),
				governance.Target{Kind: governance.KindSuggestion, ID: id}, governance.ChoiceSupport)
			if err != nil {
				return governance.CastResult{}, ez.FromEngine(err)
			}
			d.Cache.Invalidate(ctx, suggestionTallyKey(id), referendaListKey)
			// A support vote may be the one that tips the quorum.
			if err := d.Engine.MaybePromote(ctx, id); err != nil {
				return governance.CastResult{}, ez.FromEngine(err)
			}
			return res, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, *governance.TallyResult]{
		Method: http.MethodGet, Path: "/suggestions/:id/tally", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*governance.TallyResult, error) {
			id := c.Param("id")
			t, err := cache.GetOrLoadJSON(d.Cache, c.Request.Context(), suggestionTallyKey(id), tallyTTL,
				func(ctx context.Context) (*governance.TallyResult, error) {
					r, err := d.Engine.Tally(ctx, governance.Target{Kind: governance.KindSuggestion, ID: id})
					if err != nil {
						return nil, err
					}
					return &r, nil
				})
			return t, ez.FromEngine(err)
		},
	})

	// Referenda.

	ez.RegisterAction(pub, ez.Action[struct{}, *[]governance.ReferendumSummary]{
		Method: http.MethodGet, Path: "/referenda", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*[]governance.ReferendumSummary, error) {
			list, err := cache.GetOrLoadJSON(d.Cache, c.Request.Context(), referendaListKey, tallyTTL,
				func(ctx context.Context) (*[]governance.ReferendumSummary, error) {
					rows, err := d.Engine.ListReferenda(ctx)
					if err != nil {
						return nil, err
					}
					return &rows, nil
				})
			return list, ez.FromEngine(err)
		},
	})

	ez.RegisterAction(priv, ez.Action[voteReferendumIn, governance.CastResult]{
		Method: http.MethodPost, Path: "/referenda/:id/vote", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *voteReferendumIn) (governance.CastResult, error) {
			ctx := c.Request.Context()
			id := c.Param("id")
			res, err := d.Engine.CastVote(ctx, c.GetString("userId"),
				governance.Target{Kind: governance.KindReferendum, ID: id}, governance.Choice(in.Choice))
			if err != nil {
				return governance.CastResult{}, ez.FromEngine(err)
			}
			d.Cache.Invalidate(ctx, referendumTallyKey(id), referendaListKey)
			// Every vote may complete the two-thirds majority.
			if err := d.Engine.Resolve(ctx, id); err != nil {
				return governance.CastResult{}, ez.FromEngine(err)
			}
			return res, nil
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, *governance.TallyResult]{
		Method: http.MethodGet, Path: "/referenda/:id/tally", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*governance.TallyResult, error) {
			id := c.Param("id")
			t, err := cache.GetOrLoadJSON(d.Cache, c.Request.Context(), referendumTallyKey(id), tallyTTL,
				func(ctx context.Context) (*governance.TallyResult, error) {
					r, err := d.Engine.Tally(ctx, governance.Target{Kind: governance.KindReferendum, ID: id})
					if err != nil {
						return nil, err
					}
					return &r, nil
				})
			return t, ez.FromEngine(err)
		},
	})

	// Elections.

	ez.RegisterAction(pub, ez.Action[struct{}, []governance.Candidate]{
		Method: http.MethodGet, Path: "/elections/leaderboard", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]governance.Candidate, error) {
			board, err := d.Engine.Leaderboard(c.Request.Context())
			return board, ez.FromEngine(err)
		},
	})

	ez.RegisterAction(pub, ez.Action[struct{}, []governance.Candidate]{
		Method: http.MethodGet, Path: "/elections/leaders", Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]governance.Candidate, error) {
			leaders, err := d.Engine.Leaders(c.Request.Context())
			return leaders, ez.FromEngine(err)
		},
	})

	ez.RegisterAction(priv, ez.Action[voteAdminIn, governance.CastResult]{
		Method: http.MethodPost, Path: "/elections/vote", Binder: ez.BindJSON, Auth: true,
		Handler: func(c *gin.Context, in *voteAdminIn) (governance.CastResult, error) {
			res, err := d.Engine.CastVote(c.Request.Context(), c.GetString("userId"),
				governance.Target{Kind: governance.KindAdmin, ID: in.CandidateID}, "")
			return res, ez.FromEngine(err)
		},
	})
}
