package handler

import (
	"net/http"

	"questboard/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🤖")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		authentication, err := do.Invoke[*services.Authentication](cfg.Container)
		if err != nil {
			return nil, err
		}
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})

		routesAPIv1.Use(cors)
		routesAPIv1.Use(Authn(authentication)) // Authn will NOT terminate unauthenticated request.
		routesAPIv1.GET("", Hello)

		v := groupVerify{cfg.Container}
		routesAPIv1.POST("/verify", v.Verify)

		q := groupQuest{cfg.Container}
		routesAPIv1.POST("/projects", q.CreateProject)
		routesAPIv1.GET("/projects/:project/quests", q.ListProjectQuests)
		routesAPIv1.POST("/projects/:project/quests", q.CreateQuest)
		routesAPIv1.GET("/quests/:quest", q.Show)
		routesAPIv1.POST("/quests/:quest/tasks", q.AddTask)
		routesAPIv1.GET("/quests/:quest/completion", q.Completion)
		routesAPIv1.GET("/quests/:quest/submissions/me", q.MySubmissions)

		routesAPIv1User := routesAPIv1.Group("/user")
		{
			u := groupUser{cfg.Container}
			routesAPIv1User.GET("/me", u.Me)
			routesAPIv1User.GET("/me/xp", u.XP)
			routesAPIv1User.POST("/connect/telegram", u.ConnectTelegram)
		}

		routesAPIv1Admin := routesAPIv1.Group("/admin")
		{
			a := groupAdmin{cfg.Container}
			routesAPIv1Admin.POST("/submissions/:id/remove-xp", a.RemoveXP)
			routesAPIv1Admin.GET("/quests/:quest/submissions", a.QuestSubmissions)
		}
	}

	return r, nil
}

func Hello(c echo.Context) error {
	return httpx.RestAbort(c, "hello world", nil)
}
