package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/httputil"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/MrEthical07/goStepUp/identity"
	"github.com/MrEthical07/goStepUp/metrics/export/prometheus"
	"github.com/MrEthical07/goStepUp/middleware"
	"github.com/MrEthical07/goStepUp/storage/sqlstore"
)

// app holds the dependencies shared by the HTTP handlers.
type app struct {
	engine     *goStepUp.Engine
	store      *sqlstore.Store
	identity   *identity.Manager
	sends      *ipLimiter
	logins     *ipLimiter
	exporter   *prometheus.PrometheusExporter
	upstream   *httputil.ReverseProxy
	loginURL   string
	adminToken string
	log        logrus.FieldLogger
}

// newRouter registers the verification endpoints and, for every other
// path, guards the request and hands it to the upstream.
func newRouter(a *app, debug bool) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if debug {
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), a.requestLog(), fromHTTP(middleware.Identify(a.identity)))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(a.exporter.Handler()))

	r.POST("/login", a.login)
	r.POST("/logout", a.logout)

	tfa := r.Group("/tfa")
	{
		tfa.GET("/rules", a.frontendRules)
		tfa.GET("/prompt/:rule", a.prompt)
		tfa.POST("/confirm/:rule", a.confirm)

		tfa.POST("/send", a.sendCode)
		tfa.POST("/confirm-number", a.confirmNumber)
		tfa.POST("/sms/activate", a.activateSMS)
		tfa.POST("/sms/deactivate", a.deactivateSMS)

		tfa.POST("/totp/provision", a.provisionTOTP)
		tfa.POST("/totp/activate", a.activateTOTP)
		tfa.POST("/totp/deactivate", a.deactivateTOTP)

		tfa.GET("/handlers", a.userHandlers)
		tfa.GET("/handlers/:id/popup", a.handlerPopup)
		tfa.POST("/handlers/:id/activate", a.activateHandler)
		tfa.POST("/handlers/:id/deactivate", a.deactivateHandler)
		tfa.POST("/rules/:rule/preference", a.setRulePreference)

		tfa.POST("/login/prompt", a.loginPrompt)
		tfa.POST("/login/confirm", a.loginConfirm)
		tfa.GET("/login/method", a.loginMethod)
		tfa.POST("/login/method", a.setLoginMethod)
	}

	admin := r.Group("/admin", a.requireAdmin)
	{
		admin.POST("/rules/status", a.setRuleStatus)
		admin.POST("/users/:id/number", a.assignNumber)
		admin.POST("/users/:id/bypass", a.setBypass)
	}

	r.NoRoute(fromHTTP(middleware.Guard(a.engine, middleware.GuardOptions{
		LoginURL: a.loginURL,
		Log:      a.log,
	})), a.forward)

	return r
}

// fromHTTP runs a net/http middleware inside gin. The chain stops unless the
// middleware calls its next handler.
func fromHTTP(mw func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		mw(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *app) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		a.log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
			"ip":     c.ClientIP(),
		}).Debug("request")
	}
}

func (a *app) requireAdmin(c *gin.Context) {
	token := c.GetHeader("X-Admin-Token")
	if a.adminToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) != 1 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	c.Next()
}

func (a *app) forward(c *gin.Context) {
	if a.upstream == nil {
		c.String(http.StatusNotFound, "not found")
		return
	}
	a.upstream.ServeHTTP(c.Writer, c.Request)
}
