package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/adapter/http/middleware"
	"github.com/saurabhkailasmahajan2003/StyleTrending-App-sub001/internal/logging"
)

func NewRouter(oh *OrderHandler, ph *PaymentHandler, ident *middleware.Identity) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Metrics())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		// Gateway webhook: authenticated by its HMAC tag, not by a user token.
		v1.POST("/payments/callback", ph.Callback)

		authed := v1.Group("", ident.Require())
		authed.POST("/orders", oh.Checkout)
		authed.GET("/orders", oh.ListOrders)
		authed.GET("/orders/:id", oh.GetOrder)
		authed.POST("/orders/:id/payment-intent", ph.IssueIntent)
	}

	return r
}
