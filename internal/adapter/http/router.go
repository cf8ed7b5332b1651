package http

import (
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/http/middleware"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *OrderHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	v1 := r.Group("/v1")
	{
		v1.POST("/orders", authz.Require("orders.write"), h.CreateOrder)
		v1.GET("/orders", authz.Require("orders.read"), h.SearchOrders)
		v1.GET("/orders/:id", authz.Require("orders.read"), h.GetOrderByID)
		v1.GET("/orders/:id/track", authz.Require("orders.read"), h.TrackOrder)
		v1.GET("/orders/:id/watch", authz.Require("orders.read"), h.WatchOrder)
		v1.PATCH("/orders/:id/status", authz.Require("orders.admin"), h.UpdateStatus)
	}

	return r
}
