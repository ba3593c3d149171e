package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(router *gin.Engine, handler *Handler, gatherer prometheus.Gatherer) {
	api := router.Group("/api")
	{
		api.POST("/properties", handler.CreateProperty)
		api.GET("/properties", handler.GetAllProperties)
		api.GET("/active-properties", handler.GetActiveProperties)
		api.GET("/properties/:id", handler.GetProperty)
		api.PATCH("/properties/:id", handler.UpdateProperty)
		api.POST("/purchases", handler.Purchase)
		api.GET("/settlements", handler.GetAllSettlements)
		api.GET("/settlements/:id", handler.GetSettlement)
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
