package http

import "github.com/gin-gonic/gin"

// Register wires all HTTP routes onto the router.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/sessions", h.CreateSession)
		api.DELETE("/sessions/:id", h.DeleteSession)
		api.GET("/sessions/:id/channels", h.ListChannels)
		api.GET("/sessions/:id/channels/:key/messages", h.ChannelMessages)
		api.POST("/sessions/:id/channels/:key/messages", h.SubmitMessage)
		api.POST("/sessions/:id/channels/:key/reset", h.ResetChannel)

		api.POST("/tbm/chat", h.TBMChat)
		api.POST("/tbm/workflow", h.TBMWorkflow)
		api.POST("/designrisk/chat", h.DesignRiskChat)
		api.POST("/energynews/workflow", h.EnergyNewsWorkflow)
		api.POST("/miso/upload", h.Upload)
		api.GET("/sample-images", h.SampleImages)
	}
}
