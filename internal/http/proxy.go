package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gs52g/deskchat/internal/upstream"
)

// chatProxyRequest mirrors the chat completion envelope the browser is
// allowed to send. The API key is attached server-side.
type chatProxyRequest struct {
	Inputs         map[string]interface{} `json:"inputs"`
	Query          string                 `json:"query"`
	Mode           string                 `json:"mode"`
	ConversationID string                 `json:"conversation_id"`
	User           string                 `json:"user"`
	Files          []upstream.FileRef     `json:"files"`
}

type workflowProxyRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

// TBMChat proxies chat completions for the TBM document agent.
func (h *Handlers) TBMChat(c *gin.Context) {
	h.proxyChat(c, "TBM_API_KEY", h.cfg.Upstream.TBMKey)
}

// DesignRiskChat proxies chat completions for the design risk agent.
func (h *Handlers) DesignRiskChat(c *gin.Context) {
	h.proxyChat(c, "DESIGNRISK_API_KEY", h.cfg.Upstream.DesignRiskKey)
}

// EnergyNewsWorkflow proxies workflow runs for the energy news agent.
func (h *Handlers) EnergyNewsWorkflow(c *gin.Context) {
	h.proxyWorkflow(c, "ENERGYNEWS_API_KEY", h.cfg.Upstream.EnergyNewsKey)
}

// TBMWorkflow proxies workflow runs for the TBM document agent. Kept
// for clients still on the workflow-based TBM flow.
func (h *Handlers) TBMWorkflow(c *gin.Context) {
	h.proxyWorkflow(c, "TBM_API_KEY", h.cfg.Upstream.TBMKey)
}

// proxyWorkflow validates and forwards one workflow run request.
func (h *Handlers) proxyWorkflow(c *gin.Context, keyName, apiKey string) {
	if !h.requireKey(c, keyName, apiKey) {
		return
	}

	var req workflowProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		missingQuery(c)
		return
	}
	if req.Mode == "" {
		req.Mode = upstream.ModeBlocking
	}

	payload := upstream.WorkflowRequest{
		Inputs: map[string]interface{}{"query": req.Query},
		Mode:   req.Mode,
		User:   h.miso.UserID(),
	}
	h.forward(c, apiKey, upstream.PathWorkflow, payload)
}

// proxyChat validates and forwards one chat completion request.
func (h *Handlers) proxyChat(c *gin.Context, keyName, apiKey string) {
	if !h.requireKey(c, keyName, apiKey) {
		return
	}

	var req chatProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Query == "" {
		missingQuery(c)
		return
	}
	if req.Inputs == nil {
		req.Inputs = map[string]interface{}{}
	}
	if req.Mode == "" {
		req.Mode = upstream.ModeBlocking
	}
	if req.User == "" {
		req.User = h.miso.UserID()
	}

	h.forward(c, apiKey, upstream.PathChat, upstream.ChatRequest{
		Inputs:         req.Inputs,
		Query:          req.Query,
		Mode:           req.Mode,
		ConversationID: req.ConversationID,
		User:           req.User,
		Files:          req.Files,
	})
}

// forward relays a JSON call upstream and mirrors the reply: 2xx bodies
// pass through untouched, failures map to the localized error envelope
// under the upstream's own status code.
func (h *Handlers) forward(c *gin.Context, apiKey, path string, payload interface{}) {
	resp, err := h.miso.PostJSON(c.Request.Context(), apiKey, path, payload)
	if err != nil {
		h.log.Error("upstream proxy call failed", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "내부 서버 오류",
			"detail": err.Error(),
		})
		return
	}

	if !resp.OK() {
		c.JSON(resp.Status, upstream.NewAPIError(resp.Status, resp.ErrorCode()))
		return
	}
	c.JSON(resp.Status, resp.Body)
}

// requireKey rejects the request when the endpoint's API key is not
// configured. A missing key disables the one endpoint, not the service.
func (h *Handlers) requireKey(c *gin.Context, keyName, apiKey string) bool {
	if apiKey != "" {
		return true
	}
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":  keyName + "가 설정되지 않았습니다.",
		"detail": "환경변수 " + keyName + "를 설정해주세요.",
	})
	return false
}

func missingQuery(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "query 파라미터가 필요합니다.",
		"detail": "query는 필수 입력값입니다.",
	})
}
