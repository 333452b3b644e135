package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"markdownServer/backend/internal/bridge"
	"markdownServer/backend/internal/delta"
)

// 纯转换接口：无状态，不落库，两个编辑面都可直接调用
type ConvertHandler struct {
	svc bridge.Service
}

func NewConvertHandler(svc bridge.Service) *ConvertHandler {
	return &ConvertHandler{svc: svc}
}

type convertDeltaReq struct {
	// RawMessage 延迟解码：ops 不是数组时按宽松模式处理而不是报 400
	Ops    json.RawMessage `json:"ops"`
	Strict bool            `json:"strict"`
}

// POST /convert/markdown  Delta -> markdown
func (h *ConvertHandler) DeltaToMarkdown(c *gin.Context) {
	var req convertDeltaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ops := delta.DecodeOps(req.Ops)
	md, err := h.svc.ConvertDelta(ops, req.Strict)
	if err != nil {
		// 严格模式的规范性违规带上是哪条不变量
		var violation *delta.CanonicalViolation
		if errors.As(err, &violation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":     "CANONICAL_VIOLATION",
				"invariant": violation.Invariant,
				"opIndex":   violation.OpIndex,
				"detail":    violation.Detail,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"markdown": md})
}

type convertMarkdownReq struct {
	Markdown string `json:"markdown"`
}

// POST /convert/delta  markdown -> Delta（解析永不失败）
func (h *ConvertHandler) MarkdownToDelta(c *gin.Context) {
	var req convertMarkdownReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ops := h.svc.ConvertMarkdown(req.Markdown)
	c.JSON(http.StatusOK, gin.H{"ops": ops})
}
