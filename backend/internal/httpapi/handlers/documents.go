package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"markdownServer/backend/internal/bridge"
	"markdownServer/backend/internal/cache"
	"markdownServer/backend/internal/delta"
)

type DocumentHandler struct {
	svc         bridge.Service
	projections cache.RenderCache
}

func NewDocumentHandler(svc bridge.Service, projections cache.RenderCache) *DocumentHandler {
	return &DocumentHandler{svc: svc, projections: projections}
}

// 从gin.Context获取用户信息；由鉴权中间件写入
func currentUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	userID, ok := v.(uint64)
	return userID, ok
}

func docIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("docID"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

type createDocReq struct {
	Title string `json:"title" binding:"required"`
}

// POST /documents
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req createDocReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := h.svc.CreateDocument(c.Request.Context(), userID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"docId":    doc.ID,
		"ownerId":  doc.OwnerID,
		"title":    doc.Title,
		"revision": doc.Revision,
	})
}

// GET /documents  当前用户的文档列表
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	docs, err := h.svc.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{"docId": d.ID, "title": d.Title, "revision": d.Revision, "updatedAt": d.UpdatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

// GET /documents/:docID  两种表示一起返回
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	docID, ok := docIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing doc_id"})
		return
	}
	doc, err := h.svc.GetDocument(c.Request.Context(), docID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"docId":    doc.ID,
		"title":    doc.Title,
		"revision": doc.Revision,
		"ops":      json.RawMessage(doc.DeltaJSON),
		"markdown": doc.Markdown,
	})
}

type submitDeltaReq struct {
	Ops json.RawMessage `json:"ops"`
}

// PUT /documents/:docID/delta  富文本面保存
func (h *DocumentHandler) SubmitDelta(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	docID, ok := docIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing doc_id"})
		return
	}
	var req submitDeltaReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ops := delta.DecodeOps(req.Ops)
	md, rev, err := h.svc.SubmitDelta(c.Request.Context(), docID, userID, ops)
	if err != nil {
		if errors.Is(err, bridge.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		// 并发提交输掉了 CAS，客户端拉最新版本重试
		if errors.Is(err, bridge.ErrRevisionConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "REVISION_CONFLICT"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	// rev=0 是"当前版本"的缓存键，保存后必须清掉
	_ = h.projections.Invalidate(c.Request.Context(), docID, 0)
	c.JSON(http.StatusOK, gin.H{"revision": rev, "markdown": md})
}

type submitMarkdownReq struct {
	Markdown string `json:"markdown"`
}

// PUT /documents/:docID/markdown  纯文本面保存
func (h *DocumentHandler) SubmitMarkdown(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	docID, ok := docIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing doc_id"})
		return
	}
	var req submitMarkdownReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ops, rev, err := h.svc.SubmitMarkdown(c.Request.Context(), docID, userID, req.Markdown)
	if err != nil {
		if errors.Is(err, bridge.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		if errors.Is(err, bridge.ErrRevisionConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "REVISION_CONFLICT"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	_ = h.projections.Invalidate(c.Request.Context(), docID, 0)
	c.JSON(http.StatusOK, gin.H{"revision": rev, "ops": ops})
}

// GET /documents/:docID/markdown?rev=N  走缓存的投影读取
// rev 省略或为 0 表示当前版本
func (h *DocumentHandler) GetMarkdownProjection(c *gin.Context) {
	docID, ok := docIDParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing doc_id"})
		return
	}
	var rev uint64
	if s := c.Query("rev"); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rev"})
			return
		}
		rev = v
	}
	md, err := h.projections.GetMarkdown(c.Request.Context(), docID, rev)
	if err != nil {
		if errors.Is(err, cache.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"docId": docID, "markdown": md})
}
