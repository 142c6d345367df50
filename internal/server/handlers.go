package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ftpgate/config"
	"ftpgate/internal/cache"
	"ftpgate/internal/content"
	"ftpgate/internal/ftpx"
	"ftpgate/internal/listing"
	"ftpgate/internal/remotepath"
	"ftpgate/internal/session"
	"ftpgate/internal/system"
)

// FtpTokenHeader carries the base64 JSON connection token that selects
// the FTP account for one request.
const FtpTokenHeader = "X-Ftp-Token"

// Handlers holds all HTTP handlers
type Handlers struct {
	cfg   *config.Config
	cache *cache.Cache
}

// NewHandlers creates a new handlers instance
func NewHandlers(cfg *config.Config) *Handlers {
	return &Handlers{
		cfg:   cfg,
		cache: cache.New(cache.InfoTTL),
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// GetInfo handles GET /api/info
func (h *Handlers) GetInfo(c *gin.Context) {
	info, err := h.cache.GetOrSet(cache.KeyHostInfo, func() (interface{}, error) {
		return system.GetHostInfo()
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	hostInfo := info.(*system.HostInfo)
	c.JSON(http.StatusOK, gin.H{
		"hostname": hostInfo.Hostname,
		"os":       hostInfo.OS,
		"platform": hostInfo.Platform,
		"kernel":   hostInfo.KernelVersion,
		"arch":     hostInfo.KernelArch,
		"uptime":   hostInfo.UptimeHuman,
		"agent":    "ftpgate",
		"version":  "1.0.0",
	})
}

// credentials decodes the per-request FTP connection token.
func (h *Handlers) credentials(c *gin.Context) (session.Credentials, bool) {
	token := c.GetHeader(FtpTokenHeader)
	if token == "" {
		token = c.Query("ftp_token")
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + FtpTokenHeader + " header"})
		return session.Credentials{}, false
	}

	creds, err := session.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return session.Credentials{}, false
	}
	return creds, true
}

// dial opens the per-request FTP session. The caller must Quit it.
func (h *Handlers) dial(c *gin.Context, creds session.Credentials) (*ftpx.Client, bool) {
	client, err := ftpx.Dial(c.Request.Context(), creds)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return nil, false
	}
	return client, true
}

// remotePath canonicalizes the path query parameter, falling back to
// the token's default directory.
func remotePath(c *gin.Context, creds session.Credentials) string {
	return remotepath.Normalize(c.Query("path"), creds.Dir)
}

// ListDirectory handles GET /api/ftp/list
func (h *Handlers) ListDirectory(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}
	path := remotePath(c, creds)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	raw, err := client.RawList(path)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	entries := listing.Parse(raw)
	c.JSON(http.StatusOK, gin.H{
		"path":    path,
		"entries": entries,
		"total":   len(entries),
	})
}

// GetFile handles GET /api/ftp/file
func (h *Handlers) GetFile(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}
	path := remotePath(c, creds)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	// SIZE is a cheap pre-check; servers that don't support it are
	// still caught by the capped download.
	if size, err := client.Size(path); err == nil && size > h.cfg.MaxTransferBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file exceeds the configured transfer limit",
			"size":  size,
		})
		return
	}

	data, err := client.Retrieve(path, h.cfg.MaxTransferBytes)
	if errors.Is(err, ftpx.ErrTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "file exceeds the configured transfer limit",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	res := content.Classify(data)
	body := res.Text
	if !res.IsText {
		body = base64.StdEncoding.EncodeToString(data)
	}

	c.JSON(http.StatusOK, gin.H{
		"path":       path,
		"size":       len(data),
		"mime_type":  content.ResolveMimeType(path, res.IsText),
		"is_text":    res.IsText,
		"encoding":   res.Encoding,
		"confidence": res.Confidence,
		"content":    body,
	})
}

// WriteFileRequest is the body of PUT /api/ftp/file.
type WriteFileRequest struct {
	Path     string `json:"path" binding:"required"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// WriteFile handles PUT /api/ftp/file
func (h *Handlers) WriteFile(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}

	var req WriteFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: path is required"})
		return
	}
	path := remotepath.Normalize(req.Path, creds.Dir)

	data, err := content.EncodeText(req.Content, req.Encoding)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if int64(len(data)) > h.cfg.MaxTransferBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "content exceeds the configured transfer limit"})
		return
	}

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	if err := client.Store(path, data); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"path":    path,
		"written": len(data),
	})
}

// UploadFileRequest is the body of POST /api/ftp/upload.
type UploadFileRequest struct {
	Path          string `json:"path" binding:"required"`
	ContentBase64 string `json:"content_base64" binding:"required"`
}

// UploadFile handles POST /api/ftp/upload
func (h *Handlers) UploadFile(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}

	var req UploadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: path and content_base64 are required"})
		return
	}
	path := remotepath.Normalize(req.Path, creds.Dir)

	data, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content_base64 is not valid base64"})
		return
	}
	if int64(len(data)) > h.cfg.MaxTransferBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "content exceeds the configured transfer limit"})
		return
	}

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	if err := client.Store(path, data); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"path":    path,
		"written": len(data),
	})
}

// DeleteFile handles DELETE /api/ftp/file
func (h *Handlers) DeleteFile(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}
	path := remotePath(c, creds)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	if err := client.Delete(path); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "deleted": true})
}

// RenameRequest is the body of POST /api/ftp/rename.
type RenameRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// Rename handles POST /api/ftp/rename
func (h *Handlers) Rename(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: from and to are required"})
		return
	}
	from := remotepath.Normalize(req.From, creds.Dir)
	to := remotepath.Normalize(req.To, creds.Dir)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	if err := client.Rename(from, to); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"from": from, "to": to})
}

// MakeDirRequest is the body of POST /api/ftp/dir.
type MakeDirRequest struct {
	Path string `json:"path" binding:"required"`
}

// MakeDirectory handles POST /api/ftp/dir
func (h *Handlers) MakeDirectory(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}

	var req MakeDirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: path is required"})
		return
	}
	path := remotepath.Normalize(req.Path, creds.Dir)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	if err := client.MakeDir(path); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "created": true})
}

// RemoveDirectory handles DELETE /api/ftp/dir
func (h *Handlers) RemoveDirectory(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}
	path := remotePath(c, creds)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	if err := client.RemoveDir(path); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "removed": true})
}

// GetFileSize handles GET /api/ftp/size
func (h *Handlers) GetFileSize(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}
	path := remotePath(c, creds)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	size, err := client.Size(path)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "size": size})
}

// GetModifiedTime handles GET /api/ftp/modtime
func (h *Handlers) GetModifiedTime(c *gin.Context) {
	creds, ok := h.credentials(c)
	if !ok {
		return
	}
	path := remotePath(c, creds)

	client, ok := h.dial(c, creds)
	if !ok {
		return
	}
	defer client.Quit()

	modTime, err := client.ModTime(path)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"path": path, "modified": modTime.UTC()})
}
