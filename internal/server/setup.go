package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ftpgate/config"
)

// SetupHandlers handles the setup and settings endpoints
type SetupHandlers struct {
	cfg *config.Config
}

// NewSetupHandlers creates setup handlers
func NewSetupHandlers(cfg *config.Config) *SetupHandlers {
	return &SetupHandlers{cfg: cfg}
}

// SetupPage serves the initial setup HTML page (no auth required)
func (h *SetupHandlers) SetupPage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, setupPageHTML)
}

// GetSettings returns current settings (requires auth)
func (h *SetupHandlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"port":            h.cfg.Port,
		"host":            h.cfg.Host,
		"allowed_origins": h.cfg.AllowedOrigins,
		"rate_limit_rps":  h.cfg.RateLimitRPS,
		"max_transfer":    h.cfg.MaxTransferBytes,
		"log_level":       h.cfg.LogLevel,
		"env_file":        h.cfg.EnvFile,
		"setup_mode":      h.cfg.SetupMode,
		// Don't expose the actual API key, just indicate if it's set
		"api_key_configured": h.cfg.APIKey != "",
	})
}

// GenerateKey generates a new API key
func (h *SetupHandlers) GenerateKey(c *gin.Context) {
	apiKey, err := config.GenerateAPIKey()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate API key: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"api_key": apiKey,
	})
}

// SaveKey saves the API key to the .env file
func (h *SetupHandlers) SaveKey(c *gin.Context) {
	var req struct {
		APIKey string `json:"api_key" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: api_key is required",
		})
		return
	}

	// Validate API key length
	if len(req.APIKey) < 32 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "API key must be at least 32 characters",
		})
		return
	}

	// Save the API key
	if err := h.cfg.SaveAPIKey(req.APIKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save API key: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "API key saved successfully",
		"api_key":  req.APIKey,
		"env_file": h.cfg.EnvFile,
		"note":     "Restart the gateway to apply the new API key for authentication",
	})
}

const setupPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>FTP Gateway Setup</title>
    <style>
        body { font-family: -apple-system, system-ui, sans-serif; max-width: 640px; margin: 40px auto; padding: 0 16px; color: #222; }
        h1 { font-size: 1.4em; }
        button { padding: 8px 16px; border: 0; border-radius: 6px; background: #2563eb; color: #fff; cursor: pointer; }
        button:hover { background: #1d4ed8; }
        input { width: 100%; padding: 8px; margin: 8px 0; box-sizing: border-box; font-family: monospace; }
        .note { color: #666; font-size: 0.9em; }
        .ok { color: #16a34a; }
        .err { color: #dc2626; }
    </style>
</head>
<body>
    <h1>FTP Gateway Setup</h1>
    <p>No API key is configured yet. Generate one and save it to finish setup.</p>
    <button onclick="generateKey()">Generate API key</button>
    <input id="apikey" placeholder="API key" />
    <button onclick="saveKey()">Save</button>
    <p id="status" class="note"></p>
    <p class="note">After saving, restart the gateway to enable authentication.</p>
    <script>
        async function generateKey() {
            const res = await fetch('/setup/generate', { method: 'POST' });
            const data = await res.json();
            document.getElementById('apikey').value = data.api_key || '';
        }
        async function saveKey() {
            const key = document.getElementById('apikey').value.trim();
            const status = document.getElementById('status');
            const res = await fetch('/setup/save', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ api_key: key })
            });
            const data = await res.json();
            if (res.ok) {
                status.textContent = data.message + ' (' + data.env_file + ')';
                status.className = 'ok';
            } else {
                status.textContent = data.error;
                status.className = 'err';
            }
        }
    </script>
</body>
</html>
`
