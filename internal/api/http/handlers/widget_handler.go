package handlers

import (
	"fmt"
	"html"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// teamsPlaceholders are unresolved Teams URL template values; they are
// treated as absent rather than rendered into the page.
var teamsPlaceholders = map[string]bool{
	"{loginHint}":         true,
	"{userPrincipalName}": true,
	"{upn}":               true,
}

// WidgetHandler serves the embeddable widget assets and the embed page.
type WidgetHandler struct {
	distDir string
	apiURL  string
	logger  *zap.Logger
}

// NewWidgetHandler constructs handler. distDir holds the built widget
// bundle; apiURL is the public API base rendered into the embed page.
func NewWidgetHandler(distDir, apiURL string, logger *zap.Logger) *WidgetHandler {
	return &WidgetHandler{distDir: distDir, apiURL: apiURL, logger: logger}
}

// Script GET /api/support/widget.js.
func (h *WidgetHandler) Script(c *fiber.Ctx) error {
	path := filepath.Join(h.distDir, "acidni-support-widget.js")
	if _, err := os.Stat(path); err != nil {
		h.logger.Error("widget JS not found", zap.String("path", path))
		c.Set(fiber.HeaderContentType, "application/javascript")
		return c.Status(fiber.StatusNotFound).
			SendString("// Widget not built yet. Run: cd widget && npm run build")
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderContentType, "application/javascript")
	return c.SendFile(path)
}

// Stylesheet GET /api/support/widget.css.
func (h *WidgetHandler) Stylesheet(c *fiber.Ctx) error {
	path := filepath.Join(h.distDir, "acidni-support-widget.css")
	if _, err := os.Stat(path); err != nil {
		c.Set(fiber.HeaderContentType, "text/css")
		return c.Status(fiber.StatusNotFound).SendString("/* Widget CSS not built yet */")
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderContentType, "text/css")
	return c.SendFile(path)
}

// Embed GET /api/support/widget/embed. Returns a minimal page hosting the
// widget element, used as an iframe target in Teams static tabs. Identity
// query params pre-populate the form; the Teams JS SDK fallback resolves
// them at runtime when the URL placeholders were not substituted.
func (h *WidgetHandler) Embed(c *fiber.Ctx) error {
	appID := c.Query("app_id", "acidni-support-embed")
	userEmail := c.Query("user_email")
	userName := c.Query("user_name")

	if teamsPlaceholders[userEmail] {
		userEmail = ""
	}
	if teamsPlaceholders[userName] {
		userName = ""
	}

	extraAttrs := ""
	if userEmail != "" {
		extraAttrs += ` user-email="` + html.EscapeString(userEmail) + `"`
	}
	if userName != "" {
		extraAttrs += ` user-name="` + html.EscapeString(userName) + `"`
	}

	page := fmt.Sprintf(embedTemplate, html.EscapeString(appID), h.apiURL, extraAttrs)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.SendString(page)
}

const embedTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Acidni Support</title>
    <style>
        body { margin: 0; padding: 0; font-family: system-ui, -apple-system, sans-serif; background: transparent; }
    </style>
</head>
<body>
    <acidni-support id="support-widget" app-id="%s" api-url="%s" position="inline"%s></acidni-support>
    <script src="/api/support/widget.js"></script>
    <script src="https://res.cdn.office.net/teams-js/2.31.1/js/MicrosoftTeams.min.js"></script>
    <script>
    (async function() {
        var widget = document.getElementById('support-widget');
        if (widget && widget.getAttribute('user-email')) return;

        try {
            if (typeof microsoftTeams !== 'undefined') {
                await microsoftTeams.app.initialize();
                var ctx = await microsoftTeams.app.getContext();
                var email = (ctx.user && ctx.user.loginHint) ||
                            (ctx.user && ctx.user.userPrincipalName) || '';
                var name = (ctx.user && ctx.user.displayName) || '';
                if (widget && email) {
                    widget.setAttribute('user-email', email);
                }
                if (widget && name && !widget.getAttribute('user-name')) {
                    widget.setAttribute('user-name', name);
                }
            }
        } catch (e) {
            console.warn('[acidni-support] Teams SDK context unavailable:', e);
        }
    })();
    </script>
</body>
</html>`
