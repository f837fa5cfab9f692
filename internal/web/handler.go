package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"giftcounter/internal/counter"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "counter_session"

// HealthChecker reports whether the gift API is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler serves the counter page and its actions.
type Handler struct {
	sessions *Sessions
	format   counter.TimeFormat
	health   HealthChecker
	secure   bool
}

// NewHandler wires the handler. secure marks the session cookie Secure.
func NewHandler(sessions *Sessions, format counter.TimeFormat, health HealthChecker, secure bool) *Handler {
	return &Handler{sessions: sessions, format: format, health: health, secure: secure}
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Register installs the page template and routes on r.
func (h *Handler) Register(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/healthz", h.healthz)
	r.GET("/", h.page)
	r.POST("/actions", h.action)
	r.GET("/api/view", h.view)
	return nil
}

type pageData struct {
	Identifier string
	Notice     string
	Panel      counter.Panel
}

type viewResponse struct {
	Identifier string        `json:"identifier"`
	Notice     string        `json:"notice,omitempty"`
	Panel      counter.Panel `json:"panel"`
}

func (h *Handler) page(c *gin.Context) {
	v := h.current(c)
	c.HTML(http.StatusOK, "counter.html", pageData{
		Identifier: v.Identifier,
		Notice:     v.Notice,
		Panel:      counter.Render(v.Display, h.format),
	})
}

func (h *Handler) view(c *gin.Context) {
	v := h.current(c)
	c.JSON(http.StatusOK, viewResponse{
		Identifier: v.Identifier,
		Notice:     v.Notice,
		Panel:      counter.Render(v.Display, h.format),
	})
}

// action stores the submitted identifier, runs the chosen action to
// completion and redirects back to the page.
func (h *Handler) action(c *gin.Context) {
	act := c.PostForm("action")
	if act != "lookup" && act != "redeem" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be lookup or redeem"})
		return
	}

	ctrl := h.controller(c)
	ctrl.SetIdentifier(c.PostForm("identifier"))

	// The browser going away must not abort a redemption halfway.
	ctx := context.WithoutCancel(c.Request.Context())
	if act == "lookup" {
		ctrl.Lookup(ctx)
	} else {
		ctrl.Redeem(ctx)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) healthz(c *gin.Context) {
	if err := h.health.Health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "gift_api": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "gift_api": true})
}

// current reads the form state of the caller's session. A browser without a
// live session sees an empty form and is not given one until it acts.
func (h *Handler) current(c *gin.Context) counter.View {
	id, _ := c.Cookie(sessionCookie)
	if ctrl := h.sessions.Peek(id); ctrl != nil {
		return ctrl.View()
	}
	return counter.View{Display: counter.Empty{}}
}

func (h *Handler) controller(c *gin.Context) *counter.Controller {
	current, _ := c.Cookie(sessionCookie)
	id, ctrl := h.sessions.Acquire(current)
	if id != current {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, id, 0, "/", "", h.secure, true)
	}
	return ctrl
}
