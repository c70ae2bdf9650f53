package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"coin-tracker/internal/archiver"
	"coin-tracker/internal/domain"
	"coin-tracker/internal/repository"
	"coin-tracker/internal/service"
	"coin-tracker/internal/session"
	"coin-tracker/internal/storage"
	"coin-tracker/internal/tenant"
	"coin-tracker/web"
)

const snapshotURLExpiry = 15 * time.Minute

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts   service.AccountService
	coins      service.CoinService
	tenants    *tenant.Manager
	sessions   *session.Manager
	cookieName string
	superadmin string
	storage    storage.Service
	archives   archiver.Manager
	bucket     string
	keyPrefix  string
	logger     *logrus.Logger
}

type Config struct {
	Accounts   service.AccountService
	Coins      service.CoinService
	Tenants    *tenant.Manager
	Sessions   *session.Manager
	CookieName string
	Superadmin string
	Storage    storage.Service
	Archives   archiver.Manager
	Bucket     string
	KeyPrefix  string
	Logger     *logrus.Logger
}

func NewHandler(cfg Config) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Handler{
		accounts:   cfg.Accounts,
		coins:      cfg.Coins,
		tenants:    cfg.Tenants,
		sessions:   cfg.Sessions,
		cookieName: cfg.CookieName,
		superadmin: service.NormalizeEmail(cfg.Superadmin),
		storage:    cfg.Storage,
		archives:   cfg.Archives,
		bucket:     cfg.Bucket,
		keyPrefix:  cfg.KeyPrefix,
		logger:     cfg.Logger,
	}
}

// Templates parses the embedded page templates for router.SetHTMLTemplate.
func Templates() (*template.Template, error) {
	return template.ParseFS(web.Templates, "templates/*.html")
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.GET("/login", h.showLogin)
	router.POST("/login", h.login)
	router.POST("/register", h.register)
	router.GET("/logout", h.logout)

	authed := router.Group("/")
	authed.Use(h.requireSession())
	{
		authed.GET("/", h.index)
		authed.GET("/admin", h.adminPage)
		authed.POST("/add", h.addCoin)
		authed.POST("/edit/:id", h.editCoin)
		authed.GET("/delete/:id", h.deleteCoin)
		authed.POST("/update_quantity/:id", h.updateQuantity)
	}

	super := router.Group("/")
	super.Use(h.requireSession(), h.requireSuperadmin())
	{
		super.GET("/superadmin", h.superadminPage)
		super.GET("/download/:filename", h.download)
		super.POST("/superadmin/archive/:filename", h.archive)
	}
}

func (h *Handler) showLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (h *Handler) login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	account, err := h.accounts.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{"Error": "Invalid email or password"})
			return
		}
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	h.establishSession(c, account.ID, account.Email)
}

func (h *Handler) register(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	account, err := h.accounts.Register(c.Request.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			c.HTML(http.StatusBadRequest, "login.html", gin.H{"Error": err.Error()})
		case errors.Is(err, service.ErrDuplicateAccount):
			c.HTML(http.StatusConflict, "login.html", gin.H{"Error": "An account with that email already exists"})
		default:
			h.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}

	h.establishSession(c, account.ID, account.Email)
}

// establishSession creates the server-side session, sets the cookie, and
// sends the caller to their collection.
func (h *Handler) establishSession(c *gin.Context, accountID int64, email string) {
	token, err := h.sessions.Create(c.Request.Context(), accountID, email)
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, token, int(h.sessions.TTL().Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	if token, err := c.Cookie(h.cookieName); err == nil {
		if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
			h.logger.Warnf("destroy session: %v", err)
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", false, true)
	c.Redirect(http.StatusFound, "/login")
}

func (h *Handler) index(c *gin.Context) {
	sess := sessionFrom(c)
	store, err := h.tenants.Resolve(c.Request.Context(), sess.Email)
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	filters := gin.H{
		"Country":  c.Query("country"),
		"Century":  c.Query("century"),
		"Quantity": c.Query("quantity"),
	}

	coins, err := h.coins.List(c.Request.Context(), store, c.Query("country"), c.Query("century"), c.Query("quantity"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.HTML(http.StatusBadRequest, "index.html", gin.H{
				"Email":   sess.Email,
				"Filters": filters,
				"Error":   err.Error(),
			})
			return
		}
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Email":   sess.Email,
		"Filters": filters,
		"Coins":   coins,
	})
}

func (h *Handler) adminPage(c *gin.Context) {
	sess := sessionFrom(c)
	store, err := h.tenants.Resolve(c.Request.Context(), sess.Email)
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	coins, err := h.coins.List(c.Request.Context(), store, "", "", "")
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.HTML(http.StatusOK, "admin.html", gin.H{
		"Email": sess.Email,
		"Coins": coins,
	})
}

func (h *Handler) addCoin(c *gin.Context) {
	sess := sessionFrom(c)
	store, err := h.tenants.Resolve(c.Request.Context(), sess.Email)
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	_, err = h.coins.Add(c.Request.Context(), store,
		c.PostForm("name"), c.PostForm("country"), c.PostForm("century"), c.PostForm("quantity"))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.renderAdminWithError(c, sess.Email, store, err)
			return
		}
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Redirect(http.StatusFound, "/admin")
}

func (h *Handler) editCoin(c *gin.Context) {
	sess := sessionFrom(c)
	id, ok := h.coinID(c)
	if !ok {
		return
	}
	store, err := h.tenants.Resolve(c.Request.Context(), sess.Email)
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	_, err = h.coins.Edit(c.Request.Context(), store, id,
		c.PostForm("name"), c.PostForm("country"), c.PostForm("century"), c.PostForm("quantity"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.renderAdminWithError(c, sess.Email, store, err)
		case errors.Is(err, service.ErrCoinNotFound):
			h.renderError(c, http.StatusNotFound, err)
		default:
			h.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.Redirect(http.StatusFound, "/admin")
}

func (h *Handler) deleteCoin(c *gin.Context) {
	sess := sessionFrom(c)
	id, ok := h.coinID(c)
	if !ok {
		return
	}
	store, err := h.tenants.Resolve(c.Request.Context(), sess.Email)
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	if err := h.coins.Delete(c.Request.Context(), store, id); err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Redirect(http.StatusFound, "/admin")
}

func (h *Handler) updateQuantity(c *gin.Context) {
	sess := sessionFrom(c)
	id, ok := h.coinID(c)
	if !ok {
		return
	}
	store, err := h.tenants.Resolve(c.Request.Context(), sess.Email)
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	if err := h.coins.UpdateQuantity(c.Request.Context(), store, id, c.PostForm("quantity")); err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			h.renderError(c, http.StatusBadRequest, err)
		case errors.Is(err, service.ErrCoinNotFound):
			h.renderError(c, http.StatusNotFound, err)
		default:
			h.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.Redirect(http.StatusFound, "/")
}

type tenantFileView struct {
	Name         string
	ArchiveState string
}

type snapshotView struct {
	Key  string
	Size int64
	URL  string
}

func (h *Handler) superadminPage(c *gin.Context) {
	sess := sessionFrom(c)

	names, err := h.tenants.ListFiles()
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	archiveStates := make(map[string]string)
	if h.archives != nil {
		for _, st := range h.archives.Statuses() {
			archiveStates[st.Filename] = string(st.State)
			if st.Error != "" {
				archiveStates[st.Filename] = string(st.State) + ": " + st.Error
			}
		}
	}

	files := make([]tenantFileView, 0, len(names))
	for _, name := range names {
		files = append(files, tenantFileView{
			Name:         name,
			ArchiveState: archiveStates[name],
		})
	}

	data := gin.H{
		"Email":          sess.Email,
		"Files":          files,
		"StorageEnabled": h.storage != nil,
	}

	if h.storage != nil {
		snapshots, err := h.listSnapshots(c)
		if err != nil {
			h.logger.Warnf("list snapshots: %v", err)
			data["Error"] = "Snapshot listing unavailable"
		} else {
			data["Snapshots"] = snapshots
		}
	}

	c.HTML(http.StatusOK, "superadmin.html", data)
}

func (h *Handler) listSnapshots(c *gin.Context) ([]snapshotView, error) {
	objects, err := h.storage.ListObjects(c.Request.Context(), h.bucket, h.keyPrefix)
	if err != nil {
		return nil, err
	}

	snapshots := make([]snapshotView, 0, len(objects))
	for _, obj := range objects {
		view := snapshotView{Key: obj.Key, Size: obj.Size}
		if url, err := h.storage.GetObjectURL(c.Request.Context(), h.bucket, obj.Key, snapshotURLExpiry); err == nil {
			view.URL = url
		} else {
			h.logger.Warnf("presign %s: %v", obj.Key, err)
		}
		snapshots = append(snapshots, view)
	}
	return snapshots, nil
}

// download streams one tenant store file. The name must match the tenant
// store convention before any path is formed, so traversal never reaches
// the filesystem.
func (h *Handler) download(c *gin.Context) {
	name := c.Param("filename")
	path, err := h.tenants.FilePath(name)
	if err != nil {
		if errors.Is(err, tenant.ErrInvalidFile) {
			h.renderError(c, http.StatusBadRequest, err)
			return
		}
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.FileAttachment(path, name)
}

func (h *Handler) archive(c *gin.Context) {
	if h.storage == nil || h.archives == nil {
		h.renderError(c, http.StatusBadRequest, errors.New("storage service not configured"))
		return
	}

	name := c.Param("filename")
	path, err := h.tenants.FilePath(name)
	if err != nil {
		if errors.Is(err, tenant.ErrInvalidFile) {
			h.renderError(c, http.StatusBadRequest, err)
			return
		}
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}

	if err := h.archives.Enqueue(name, path); err != nil {
		h.renderError(c, http.StatusServiceUnavailable, err)
		return
	}

	c.Redirect(http.StatusFound, "/superadmin")
}

func (h *Handler) coinID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.renderError(c, http.StatusBadRequest, errors.New("invalid coin id"))
		return 0, false
	}
	return id, true
}

// renderAdminWithError re-renders the manage page so the form error shows
// next to the current listing instead of on a bare error page.
func (h *Handler) renderAdminWithError(c *gin.Context, email string, store repository.CoinRepository, cause error) {
	coins, err := store.List(c.Request.Context(), domain.CoinFilter{})
	if err != nil {
		h.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.HTML(http.StatusBadRequest, "admin.html", gin.H{
		"Email": email,
		"Coins": coins,
		"Error": cause.Error(),
	})
}

func (h *Handler) renderError(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.logger.Errorf("request failed: %v", err)
		c.HTML(status, "error.html", gin.H{"Error": "Internal error"})
		return
	}
	c.HTML(status, "error.html", gin.H{"Error": err.Error()})
}
