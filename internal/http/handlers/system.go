package handlers

import (
	"net/http"
	"sync"

	intconfig "estatehub/internal/config"
	"estatehub/internal/db"

	"github.com/gin-gonic/gin"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// RequiredTables are checked by /api/db-check.
var RequiredTables = db.Tables()

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "estatehub api is running"})
}

func DBCheck(c *gin.Context) {
	if err := intconfig.PingDB(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, "db_unavailable", "database is not reachable", nil)
		return
	}
	missing := db.MissingTables(c.Request.Context(), intconfig.DB, RequiredTables...)
	if len(missing) > 0 {
		respondError(c, http.StatusServiceUnavailable, "schema_incomplete", "database is missing tables", gin.H{"missing": missing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database OK", "tables": RequiredTables})
}

func Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		respondError(c, http.StatusServiceUnavailable, "router_not_ready", "router not ready", nil)
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
