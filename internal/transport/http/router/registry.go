package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule mounts user routes. public needs no token; private sits behind
// AuthJWT and ActiveUser.
type APIModule interface {
	MountAPI(public, private *gin.RouterGroup)
}

// AdminModule mounts routes under /admin/v1, behind the admin role check.
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// Modules mount in ascending Priority; the default is 100.
type prioritizer interface{ Priority() int }

// Registry collects modules for one process. Each engine owns its own, so
// tests can mount a subset without touching globals.
type Registry struct {
	apiMods   []APIModule
	adminMods []AdminModule
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	for _, m := range mods {
		r.Register(m)
	}
	return r
}

// Register dispatches mod to the API and/or admin list by the interfaces it
// implements.
func (r *Registry) Register(mod any) {
	if m, ok := mod.(APIModule); ok {
		r.apiMods = append(r.apiMods, m)
	}
	if m, ok := mod.(AdminModule); ok {
		r.adminMods = append(r.adminMods, m)
	}
}

func (r *Registry) MountAllAPI(public, private *gin.RouterGroup) {
	mods := append([]APIModule(nil), r.apiMods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAPI(public, private)
	}
}

func (r *Registry) MountAllAdmin(admin *gin.RouterGroup) {
	mods := append([]AdminModule(nil), r.adminMods...)
	sort.SliceStable(mods, func(i, j int) bool {
		return priorityOf(mods[i]) < priorityOf(mods[j])
	})
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
