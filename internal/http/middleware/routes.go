package middleware

import (
	"path"
	"strings"

	"github.com/pribylovaa/go-travel-planner/internal/config"
)

// RouteClass — класс пути для Request Gate.
type RouteClass int

const (
	// ClassProtected — всё, что не попало в другие классы.
	ClassProtected RouteClass = iota
	// ClassAsset — статика фреймворка и любые пути с расширением файла.
	ClassAsset
	// ClassPublic — доступно всем, резолвер не вызывается.
	ClassPublic
	// ClassAuthOnly — страницы входа/регистрации, имеют смысл только без сессии.
	ClassAuthOnly
)

func (c RouteClass) String() string {
	switch c {
	case ClassAsset:
		return "asset"
	case ClassPublic:
		return "public"
	case ClassAuthOnly:
		return "auth_only"
	default:
		return "protected"
	}
}

// Routes — таблица классификации путей.
type Routes struct {
	Public        []string
	AuthOnly      []string
	AssetPrefixes []string
	APIPrefix     string
	LoginPath     string
	LandingPath   string
}

// RoutesFrom собирает Routes из конфигурации.
func RoutesFrom(cfg config.RoutesConfig) Routes {
	return Routes{
		Public:        cfg.Public,
		AuthOnly:      cfg.AuthOnly,
		AssetPrefixes: cfg.AssetPrefixes,
		APIPrefix:     cfg.APIPrefix,
		LoginPath:     cfg.LoginPath,
		LandingPath:   cfg.LandingPath,
	}
}

// Classify относит путь ровно к одному классу. Порядок проверки:
// статика → public → auth-only → protected.
func (rt Routes) Classify(p string) RouteClass {
	if p == "" {
		p = "/"
	}

	if rt.isAsset(p) {
		return ClassAsset
	}

	if matchAny(p, rt.Public) {
		return ClassPublic
	}

	if matchAny(p, rt.AuthOnly) {
		return ClassAuthOnly
	}

	return ClassProtected
}

// IsAPI сообщает, что путь относится к JSON API (ответ 401 вместо редиректа).
func (rt Routes) IsAPI(p string) bool {
	return rt.APIPrefix != "" && matchPrefix(p, rt.APIPrefix)
}

func (rt Routes) isAsset(p string) bool {
	for _, prefix := range rt.AssetPrefixes {
		if matchPrefix(p, prefix) {
			return true
		}
	}

	if rt.IsAPI(p) {
		return false
	}

	return path.Ext(p) != ""
}

func matchAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchPrefix(p, pattern) {
			return true
		}
	}

	return false
}

// matchPrefix — точное совпадение или префикс по границе "/":
// "/explore" совпадает с "/explore" и "/explore/x", но не с "/exploreXYZ".
// Шаблон "/" совпадает только с корнем.
func matchPrefix(p, pattern string) bool {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return false
	}

	if pattern == "/" {
		return p == "/"
	}

	pattern = strings.TrimSuffix(pattern, "/")

	return p == pattern || strings.HasPrefix(p, pattern+"/")
}
