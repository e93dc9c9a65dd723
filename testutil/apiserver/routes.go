package apiserver

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/hyperkit/logger"
)

// headerSchemas points clients at the schema collection.
const headerSchemas = "X-API-Schemas"

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.recordRequests())

	r.POST("/v3-public/localproviders/local", s.login)

	api := r.Group("/v3", s.schemaHeader(), s.authenticate())
	api.GET("", s.root)
	api.GET("/:collection", s.listCollection)
	api.POST("/:collection", s.create)
	api.GET("/:collection/:id", s.get)
	api.PUT("/:collection/:id", s.update)
	api.DELETE("/:collection/:id", s.remove)
	api.POST("/:collection/:id", s.action)
	api.GET("/:collection/:id/:link", s.follow)
	return r
}

func (s *Server) recordRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.Query(),
		})
		s.mu.Unlock()

		status := c.Writer.Status()
		fields := logger.Fields(
			logger.FieldMethod, c.Request.Method,
			logger.FieldURL, c.Request.URL.String(),
			logger.FieldStatus, status,
		)
		if status >= 400 {
			s.log.Warn("request completed", fields)
		} else {
			s.log.Debug("request completed", fields)
		}
	}
}

func (s *Server) schemaHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(headerSchemas, baseURL(c)+"/schemas")
		c.Next()
	}
}

// baseURL is http://<host>/v3 as seen by the client.
func baseURL(c *gin.Context) string {
	return "http://" + c.Request.Host + "/v3"
}

func apiError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"type":    "error",
		"status":  status,
		"code":    code,
		"message": message,
	})
}

// injected answers with a scripted failure when one is pending for the
// request method.
func (s *Server) injected(c *gin.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.failures {
		if f.method != c.Request.Method {
			continue
		}
		f.left--
		if f.left <= 0 {
			s.failures = append(s.failures[:i:i], s.failures[i+1:]...)
		}
		code := http.StatusText(f.status)
		if f.status == http.StatusConflict {
			code = "Conflict"
		}
		apiError(c, f.status, strings.ReplaceAll(code, " ", ""), "scripted failure")
		return true
	}
	return false
}

// typeFor resolves the collection segment, answering 404 when unknown.
func (s *Server) typeFor(c *gin.Context) (TypeDef, bool) {
	t, ok := s.byColl[c.Param("collection")]
	if !ok {
		apiError(c, http.StatusNotFound, "NotFound", "unknown collection "+c.Param("collection"))
	}
	return t, ok
}

func (s *Server) root(c *gin.Context) {
	base := baseURL(c)
	links := map[string]any{
		"self":    base,
		"schemas": base + "/schemas",
	}
	for _, t := range s.cfg.Types {
		links[t.Collection()] = base + "/" + t.Collection()
	}
	c.JSON(http.StatusOK, gin.H{"id": "v3", "type": "apiRoot", "links": links})
}

func (s *Server) schemaNode(base string, t TypeDef) map[string]any {
	filters := map[string]any{}
	for name, mods := range t.Filters {
		if mods == nil {
			mods = []string{}
		}
		filters[name] = map[string]any{"modifiers": mods}
	}
	actions := map[string]any{}
	for _, a := range t.Actions {
		actions[a] = map[string]any{}
	}
	return map[string]any{
		"id":   t.ID,
		"type": "schema",
		"links": map[string]any{
			"self":       base + "/schemas/" + t.ID,
			"collection": base + "/" + t.Collection(),
		},
		"pluralName":        t.Collection(),
		"collectionMethods": nonNil(t.CollectionMethods),
		"resourceMethods":   nonNil(t.ResourceMethods),
		"collectionFilters": filters,
		"resourceActions":   actions,
	}
}

func (s *Server) schemas(c *gin.Context) {
	base := baseURL(c)
	data := make([]any, 0, len(s.cfg.Types))
	for _, t := range s.cfg.Types {
		data = append(data, s.schemaNode(base, t))
	}
	c.JSON(http.StatusOK, gin.H{
		"type":         "collection",
		"resourceType": "schema",
		"links":        gin.H{"self": base + "/schemas"},
		"data":         data,
	})
}

func (s *Server) listCollection(c *gin.Context) {
	if c.Param("collection") == "schemas" {
		s.schemas(c)
		return
	}
	t, ok := s.typeFor(c)
	if !ok || s.injected(c) {
		return
	}
	if !slices.Contains(t.CollectionMethods, http.MethodGet) {
		apiError(c, http.StatusMethodNotAllowed, "MethodNotAllowed", "list is not allowed on "+t.ID)
		return
	}
	s.respondList(c, t, nil)
}

// follow serves <resource>/<link> as the linked type's collection
// filtered by <parentType>Id.
func (s *Server) follow(c *gin.Context) {
	parent, ok := s.typeFor(c)
	if !ok || s.injected(c) {
		return
	}
	target, ok := s.types[parent.Links[c.Param("link")]]
	if !ok {
		apiError(c, http.StatusNotFound, "NotFound", "unknown link "+c.Param("link"))
		return
	}
	s.mu.Lock()
	_, exists := s.store.get(parent.ID, c.Param("id"))
	s.mu.Unlock()
	if !exists {
		apiError(c, http.StatusNotFound, "NotFound", parent.ID+" "+c.Param("id")+" not found")
		return
	}
	s.respondList(c, target, map[string]string{parent.ID + "Id": c.Param("id")})
}

func (s *Server) respondList(c *gin.Context, t TypeDef, scope map[string]string) {
	base := baseURL(c)
	query := c.Request.URL.Query()

	s.mu.Lock()
	var items []map[string]any
	for _, rec := range s.store.list(t.ID) {
		if matchesScope(rec.Fields, scope) && matchesFilters(t, rec.Fields, query) {
			items = append(items, s.render(base, t, rec))
		}
	}
	s.mu.Unlock()

	total := len(items)
	pagination := map[string]any{"total": total}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil && limit > 0 {
		marker, _ := strconv.Atoi(query.Get("marker"))
		marker = min(max(marker, 0), total)
		end := min(marker+limit, total)
		pagination["limit"] = limit
		if end < total {
			pagination["next"] = pageURL(c, end)
		}
		if marker > 0 {
			pagination["prev"] = pageURL(c, max(marker-limit, 0))
		}
		items = items[marker:end]
	}

	data := make([]any, 0, len(items))
	for _, item := range items {
		data = append(data, item)
	}
	resp := gin.H{
		"type":         "collection",
		"resourceType": t.ID,
		"links":        gin.H{"self": "http://" + c.Request.Host + c.Request.URL.Path},
		"pagination":   pagination,
		"data":         data,
	}
	if slices.Contains(t.CollectionMethods, http.MethodPost) {
		resp["createTypes"] = gin.H{t.ID: base + "/" + t.Collection()}
	}
	c.JSON(http.StatusOK, resp)
}

func pageURL(c *gin.Context, marker int) string {
	q := c.Request.URL.Query()
	q.Set("marker", strconv.Itoa(marker))
	return "http://" + c.Request.Host + c.Request.URL.Path + "?" + q.Encode()
}

func matchesScope(fields map[string]any, scope map[string]string) bool {
	for k, v := range scope {
		if stringify(fields[k]) != v {
			return false
		}
	}
	return true
}

// matchesFilters applies eq, ne and prefix filters declared by t.
// Undeclared keys are ignored.
func matchesFilters(t TypeDef, fields map[string]any, query url.Values) bool {
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		name, mod, ok := resolveFilter(t, key)
		if !ok {
			continue
		}
		got, want := stringify(fields[name]), values[0]
		switch mod {
		case "ne":
			if got == want {
				return false
			}
		case "prefix":
			if !strings.HasPrefix(got, want) {
				return false
			}
		default:
			if got != want {
				return false
			}
		}
	}
	return true
}

func resolveFilter(t TypeDef, key string) (name, mod string, ok bool) {
	if _, declared := t.Filters[key]; declared {
		return key, "", true
	}
	for name, mods := range t.Filters {
		for _, m := range mods {
			if key == name+"_"+m {
				return name, m, true
			}
		}
	}
	return "", "", false
}

func (s *Server) create(c *gin.Context) {
	t, ok := s.typeFor(c)
	if !ok || s.injected(c) {
		return
	}
	if !slices.Contains(t.CollectionMethods, http.MethodPost) {
		apiError(c, http.StatusMethodNotAllowed, "MethodNotAllowed", "create is not allowed on "+t.ID)
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	s.mu.Lock()
	fields := s.store.put(t.ID, body)
	rec, _ := s.store.get(t.ID, stringify(fields["id"]))
	out := s.render(baseURL(c), t, rec)
	s.mu.Unlock()
	c.JSON(http.StatusCreated, out)
}

func (s *Server) get(c *gin.Context) {
	if c.Param("collection") == "schemas" {
		t, ok := s.types[c.Param("id")]
		if !ok {
			apiError(c, http.StatusNotFound, "NotFound", "unknown schema "+c.Param("id"))
			return
		}
		c.JSON(http.StatusOK, s.schemaNode(baseURL(c), t))
		return
	}
	t, ok := s.typeFor(c)
	if !ok || s.injected(c) {
		return
	}

	s.mu.Lock()
	rec, exists := s.store.get(t.ID, c.Param("id"))
	if exists {
		advance(rec)
	}
	var out map[string]any
	if exists {
		out = s.render(baseURL(c), t, rec)
	}
	s.mu.Unlock()

	if !exists {
		apiError(c, http.StatusNotFound, "NotFound", t.ID+" "+c.Param("id")+" not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

// advance moves a scripted transition one GET forward.
func advance(rec *record) {
	switch {
	case rec.Transitions > 0:
		rec.Transitions--
	case rec.FinalState != "":
		rec.Fields["transitioning"] = rec.FinalState
		rec.Fields["transitioningMessage"] = rec.FinalMsg
		rec.FinalState, rec.FinalMsg = "", ""
	}
}

func (s *Server) update(c *gin.Context) {
	t, ok := s.typeFor(c)
	if !ok || s.injected(c) {
		return
	}
	if !slices.Contains(t.ResourceMethods, http.MethodPut) {
		apiError(c, http.StatusMethodNotAllowed, "MethodNotAllowed", "update is not allowed on "+t.ID)
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}

	s.mu.Lock()
	rec, exists := s.store.get(t.ID, c.Param("id"))
	var out map[string]any
	if exists {
		for k, v := range body {
			switch k {
			case "id", "type", "links", "actions":
				continue
			}
			rec.Fields[k] = v
		}
		out = s.render(baseURL(c), t, rec)
	}
	s.mu.Unlock()

	if !exists {
		apiError(c, http.StatusNotFound, "NotFound", t.ID+" "+c.Param("id")+" not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) remove(c *gin.Context) {
	t, ok := s.typeFor(c)
	if !ok || s.injected(c) {
		return
	}
	if !slices.Contains(t.ResourceMethods, http.MethodDelete) {
		apiError(c, http.StatusMethodNotAllowed, "MethodNotAllowed", "delete is not allowed on "+t.ID)
		return
	}
	s.mu.Lock()
	rec, exists := s.store.remove(t.ID, c.Param("id"))
	var out map[string]any
	if exists {
		rec.Fields["state"] = "removing"
		out = s.render(baseURL(c), t, rec)
	}
	s.mu.Unlock()

	if !exists {
		apiError(c, http.StatusNotFound, "NotFound", t.ID+" "+c.Param("id")+" not found")
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) action(c *gin.Context) {
	t, ok := s.typeFor(c)
	if !ok || s.injected(c) {
		return
	}
	name := c.Query("action")
	if !slices.Contains(t.Actions, name) {
		apiError(c, http.StatusUnprocessableEntity, "InvalidAction", "invalid action "+name)
		return
	}
	body, ok := readBody(c)
	if !ok {
		return
	}
	s.mu.Lock()
	_, exists := s.store.get(t.ID, c.Param("id"))
	s.mu.Unlock()
	if !exists {
		apiError(c, http.StatusNotFound, "NotFound", t.ID+" "+c.Param("id")+" not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"type":       name + "Output",
		"action":     name,
		"resourceId": c.Param("id"),
		"input":      body,
	})
}

// render adds the hypermedia links and actions to a stored record.
func (s *Server) render(base string, t TypeDef, rec *record) map[string]any {
	out := maps.Clone(rec.Fields)
	self := base + "/" + t.Collection() + "/" + stringify(rec.Fields["id"])

	links := map[string]any{"self": self}
	if slices.Contains(t.ResourceMethods, http.MethodPut) {
		links["update"] = self
	}
	if slices.Contains(t.ResourceMethods, http.MethodDelete) {
		links["remove"] = self
	}
	for name := range t.Links {
		links[name] = self + "/" + name
	}
	out["links"] = links

	actions := map[string]any{}
	for _, a := range t.Actions {
		actions[a] = self + "?action=" + a
	}
	out["actions"] = actions
	return out
}

func readBody(c *gin.Context) (map[string]any, bool) {
	body := map[string]any{}
	if c.Request.ContentLength == 0 {
		return body, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusUnprocessableEntity, "InvalidBodyContent", err.Error())
		return nil, false
	}
	return body, true
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
