package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/graph"
	"go.uber.org/zap"
)

// envelope is the modeling backend's response wrapper. Codes 200 and 0
// mean success.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type page struct {
	Records []graph.Record `json:"records"`
	Total   int            `json:"total"`
	Size    int            `json:"size"`
	Current int            `json:"current"`
}

// REST talks to the modeling backend's /v1 HTTP API.
type REST struct {
	client   *resty.Client
	pageSize int
	log      *zap.Logger
}

// RESTOption configures a REST source.
type RESTOption func(*REST)

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) RESTOption {
	return func(r *REST) {
		if d > 0 {
			r.client.SetTimeout(d)
		}
	}
}

// WithToken sends a bearer token on every request.
func WithToken(token string) RESTOption {
	return func(r *REST) { r.client.SetAuthToken(token) }
}

// WithPageSize sets how many catalog records are requested per page.
func WithPageSize(n int) RESTOption {
	return func(r *REST) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithRESTLogger sets the logger.
func WithRESTLogger(l *zap.Logger) RESTOption {
	return func(r *REST) {
		if l != nil {
			r.log = l
		}
	}
}

// NewREST creates a client for the API rooted at baseURL, for example
// http://localhost:8080/api.
func NewREST(baseURL string, opts ...RESTOption) *REST {
	r := &REST{
		client:   resty.New(),
		pageSize: 500,
		log:      zap.NewNop(),
	}
	r.client.SetBaseURL(baseURL)
	r.client.SetTimeout(15 * time.Second)
	r.client.SetHeader("Accept", "application/json")
	for _, opt := range opts {
		opt(r)
	}
	r.client.SetLogger(r.log.Sugar())
	r.client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		r.log.Debug("backend request",
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("elapsed", resp.Time()))
		return nil
	})
	return r
}

// get fetches path and unwraps the envelope's data into out.
func (r *REST) get(ctx context.Context, path string, pathParams, params map[string]string, out any) error {
	env := &envelope{}
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(env).
		ForceContentType("application/json").
		SetPathParams(pathParams).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("GET %s: %s", path, resp.Status())
	}
	if env.Code != 200 && env.Code != 0 {
		return fmt.Errorf("GET %s: backend error %d: %s", path, env.Code, env.Message)
	}
	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("GET %s: decoding data: %w", path, err)
	}
	return nil
}

// ObjectTypes pages through the object-type list.
func (r *REST) ObjectTypes(ctx context.Context, domainID string) ([]graph.Entity, error) {
	var out []graph.Entity
	for current := 1; ; current++ {
		params := map[string]string{
			"page": strconv.Itoa(current),
			"size": strconv.Itoa(r.pageSize),
		}
		if domainID != "" {
			params["domainId"] = domainID
		}

		var raw json.RawMessage
		if err := r.get(ctx, "/v1/object-types", nil, params, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", graph.ErrCatalogUnavailable, err)
		}
		recs, total, paged, err := decodeList(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", graph.ErrCatalogUnavailable, err)
		}
		for _, rec := range recs {
			if e, ok := graph.EntityFromRecord(rec); ok {
				out = append(out, e)
			}
		}
		if !paged || len(recs) == 0 || current*r.pageSize >= total {
			return out, nil
		}
	}
}

// decodeList accepts either a bare list or a page of records.
func decodeList(raw json.RawMessage) (recs []graph.Record, total int, paged bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, 0, false, nil
	}
	if trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &recs)
		return recs, len(recs), false, err
	}
	var p page
	if err = json.Unmarshal(trimmed, &p); err != nil {
		return nil, 0, false, err
	}
	return p.Records, p.Total, true, nil
}

func (r *REST) LinkTypes(ctx context.Context, objectTypeID string) ([]graph.Relationship, error) {
	var recs []graph.Record
	if err := r.get(ctx, "/v1/link-types/object-type/{id}", map[string]string{"id": objectTypeID}, nil, &recs); err != nil {
		return nil, err
	}
	out := make([]graph.Relationship, 0, len(recs))
	for _, rec := range recs {
		if rel, ok := graph.RelationshipFromRecord(rec); ok {
			out = append(out, rel)
		}
	}
	return out, nil
}

type restRoute struct {
	path   string
	params []string
	ids    bool // result is a list of ids
}

var restRoutes = map[Kind]restRoute{
	KindLinkTypes:      {path: "/v1/query/object-type/link-types", params: []string{"objectTypeName"}},
	KindObjectTypePath: {path: "/v1/query/object-type/path", params: []string{"sourceObjectTypeName", "targetObjectTypeName", "maxDepth"}},
	KindReachable:      {path: "/v1/query/object-type/reachable", params: []string{"objectTypeName", "depth"}},
	KindNeighbors:      {path: "/v1/query/neighbors", params: []string{"instanceId", "linkTypeName", "objectType"}, ids: true},
	KindRelated:        {path: "/v1/query/related", params: []string{"instanceId", "depth"}, ids: true},
	KindInstancePath: {path: "/v1/query/path", params: []string{
		"sourceObjectType", "sourceInstanceId", "targetObjectType", "targetInstanceId", "linkTypeName", "maxDepth",
	}},
}

func (r *REST) Query(ctx context.Context, q Query) ([]any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	route, ok := restRoutes[q.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
	}

	params := make(map[string]string, len(route.params))
	for _, k := range route.params {
		if v := q.Param(k); v != "" {
			params[k] = v
		}
	}

	var out []any
	if err := r.get(ctx, route.path, nil, params, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", graph.ErrQueryUnavailable, err)
	}
	if route.ids {
		for i, v := range out {
			if id, ok := graph.Text(v); ok {
				out[i] = graph.Record{"id": id}
			}
		}
	}
	return out, nil
}

// FetchDetail loads an object type and its property list. A failing
// property lookup leaves the list empty.
func (r *REST) FetchDetail(ctx context.Context, id string) (detail.Detail, error) {
	idParam := map[string]string{"id": id}
	var rec graph.Record
	if err := r.get(ctx, "/v1/object-types/{id}", idParam, nil, &rec); err != nil {
		return detail.Detail{}, err
	}
	d := detail.Detail{ID: id, Record: rec}

	var props []graph.Record
	if err := r.get(ctx, "/v1/object-types/{id}/properties", idParam, nil, &props); err != nil {
		r.log.Debug("property lookup failed", zap.String("id", id), zap.Error(err))
		return d, nil
	}
	d.Properties = props
	return d, nil
}

func (r *REST) Close(context.Context) error {
	r.client.GetClient().CloseIdleConnections()
	return nil
}
