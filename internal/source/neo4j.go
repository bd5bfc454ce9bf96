package source

import (
	"context"
	"fmt"

	"github.com/msalah0e/ontoview/internal/detail"
	"github.com/msalah0e/ontoview/internal/graph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Runner executes one Cypher statement and returns its buffered rows.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

// driverRunner runs statements through ExecuteQuery.
type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func (d *driverRunner) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	res, err := neo4j.ExecuteQuery(ctx, d.driver, cypher, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(d.database))
	if err != nil {
		return nil, fmt.Errorf("executing cypher: %w", err)
	}
	rows := make([]map[string]any, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

// Neo4j reads the model from a graph database. Object types are
// :ObjectType nodes joined by :LINK_TYPE relationships; instances are
// :Instance nodes joined by :LINK relationships.
type Neo4j struct {
	run    Runner
	driver neo4j.DriverWithContext
	log    *zap.Logger
}

// Neo4jConfig holds connection settings.
type Neo4jConfig struct {
	URI      string `toml:"uri"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Database string `toml:"database"`
}

// OpenNeo4j connects and verifies connectivity.
func OpenNeo4j(ctx context.Context, cfg Neo4jConfig, log *zap.Logger) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create Neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connecting to %s: %w", cfg.URI, err)
	}
	n := NewNeo4j(&driverRunner{driver: driver, database: cfg.Database}, log)
	n.driver = driver
	return n, nil
}

// NewNeo4j serves requests through an existing runner.
func NewNeo4j(r Runner, log *zap.Logger) *Neo4j {
	if log == nil {
		log = zap.NewNop()
	}
	return &Neo4j{run: r, log: log}
}

const (
	cypherObjectTypes = `MATCH (t:ObjectType)
WHERE $domainId = '' OR t.domainId = $domainId
RETURN t.id AS id, t.name AS name, t.displayName AS displayName, t.domainId AS domainId
ORDER BY t.name`

	cypherLinkTypes = `MATCH (s:ObjectType)-[l:LINK_TYPE]->(t:ObjectType)
WHERE s.id = $id OR t.id = $id
RETURN l.id AS id, s.id AS sourceObjectTypeId, t.id AS targetObjectTypeId,
       l.name AS name, l.displayName AS displayName, l.domainId AS domainId
ORDER BY l.name`

	cypherLinkTypesByName = `MATCH (o:ObjectType {name: $name})
MATCH (s:ObjectType)-[l:LINK_TYPE]->(t:ObjectType)
WHERE s = o OR t = o
RETURN l.id AS id, s.id AS sourceObjectTypeId, t.id AS targetObjectTypeId,
       l.name AS name, l.displayName AS displayName, l.domainId AS domainId
ORDER BY l.name`

	// variable-length bounds cannot be parameters; depth is validated as
	// a positive integer before being formatted in.
	cypherTypePath = `MATCH p = (s:ObjectType {name: $source})-[:LINK_TYPE*1..%d]-(t:ObjectType {name: $target})
WHERE all(n IN nodes(p) WHERE single(m IN nodes(p) WHERE m = n))
RETURN [r IN relationships(p) | {id: r.id, sourceObjectTypeId: startNode(r).id,
        targetObjectTypeId: endNode(r).id, name: r.name, displayName: r.displayName}] AS path
LIMIT %d`

	cypherReachable = `MATCH (s:ObjectType {name: $name})-[:LINK_TYPE*1..%d]-(t:ObjectType)
WHERE t <> s
WITH DISTINCT t
RETURN t.id AS id, t.name AS name, t.displayName AS displayName, t.domainId AS domainId`

	cypherNeighbors = `MATCH (s:Instance {id: $id})-[l:LINK]-(n:Instance)
WHERE $linkTypeName = '' OR l.linkTypeName = $linkTypeName
RETURN DISTINCT n.id AS id`

	cypherRelated = `MATCH (s:Instance {id: $id})-[:LINK*1..%d]-(n:Instance)
WHERE n <> s
RETURN DISTINCT n.id AS id`

	cypherInstancePath = `MATCH p = (s:Instance {id: $source})-[:LINK*1..%d]-(t:Instance {id: $target})
WHERE all(n IN nodes(p) WHERE single(m IN nodes(p) WHERE m = n))
RETURN [r IN relationships(p) | {id: r.id, sourceInstanceId: startNode(r).id,
        targetInstanceId: endNode(r).id, name: r.linkTypeName}] AS path
LIMIT %d`

	cypherDetail = `MATCH (n {id: $id})
WHERE n:ObjectType OR n:Instance
RETURN properties(n) AS record
LIMIT 1`

	cypherProperties = `MATCH (:ObjectType {id: $id})-[:HAS_PROPERTY]->(p:Property)
RETURN properties(p) AS property
ORDER BY p.name`
)

func (n *Neo4j) ObjectTypes(ctx context.Context, domainID string) ([]graph.Entity, error) {
	rows, err := n.run.Run(ctx, cypherObjectTypes, map[string]any{"domainId": domainID})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", graph.ErrCatalogUnavailable, err)
	}
	out := make([]graph.Entity, 0, len(rows))
	for _, row := range rows {
		if e, ok := graph.EntityFromRecord(row); ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (n *Neo4j) LinkTypes(ctx context.Context, objectTypeID string) ([]graph.Relationship, error) {
	rows, err := n.run.Run(ctx, cypherLinkTypes, map[string]any{"id": objectTypeID})
	if err != nil {
		return nil, err
	}
	out := make([]graph.Relationship, 0, len(rows))
	for _, row := range rows {
		if r, ok := graph.RelationshipFromRecord(row); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (n *Neo4j) Query(ctx context.Context, q Query) ([]any, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var (
		cypher string
		params map[string]any
		column string // when set, each row contributes this column
	)
	switch q.Kind {
	case KindLinkTypes:
		cypher, params = cypherLinkTypesByName, map[string]any{"name": q.Param("objectTypeName")}
	case KindObjectTypePath:
		cypher = fmt.Sprintf(cypherTypePath, q.Int("maxDepth", 5), maxPaths)
		params = map[string]any{"source": q.Param("sourceObjectTypeName"), "target": q.Param("targetObjectTypeName")}
		column = "path"
	case KindReachable:
		cypher = fmt.Sprintf(cypherReachable, q.Int("depth", 2))
		params = map[string]any{"name": q.Param("objectTypeName")}
	case KindNeighbors:
		cypher = cypherNeighbors
		params = map[string]any{"id": q.Param("instanceId"), "linkTypeName": q.Param("linkTypeName")}
	case KindRelated:
		cypher = fmt.Sprintf(cypherRelated, q.Int("depth", 2))
		params = map[string]any{"id": q.Param("instanceId")}
	case KindInstancePath:
		cypher = fmt.Sprintf(cypherInstancePath, q.Int("maxDepth", 5), maxPaths)
		params = map[string]any{"source": q.Param("sourceInstanceId"), "target": q.Param("targetInstanceId")}
		column = "path"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, q.Kind)
	}

	rows, err := n.run.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", graph.ErrQueryUnavailable, err)
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		if column != "" {
			out = append(out, row[column])
			continue
		}
		out = append(out, graph.Record(row))
	}
	n.log.Debug("cypher query", zap.Stringer("query", q), zap.Int("rows", len(rows)))
	return out, nil
}

func (n *Neo4j) FetchDetail(ctx context.Context, id string) (detail.Detail, error) {
	rows, err := n.run.Run(ctx, cypherDetail, map[string]any{"id": id})
	if err != nil {
		return detail.Detail{}, err
	}
	if len(rows) == 0 {
		return detail.Detail{}, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	d := detail.Detail{ID: id}
	if rec, ok := rows[0]["record"].(map[string]any); ok {
		d.Record = rec
	}

	props, err := n.run.Run(ctx, cypherProperties, map[string]any{"id": id})
	if err != nil {
		n.log.Debug("property lookup failed", zap.String("id", id), zap.Error(err))
		return d, nil
	}
	for _, row := range props {
		if p, ok := row["property"].(map[string]any); ok {
			d.Properties = append(d.Properties, p)
		}
	}
	return d, nil
}

func (n *Neo4j) Close(ctx context.Context) error {
	if n.driver == nil {
		return nil
	}
	return n.driver.Close(ctx)
}
