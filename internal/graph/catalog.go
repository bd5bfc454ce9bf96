package graph

// Entity is a typed node known to the backend catalog.
type Entity struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName"`
	DomainID    string `json:"domainId,omitempty" yaml:"domainId"`
}

// Label returns the human-readable name: displayName, then name, then id.
func (e Entity) Label() string {
	switch {
	case e.DisplayName != "":
		return e.DisplayName
	case e.Name != "":
		return e.Name
	default:
		return e.ID
	}
}

// Relationship is a typed edge known to the backend catalog.
type Relationship struct {
	ID          string `json:"id" yaml:"id"`
	SourceID    string `json:"sourceObjectTypeId" yaml:"sourceObjectTypeId"`
	TargetID    string `json:"targetObjectTypeId" yaml:"targetObjectTypeId"`
	Name        string `json:"name,omitempty" yaml:"name"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName"`
	DomainID    string `json:"domainId,omitempty" yaml:"domainId"`
}

// Label returns the edge label: displayName, then name, then id.
func (r Relationship) Label() string {
	switch {
	case r.DisplayName != "":
		return r.DisplayName
	case r.Name != "":
		return r.Name
	default:
		return r.ID
	}
}

// Catalog indexes entities by id.
type Catalog map[string]Entity

// NewCatalog builds a catalog. Later duplicates do not replace earlier ones.
func NewCatalog(entities []Entity) Catalog {
	c := make(Catalog, len(entities))
	for _, e := range entities {
		if e.ID == "" {
			continue
		}
		if _, ok := c[e.ID]; !ok {
			c[e.ID] = e
		}
	}
	return c
}

// LabelOf returns the catalog label for id, or id itself when unknown.
func (c Catalog) LabelOf(id string) string {
	if e, ok := c[id]; ok {
		return e.Label()
	}
	return id
}

// EntityFromRecord reads an entity out of a loosely-typed record.
func EntityFromRecord(rec Record) (Entity, bool) {
	id, ok := Text(rec["id"])
	if !ok {
		return Entity{}, false
	}
	name, _ := Text(rec["name"])
	display, _ := Text(rec["displayName"])
	domain, _ := Text(rec["domainId"])
	return Entity{ID: id, Name: name, DisplayName: display, DomainID: domain}, true
}

// RelationshipFromRecord reads a relationship out of a loosely-typed record.
// Endpoints are taken from the first complete endpoint pair.
func RelationshipFromRecord(rec Record) (Relationship, bool) {
	p := Parse(rec)
	if p.Shape != EdgeShape {
		return Relationship{}, false
	}
	name, _ := Text(rec["name"])
	display, _ := Text(rec["displayName"])
	domain, _ := Text(rec["domainId"])
	return Relationship{
		ID:          p.Edge.RelationshipID,
		SourceID:    p.Edge.SourceID,
		TargetID:    p.Edge.TargetID,
		Name:        name,
		DisplayName: display,
		DomainID:    domain,
	}, true
}
