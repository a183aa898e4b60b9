package graph

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Writer executes Cypher statements in one transaction
type Writer interface {
	ExecuteWrite(ctx context.Context, statements []Statement) error
}

// DuplicateProjection mirrors the latest detection run as
// (:Contact)-[:MEMBER_OF {rank, score}]->(:DuplicateGroup) for review tooling.
type DuplicateProjection struct {
	writer Writer
	logger ectologger.Logger
}

// NewDuplicateProjection creates a new projection
func NewDuplicateProjection(writer Writer, logger ectologger.Logger) *DuplicateProjection {
	return &DuplicateProjection{
		writer: writer,
		logger: logger,
	}
}

const (
	clearGroupsCypher = `MATCH (g:DuplicateGroup {tenant_id: $tenant_id}) DETACH DELETE g`

	upsertGroupCypher = `MERGE (g:DuplicateGroup {tenant_id: $tenant_id, key: $key})
SET g.size = $size
WITH g
UNWIND $members AS m
MERGE (c:Contact {tenant_id: $tenant_id, id: m.id})
SET c.name = m.name
MERGE (c)-[r:MEMBER_OF]->(g)
SET r.rank = m.rank, r.score = m.score`

	removeContactsCypher = `MATCH (c:Contact {tenant_id: $tenant_id}) WHERE c.id IN $ids DETACH DELETE c`
)

// GroupStatements returns the statements that replace a tenant's projected groups
func GroupStatements(tenantID string, groups []models.DuplicateGroup) []Statement {
	statements := make([]Statement, 0, len(groups)+1)
	statements = append(statements, Statement{
		Cypher: clearGroupsCypher,
		Params: map[string]any{"tenant_id": tenantID},
	})

	for _, g := range groups {
		members := make([]any, len(g.Members))
		for i, m := range g.Members {
			members[i] = map[string]any{
				"id":    m.ID,
				"name":  displayName(m),
				"rank":  i,
				"score": g.Scores[i],
			}
		}
		statements = append(statements, Statement{
			Cypher: upsertGroupCypher,
			Params: map[string]any{
				"tenant_id": tenantID,
				"key":       g.Key,
				"size":      g.Size(),
				"members":   members,
			},
		})
	}
	return statements
}

// ProjectGroups replaces the tenant's projected groups with groups
func (p *DuplicateProjection) ProjectGroups(ctx context.Context, tenantID string, groups []models.DuplicateGroup) error {
	ctx, span := tracing.StartSpan(ctx, "graph.DuplicateProjection.ProjectGroups")
	defer span.End()

	if err := p.writer.ExecuteWrite(ctx, GroupStatements(tenantID, groups)); err != nil {
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":   tenantID,
		"group_count": len(groups),
	}).Debug("Projected duplicate groups")
	return nil
}

// RemoveContacts drops merged-away contacts and their memberships
func (p *DuplicateProjection) RemoveContacts(ctx context.Context, tenantID string, ids []string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.DuplicateProjection.RemoveContacts")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}
	return p.writer.ExecuteWrite(ctx, []Statement{{
		Cypher: removeContactsCypher,
		Params: map[string]any{"tenant_id": tenantID, "ids": ids},
	}})
}

func displayName(c models.ContactRecord) string {
	switch {
	case c.GivenName != "" && c.FamilyName != "":
		return c.GivenName + " " + c.FamilyName
	case c.GivenName != "":
		return c.GivenName
	case c.FamilyName != "":
		return c.FamilyName
	default:
		return c.OrganizationName
	}
}
