// Package neo4j mirrors extracted user relations into a property graph,
// one (:User)-[:RELATION]->(:Thing) edge per fact, for neighbourhood
// queries over a user's preference network.
package neo4j

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
)

type RelationshipStore struct {
	driver neo4j.DriverWithContext
}

func New(ctx context.Context, uri, user, password string) (*RelationshipStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "neo4j.New", err)
	}
	return &RelationshipStore{driver: driver}, nil
}

func (s *RelationshipStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// relationLabel sanitizes a relation into a Cypher relationship type.
// Relation labels come from a fixed internal vocabulary, but the graph
// never trusts them as raw query text.
func relationLabel(relation string) (string, error) {
	label := strings.ToUpper(strings.TrimSpace(relation))
	if label == "" {
		return "", fmt.Errorf("empty relation")
	}
	for _, r := range label {
		if (r < 'A' || r > 'Z') && r != '_' {
			return "", fmt.Errorf("invalid relation label %q", relation)
		}
	}
	return label, nil
}

// MergeRelation upserts the user node, the object node and the typed
// edge between them. Re-observing a fact refreshes the edge properties
// rather than duplicating it.
func (s *RelationshipStore) MergeRelation(ctx context.Context, fact domain.UserFact) error {
	label, err := relationLabel(fact.Relation)
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "neo4j.MergeRelation", err)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
MERGE (u:User {id: $userID})
MERGE (t:Thing {name: $object})
MERGE (u)-[r:%s]->(t)
SET r.negated = $negated,
	r.confidence = $confidence,
	r.character = $character,
	r.updated_at = $updatedAt
`, label)

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return tx.Run(ctx, cypher, map[string]any{
			"userID":     fact.UserID,
			"object":     fact.Object,
			"negated":    fact.Negated,
			"confidence": fact.Confidence,
			"character":  fact.Character,
			"updatedAt":  time.Now().UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return domain.WrapError(domain.ErrUnavailable, "neo4j.MergeRelation", err)
	}
	return nil
}

// Neighbours returns the user's outgoing edges, optionally restricted to
// one relation type, most confident first.
func (s *RelationshipStore) Neighbours(ctx context.Context, userID, relation string, limit int) ([]domain.UserFact, error) {
	if limit <= 0 {
		limit = 20
	}

	edge := "r"
	if relation != "" {
		label, err := relationLabel(relation)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "neo4j.Neighbours", err)
		}
		edge = "r:" + label
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	cypher := fmt.Sprintf(`
MATCH (u:User {id: $userID})-[%s]->(t:Thing)
RETURN type(r) AS relation, t.name AS object, r.negated AS negated, r.confidence AS confidence
ORDER BY r.confidence DESC
LIMIT $limit
`, edge)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, map[string]any{
			"userID": userID,
			"limit":  limit,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "neo4j.Neighbours", err)
	}

	rows, ok := records.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected neo4j result type %T", records)
	}

	out := make([]domain.UserFact, 0, len(rows))
	for _, rec := range rows {
		fact := domain.UserFact{UserID: userID, Subject: "user"}
		if v, ok := rec.Get("relation"); ok {
			if s, ok := v.(string); ok {
				fact.Relation = strings.ToLower(s)
			}
		}
		if v, ok := rec.Get("object"); ok {
			if s, ok := v.(string); ok {
				fact.Object = s
			}
		}
		if v, ok := rec.Get("negated"); ok {
			if b, ok := v.(bool); ok {
				fact.Negated = b
			}
		}
		if v, ok := rec.Get("confidence"); ok {
			if f, ok := v.(float64); ok {
				fact.Confidence = f
			}
		}
		out = append(out, fact)
	}
	return out, nil
}
