package aggregates

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/knowledgebase-backend/internal/domain/aggregates"
	"github.com/yungbote/knowledgebase-backend/internal/types"
)

func TestValidateLayout(t *testing.T) {
	valid := types.MindmapLayout{
		Style: types.LayoutForceDirected,
		Nodes: []types.MindmapNode{{ID: "a"}, {ID: "b"}},
		Edges: []types.MindmapEdge{{ID: "e1", Source: "a", Target: "b"}},
	}
	if err := validateLayout(valid); err != nil {
		t.Fatalf("valid layout rejected: %v", err)
	}

	cases := []struct {
		name   string
		layout types.MindmapLayout
	}{
		{
			name: "duplicate node id",
			layout: types.MindmapLayout{
				Nodes: []types.MindmapNode{{ID: "a"}, {ID: "a"}},
			},
		},
		{
			name: "edge references missing source",
			layout: types.MindmapLayout{
				Nodes: []types.MindmapNode{{ID: "a"}},
				Edges: []types.MindmapEdge{{ID: "e", Source: "ghost", Target: "a"}},
			},
		},
		{
			name: "edge references missing target",
			layout: types.MindmapLayout{
				Nodes: []types.MindmapNode{{ID: "a"}},
				Edges: []types.MindmapEdge{{ID: "e", Source: "a", Target: "ghost"}},
			},
		},
		{
			name: "duplicate edge id",
			layout: types.MindmapLayout{
				Nodes: []types.MindmapNode{{ID: "a"}, {ID: "b"}},
				Edges: []types.MindmapEdge{
					{ID: "e", Source: "a", Target: "b"},
					{ID: "e", Source: "b", Target: "a"},
				},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateLayout(tc.layout)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, ErrInvariant) {
				t.Fatalf("expected invariant error, got %v", err)
			}
		})
	}

	t.Run("missing node id", func(t *testing.T) {
		err := validateLayout(types.MindmapLayout{Nodes: []types.MindmapNode{{}}})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestMapErrorCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code domainagg.ErrorCode
	}{
		{"record not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound},
		{"validation", ValidationError("bad input"), domainagg.CodeValidation},
		{"invariant", InvariantError("broken"), domainagg.CodeInvariantViolation},
		{"conflict", ConflictError("stale"), domainagg.CodeConflict},
		{"unique violation", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, domainagg.CodePreconditionFailed},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, domainagg.CodeRetryable},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, domainagg.CodeRetryable},
		{"unknown", errors.New("boom"), domainagg.CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := MapError("op.test", tc.err)
			if !domainagg.IsCode(mapped, tc.code) {
				t.Fatalf("code = %s, want %s", domainagg.CodeOf(mapped), tc.code)
			}
		})
	}

	t.Run("nil passes through", func(t *testing.T) {
		if MapError("op.test", nil) != nil {
			t.Fatalf("expected nil")
		}
	})

	t.Run("already mapped errors are untouched", func(t *testing.T) {
		orig := domainagg.NewError(domainagg.CodePermissionDenied, "op.test", "denied", nil)
		if mapped := MapError("op.other", orig); mapped != orig {
			t.Fatalf("mapped error rewrapped: %v", mapped)
		}
	})
}
