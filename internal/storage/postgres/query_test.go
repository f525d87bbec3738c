package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

func TestBuildListTasksQuery(t *testing.T) {
	tests := []struct {
		name          string
		query         models.TaskQuery
		wantCount     string
		wantCountArgs []any
		wantPage      string
		wantPageArgs  []any
	}{
		{
			name:      "no filter no sort",
			query:     models.NewTaskQuery(1, 10, "", "asc", ""),
			wantCount: "SELECT count(*)\nFROM tasks",
			wantPage: "SELECT id, title, description, priority, due_date, status, user_id\nFROM tasks" +
				"\nORDER BY id\nLIMIT $1 OFFSET $2",
			wantPageArgs: []any{10, 0},
		},
		{
			name:  "search with descending due date",
			query: models.NewTaskQuery(3, 5, "dueDate", "DESC", "foo"),
			wantCount: "SELECT count(*)\nFROM tasks" +
				"\nWHERE strpos(title, $1) > 0 OR strpos(coalesce(description, ''), $1) > 0",
			wantCountArgs: []any{"foo"},
			wantPage: "SELECT id, title, description, priority, due_date, status, user_id\nFROM tasks" +
				"\nWHERE strpos(title, $1) > 0 OR strpos(coalesce(description, ''), $1) > 0" +
				"\nORDER BY due_date DESC, id\nLIMIT $2 OFFSET $3",
			wantPageArgs: []any{"foo", 5, 10},
		},
		{
			name:      "title sorts byte-wise",
			query:     models.NewTaskQuery(1, 20, "title", "asc", ""),
			wantCount: "SELECT count(*)\nFROM tasks",
			wantPage: "SELECT id, title, description, priority, due_date, status, user_id\nFROM tasks" +
				"\nORDER BY title COLLATE \"C\", id\nLIMIT $1 OFFSET $2",
			wantPageArgs: []any{20, 0},
		},
		{
			name:      "unknown sort field is ignored",
			query:     models.NewTaskQuery(2, 10, "nonsense", "desc", ""),
			wantCount: "SELECT count(*)\nFROM tasks",
			wantPage: "SELECT id, title, description, priority, due_date, status, user_id\nFROM tasks" +
				"\nORDER BY id\nLIMIT $1 OFFSET $2",
			wantPageArgs: []any{10, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := buildListTasksQuery(tt.query)
			assert.Equal(t, tt.wantCount, q.count)
			assert.Equal(t, tt.wantCountArgs, q.countArgs)
			assert.Equal(t, tt.wantPage, q.page)
			assert.Equal(t, tt.wantPageArgs, q.pageArgs)
		})
	}
}

func TestSortColumnsCoverEverySortField(t *testing.T) {
	for _, f := range []models.SortField{
		models.SortByTitle,
		models.SortByPriority,
		models.SortByDueDate,
		models.SortByStatus,
		models.SortByUserID,
	} {
		assert.Contains(t, sortColumns, f)
	}
	assert.NotContains(t, sortColumns, models.SortByNone)
}

func TestSchemaStatementsAreIdempotent(t *testing.T) {
	assert.NotEmpty(t, schemaStatements)
	for _, stmt := range schemaStatements {
		assert.Contains(t, stmt, "IF NOT EXISTS")
	}
}
