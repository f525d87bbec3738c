package postgres

import (
	"strconv"
	"strings"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

const taskColumns = `id, title, description, priority, due_date, status, user_id`

// Titles are compared byte-wise regardless of the database collation.
var sortColumns = map[models.SortField]string{
	models.SortByTitle:    `title COLLATE "C"`,
	models.SortByPriority: `priority`,
	models.SortByDueDate:  `due_date`,
	models.SortByStatus:   `status`,
	models.SortByUserID:   `user_id`,
}

type listTasksQuery struct {
	count     string
	countArgs []any
	page      string
	pageArgs  []any
}

func buildListTasksQuery(q models.TaskQuery) listTasksQuery {
	var where string
	var args []any
	if q.Search != "" {
		args = append(args, q.Search)
		where = "\nWHERE strpos(title, $1) > 0 OR strpos(coalesce(description, ''), $1) > 0"
	}

	var b strings.Builder
	b.WriteString("SELECT " + taskColumns + "\nFROM tasks")
	b.WriteString(where)
	b.WriteString("\nORDER BY ")
	if col, ok := sortColumns[q.SortBy]; ok {
		b.WriteString(col)
		if q.Descending {
			b.WriteString(" DESC")
		}
		b.WriteString(", ")
	}
	b.WriteString("id")

	pageArgs := append(append([]any(nil), args...), q.Limit(), q.Offset())
	b.WriteString("\nLIMIT $" + strconv.Itoa(len(pageArgs)-1) + " OFFSET $" + strconv.Itoa(len(pageArgs)))

	return listTasksQuery{
		count:     "SELECT count(*)\nFROM tasks" + where,
		countArgs: args,
		page:      b.String(),
		pageArgs:  pageArgs,
	}
}
