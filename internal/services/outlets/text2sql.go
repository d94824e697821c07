package outlets

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/zus-planner-poc/server/internal/agent/model"
)

const maxRows = 10

// QueryError reports a malformed or unsafe generated query.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string { return e.Message }

// ExecutionError reports a failure while running a valid generated query.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// Querier is the structured-data-lookup capability contract.
type Querier interface {
	Query(ctx context.Context, query string) (*model.OutletQueryResult, error)
}

// NewQuerier builds a querier from the configured provider tag.
func NewQuerier(provider string) (Querier, error) {
	switch provider {
	case "memory", "fake":
		return NewText2SQLService(seedOutlets), nil
	default:
		return nil, fmt.Errorf("unsupported outlet query provider %q", provider)
	}
}

// Text2SQLService turns a natural-language question into a SQL statement over
// the outlets table and executes it against its row set. Generation is
// alias-driven; validation rejects anything but a single bounded SELECT before
// execution.
type Text2SQLService struct {
	rows []model.OutletRow
}

func NewText2SQLService(rows []model.OutletRow) *Text2SQLService {
	return &Text2SQLService{rows: rows}
}

const selectColumns = "name, city, state, postal_code, address, open_time, close_time, services"

var normalizePattern = regexp.MustCompile(`[^a-z0-9\s]+`)

func normalize(q string) string {
	lowered := strings.ToLower(q)
	stripped := normalizePattern.ReplaceAllString(lowered, " ")
	return strings.Join(strings.Fields(stripped), " ")
}

func (s *Text2SQLService) Query(ctx context.Context, query string) (*model.OutletQueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &QueryError{Message: "Outlet question cannot be empty."}
	}

	sql, params := s.generate(query)
	if err := validateGenerated(sql); err != nil {
		return nil, err
	}

	rows, err := s.execute(sql, params)
	if err != nil {
		return nil, err
	}

	return &model.OutletQueryResult{
		Query:          query,
		GeneratedQuery: sql,
		Parameters:     params,
		Rows:           rows,
	}, nil
}

// generate builds a LIKE-filtered SELECT from the location aliases found in
// the question. Questions with no recognised location scan the whole table.
func (s *Text2SQLService) generate(query string) (string, map[string]any) {
	normalized := normalize(query)
	sql := "SELECT " + selectColumns + " FROM outlets"
	params := map[string]any{}
	var clauses []string

	addClause := func(field, value string) {
		key := fmt.Sprintf("%s_param_%d", field, len(clauses))
		clauses = append(clauses, fmt.Sprintf("LOWER(%s) LIKE :%s", field, key))
		params[key] = "%" + value + "%"
	}

	canonicals := make([]string, 0, len(cityAliases))
	for canonical := range cityAliases {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	// Pad with spaces so short aliases like "kl" cannot fire inside longer
	// words like "klang".
	padded := " " + normalized + " "
	for _, canonical := range canonicals {
		for _, variant := range cityAliases[canonical] {
			if strings.Contains(padded, " "+variant+" ") {
				addClause("name", canonical)
				addClause("city", canonical)
				break
			}
		}
	}

	if len(clauses) > 0 {
		sql += " WHERE " + strings.Join(clauses, " OR ")
	}
	sql += fmt.Sprintf(" ORDER BY name LIMIT %d", maxRows)
	return sql, params
}

var forbiddenKeywords = []string{"insert", "update", "delete", "drop", "alter", "create", "attach", "pragma"}

func validateGenerated(sql string) error {
	lowered := strings.ToLower(strings.TrimSpace(sql))
	if !strings.HasPrefix(lowered, "select ") {
		return &QueryError{Message: "Generated query must be a SELECT statement."}
	}
	if strings.Contains(lowered, ";") {
		return &QueryError{Message: "Generated query must be a single statement."}
	}
	for _, kw := range forbiddenKeywords {
		if regexp.MustCompile(`\b` + kw + `\b`).MatchString(lowered) {
			return &QueryError{Message: fmt.Sprintf("Generated query contains forbidden keyword %q.", kw)}
		}
	}
	if !strings.Contains(lowered, "limit") {
		return &QueryError{Message: "Generated query must be bounded with LIMIT."}
	}
	return nil
}

// execute interprets the generated clauses against the in-memory rows: any
// LIKE parameter matching name or city includes the row; no parameters means
// a full scan.
func (s *Text2SQLService) execute(sql string, params map[string]any) ([]model.OutletRow, error) {
	needles := make([]string, 0, len(params))
	for _, v := range params {
		pattern, ok := v.(string)
		if !ok {
			return nil, &ExecutionError{Message: "Query parameter has an unexpected type."}
		}
		needles = append(needles, strings.Trim(pattern, "%"))
	}

	var matched []model.OutletRow
	for _, row := range s.rows {
		if len(needles) == 0 {
			matched = append(matched, row)
			continue
		}
		name := strings.ToLower(row.Name)
		city := strings.ToLower(row.City)
		for _, needle := range needles {
			if strings.Contains(name, needle) || strings.Contains(city, needle) {
				matched = append(matched, row)
				break
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	if len(matched) > maxRows {
		matched = matched[:maxRows]
	}
	return matched, nil
}

var _ Querier = (*Text2SQLService)(nil)
