// Package query parses the filter expressions applied by the tile record
// reader.
package query

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"tilesplit/pkg/common"
)

// TileTable is the only table a filter can select from.
const TileTable = "tiles"

// SelectStmt is a parsed "SELECT * FROM <table> [WHERE tile <op> <int>] [LIMIT <n>]".
type SelectStmt struct {
	Table string
	Where *WhereClause
	Limit int
}

type WhereClause struct {
	Field string
	Op    string
	Value int64
}

var selectRe = regexp.MustCompile(`(?i)^SELECT\s+\*\s+FROM\s+([a-zA-Z_][a-zA-Z0-9_]*)(?:\s+WHERE\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*(=|!=|>=|<=|>|<)\s*(-?\d+))?(?:\s+LIMIT\s+(\d+))?\s*;?\s*$`)

// Parse accepts:
//
//	SELECT * FROM tiles
//	SELECT * FROM tiles WHERE tile >= 100
//	SELECT * FROM tiles LIMIT 10
//	SELECT * FROM tiles WHERE tile < 4096 LIMIT 10
//
// "id" is accepted as an alias of "tile". Limit is -1 when absent.
func Parse(s string) (*SelectStmt, error) {
	orig := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	if orig == "" {
		return nil, errors.New("empty query")
	}

	matches := selectRe.FindStringSubmatch(orig)
	if matches == nil {
		return nil, errors.New("syntax: expected SELECT * FROM <table> [WHERE tile <op> <int>] [LIMIT <n>]")
	}

	if !strings.EqualFold(matches[1], TileTable) {
		return nil, errors.New("unknown table " + matches[1] + ", expected " + TileTable)
	}
	stmt := &SelectStmt{
		Table: TileTable,
		Limit: -1,
	}

	if matches[2] != "" {
		field := strings.ToLower(matches[2])
		if field != "tile" && field != "id" {
			return nil, errors.New("only WHERE tile is supported")
		}
		whereVal, err := strconv.ParseInt(matches[4], 10, 64)
		if err != nil {
			return nil, errors.New("invalid WHERE value")
		}
		stmt.Where = &WhereClause{
			Field: "tile",
			Op:    matches[3],
			Value: whereVal,
		}
	}

	if matches[5] != "" {
		limitVal, err := strconv.Atoi(matches[5])
		if err != nil || limitVal < 0 {
			return nil, errors.New("invalid LIMIT value")
		}
		stmt.Limit = limitVal
	}

	return stmt, nil
}

// Match reports whether a tile passes the WHERE clause.
func (stmt *SelectStmt) Match(id common.TileID) bool {
	if stmt == nil || stmt.Where == nil {
		return true
	}
	k := int64(id)
	v := stmt.Where.Value
	switch stmt.Where.Op {
	case "=":
		return k == v
	case "!=":
		return k != v
	case ">":
		return k > v
	case "<":
		return k < v
	case ">=":
		return k >= v
	case "<=":
		return k <= v
	default:
		return false
	}
}
