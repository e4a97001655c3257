package query

import (
	"fmt"
	"regexp"
	"strings"
)

// The supported subset:
//
//	[SELECT doc.fullName] [FROM Document doc,] doc.object(<Class>) AS <alias>
//	[WHERE <pred> [AND <pred>]...] [ORDER BY doc.<field> [ASC|DESC] [, ...]]
//
// where <pred> is "doc.fullName LIKE :p [ESCAPE 'c']", "doc.space = :p" or
// "doc.fullName = :p".
var (
	statementPattern = regexp.MustCompile(`(?is)^\s*(?:select\s+doc\.fullName\s+)?from\s+(?:document\s+doc\s*,\s*)?doc\.object\(\s*([^()\s]+)\s*\)\s+as\s+(\w+)(.*)$`)
	wherePattern     = regexp.MustCompile(`(?is)^\s*where\s+(.+?)(\s+order\s+by\s+.*)?$`)
	orderPattern     = regexp.MustCompile(`(?is)^\s*order\s+by\s+(.+?)\s*$`)
	andPattern       = regexp.MustCompile(`(?i)\s+and\s+`)
	likePattern      = regexp.MustCompile(`(?i)^doc\.fullName\s+like\s+:(\w+)(?:\s+escape\s+'(.)')?$`)
	equalPattern     = regexp.MustCompile(`(?i)^doc\.(fullName|space)\s*=\s*:(\w+)$`)
	sortPattern      = regexp.MustCompile(`(?i)^doc\.(\w+)(?:\s+(asc|desc))?$`)
)

var sortColumns = map[string]string{
	"date":         "d.updated_at",
	"creationdate": "d.created_at",
	"title":        "d.title",
	"fullname":     "d.full_name",
	"name":         "d.name",
}

// compiled is the SQL form of a statement. Params lists the named parameters in
// placeholder order; the class name is always the first argument.
type compiled struct {
	SQL    string
	Class  string
	Params []string
}

func compile(statement string) (*compiled, error) {
	m := statementPattern.FindStringSubmatch(statement)
	if m == nil {
		return nil, fmt.Errorf("unsupported statement: %q", statement)
	}
	c := &compiled{Class: m[1]}

	var sb strings.Builder
	sb.WriteString("SELECT d.full_name FROM documents d WHERE EXISTS (SELECT 1 FROM objects o WHERE o.document = d.full_name AND o.class_name = ?)")

	rest := strings.TrimSpace(m[3])
	orderClause := ""
	if rest != "" {
		if w := wherePattern.FindStringSubmatch(rest); w != nil {
			for _, pred := range andPattern.Split(strings.TrimSpace(w[1]), -1) {
				frag, param, err := compilePredicate(strings.TrimSpace(pred))
				if err != nil {
					return nil, err
				}
				sb.WriteString(" AND ")
				sb.WriteString(frag)
				c.Params = append(c.Params, param)
			}
			orderClause = w[2]
		} else {
			orderClause = rest
		}
	}

	order := []string{}
	if strings.TrimSpace(orderClause) != "" {
		o := orderPattern.FindStringSubmatch(orderClause)
		if o == nil {
			return nil, fmt.Errorf("unsupported clause: %q", strings.TrimSpace(orderClause))
		}
		for _, item := range strings.Split(o[1], ",") {
			s := sortPattern.FindStringSubmatch(strings.TrimSpace(item))
			if s == nil {
				return nil, fmt.Errorf("unsupported order by: %q", strings.TrimSpace(item))
			}
			col, ok := sortColumns[strings.ToLower(s[1])]
			if !ok {
				return nil, fmt.Errorf("unsupported order by field: doc.%s", s[1])
			}
			dir := "ASC"
			if strings.EqualFold(s[2], "desc") {
				dir = "DESC"
			}
			order = append(order, col+" "+dir)
		}
	}
	// ties keep a stable order across pages
	order = append(order, "d.full_name ASC")
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(order, ", "))
	sb.WriteString(" LIMIT ? OFFSET ?")

	c.SQL = sb.String()
	return c, nil
}

func compilePredicate(pred string) (string, string, error) {
	if m := likePattern.FindStringSubmatch(pred); m != nil {
		if m[2] == "" {
			return "d.full_name LIKE ?", m[1], nil
		}
		if m[2] == "'" {
			return "", "", fmt.Errorf("unsupported escape character in %q", pred)
		}
		return "d.full_name LIKE ? ESCAPE '" + m[2] + "'", m[1], nil
	}
	if m := equalPattern.FindStringSubmatch(pred); m != nil {
		if strings.EqualFold(m[1], "space") {
			return "d.space = ?", m[2], nil
		}
		return "d.full_name = ?", m[2], nil
	}
	return "", "", fmt.Errorf("unsupported predicate: %q", pred)
}
