package expression

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type Operator string

const (
	AddOperator Operator = "+"
	SubOperator Operator = "-"
	MulOperator Operator = "*"
	DivOperator Operator = "/"
)

// Node is a node of the syntax tree: either *NumberLiteral or
// *BinaryExpression.
type Node interface {
	fmt.Stringer
	json.Marshaler
	evaluate() (float64, error)
}

type NumberLiteral struct {
	Value float64
}

var _ Node = (*NumberLiteral)(nil)

func (n *NumberLiteral) String() string {
	return formatNumber(n.Value)
}

func (n *NumberLiteral) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type  string  `json:"type"`
		Value float64 `json:"value"`
	}{
		Type:  "NumberLiteral",
		Value: n.Value,
	})
}

type BinaryExpression struct {
	Left     Node
	Operator Operator
	Right    Node
}

var _ Node = (*BinaryExpression)(nil)

func (b *BinaryExpression) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(string(b.Operator))
	sb.WriteByte(' ')
	sb.WriteString(b.Left.String())
	sb.WriteByte(' ')
	sb.WriteString(b.Right.String())
	sb.WriteByte(')')
	return sb.String()
}

func (b *BinaryExpression) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string   `json:"type"`
		Operator Operator `json:"operator"`
		Left     Node     `json:"left"`
		Right    Node     `json:"right"`
	}{
		Type:     "BinaryExpression",
		Operator: b.Operator,
		Left:     b.Left,
		Right:    b.Right,
	})
}

// Depth returns the height of the tree rooted at n; a literal has depth 0.
func Depth(n Node) int {
	b, ok := n.(*BinaryExpression)
	if !ok {
		return 0
	}
	left, right := Depth(b.Left), Depth(b.Right)
	if left > right {
		return left + 1
	}
	return right + 1
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Expr is a parsed expression together with its source text.
type Expr struct {
	Source string
	Node
}

func (e *Expr) String() string {
	return e.Source
}

func ExpandExprRecursive(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return ExpandExpr(v)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			var err error
			result[key], err = ExpandExprRecursive(value)
			if err != nil {
				return nil, fmt.Errorf("key=%q: %w", key, err)
			}
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, value := range v {
			var err error
			result[i], err = ExpandExprRecursive(value)
			if err != nil {
				return nil, fmt.Errorf("index=%d: %w", i, err)
			}
		}
		return result, nil

	default:
		return value, nil
	}
}

// ExpandExpr parses str when it is written as "${...}" and returns it
// untouched otherwise.
func ExpandExpr(str string) (any, error) {
	if IsExpr(str) {
		return ParseExpr(TrimExprParen(str))
	}

	return str, nil
}

func IsExpr(str string) bool {
	return strings.HasPrefix(str, "${") && strings.HasSuffix(str, "}")
}

func TrimExprParen(str string) string {
	return strings.TrimSuffix(strings.TrimPrefix(str, "${"), "}")
}
