package query

// Op is a comparison operator of a condition.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpIsNull
)

var opSQL = map[Op]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

// Cond restricts a query to rows whose field compares to Value. Field is
// a field name or a column name.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Eq matches rows whose field is equal to v.
func Eq(field string, v any) Cond { return Cond{Field: field, Op: OpEq, Value: v} }

// Ne matches rows whose field is not equal to v.
func Ne(field string, v any) Cond { return Cond{Field: field, Op: OpNe, Value: v} }

// Lt matches rows whose field is less than v.
func Lt(field string, v any) Cond { return Cond{Field: field, Op: OpLt, Value: v} }

// Lte matches rows whose field is at most v.
func Lte(field string, v any) Cond { return Cond{Field: field, Op: OpLte, Value: v} }

// Gt matches rows whose field is greater than v.
func Gt(field string, v any) Cond { return Cond{Field: field, Op: OpGt, Value: v} }

// Gte matches rows whose field is at least v.
func Gte(field string, v any) Cond { return Cond{Field: field, Op: OpGte, Value: v} }

// In matches any of values. An empty list matches nothing.
func In(field string, values ...any) Cond { return Cond{Field: field, Op: OpIn, Value: values} }

// IsNull matches null columns, or non-null ones when null is false.
func IsNull(field string, null bool) Cond { return Cond{Field: field, Op: OpIsNull, Value: null} }

// Query selects rows of one model.
type Query struct {
	Where []Cond
	// OrderBy lists field names, "-" prefixed for descending order. The
	// model's default ordering applies when it is empty.
	OrderBy []string
	Limit   int
	Offset  int
}
