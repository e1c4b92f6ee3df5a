package dao

// Well-known parameter names understood by List implementations.
const (
	ParamState   = "State"
	ParamOwnerID = "OwnerID"
	ParamKind    = "Kind"
)

// Parameter narrows a List call.
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a parameter; multiple values match any of them.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// Values returns the parameter value as a string slice.
func (p *Parameter) Values() []string {
	switch actual := p.Value.(type) {
	case string:
		return []string{actual}
	case []string:
		return actual
	}
	return nil
}
