package criteria

import (
	"github.com/viant/reviewgate/service/dao"
)

// Match reports whether the named field value satisfies every parameter with
// the same name. Parameters with other names are ignored.
func Match(fields map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := fields[parameter.Name]
		if !ok {
			continue
		}
		if !contains(parameter.Values(), actual) {
			return false
		}
	}
	return true
}

// FilterByState matches a single state against State parameters.
func FilterByState(state string, parameters []*dao.Parameter) bool {
	return Match(map[string]string{dao.ParamState: state}, parameters)
}

func contains(values []string, candidate string) bool {
	for _, v := range values {
		if v == candidate {
			return true
		}
	}
	return false
}
