// Package expand substitutes ${env.KEY} expressions in configuration text.
package expand

import (
	"os"
	"strings"
	"unicode"
)

const envPrefix = "${env."

// Env replaces every ${env.KEY} in value with the variable returned by lookup
// (os.LookupEnv when nil); unset variables expand to "". Expressions with an
// invalid key or without a closing brace are kept literally.
func Env(value string, lookup func(string) (string, bool)) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if !strings.Contains(value, envPrefix) {
		return value
	}
	var b strings.Builder
	i := 0
	for {
		idx := strings.Index(value[i:], envPrefix)
		if idx < 0 {
			b.WriteString(value[i:])
			return b.String()
		}
		b.WriteString(value[i : i+idx])
		start := i + idx + len(envPrefix)
		end := strings.IndexByte(value[start:], '}')
		if end < 0 {
			b.WriteString(value[i+idx:])
			return b.String()
		}
		key := value[start : start+end]
		if !validKey(key) {
			// keep the prefix and rescan what follows it, so nested expressions still expand
			b.WriteString(envPrefix)
			i = start
			continue
		}
		v, _ := lookup(key)
		b.WriteString(v)
		i = start + end + 1
	}
}

func validKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
