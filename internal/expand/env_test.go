package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnv(t *testing.T) {
	var testCases = []struct {
		description string
		env         map[string]string
		input       string
		expect      string
	}{
		{description: "no expression", input: "dsn: /tmp/db", expect: "dsn: /tmp/db"},
		{description: "single", env: map[string]string{"DSN": "postgres://db"}, input: "dsn: ${env.DSN}", expect: "dsn: postgres://db"},
		{description: "several", env: map[string]string{"A": "1", "B": "2"}, input: "${env.A}-${env.B}", expect: "1-2"},
		{description: "unset expands empty", input: "key: '${env.NOTSET}'", expect: "key: ''"},
		{description: "missing brace kept", input: "x ${env.A", expect: "x ${env.A"},
		{description: "invalid key kept", env: map[string]string{"B": "2"}, input: "${env.A-${env.B}}", expect: "${env.A-2}"},
		{description: "empty key", input: "[${env.}]", expect: "[]"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			lookup := func(key string) (string, bool) {
				v, ok := testCase.env[key]
				return v, ok
			}
			assert.Equal(t, testCase.expect, Env(testCase.input, lookup))
		})
	}
}
