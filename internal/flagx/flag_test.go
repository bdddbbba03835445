package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "lip.json", "-a", ":8080"},
			allowed: []string{"-c"},
			want:    []string{"-c", "lip.json"},
		},
		{
			name:    "equals form",
			args:    []string{"--config=alt.json", "-a", ":8080"},
			allowed: []string{"--config"},
			want:    []string{"--config=alt.json"},
		},
		{
			name:    "order preserved across several allowed flags",
			args:    []string{"-a", ":8080", "-x", "1", "-d", "lip.sqlite"},
			allowed: []string{"-a", "-d"},
			want:    []string{"-a", ":8080", "-d", "lip.sqlite"},
		},
		{
			name:    "unknown flags and positionals dropped",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "dash token is not taken as value",
			args:    []string{"-c", "-s", "secret"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "value may start with dash in equals form",
			args:    []string{"-s=--odd"},
			allowed: []string{"-s"},
			want:    []string{"-s=--odd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestStripArgs(t *testing.T) {
	global := []string{"-s", "-t", "-c"}

	assert.Equal(t,
		[]string{"token", "-id", "home", "-mode", "write"},
		StripArgs([]string{"-s", "http://lip:8080", "token", "-id", "home", "-mode", "write"}, global))
	assert.Equal(t,
		[]string{"retrieve", "-jwt=abc"},
		StripArgs([]string{"retrieve", "-t=3", "-jwt=abc", "-c", "cli.json"}, global))
	assert.Equal(t, []string{}, StripArgs([]string{"-s", "lip:80"}, global))
	assert.Equal(t, []string{"-x"}, StripArgs([]string{"-s", "-x"}, global))
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"lip", "-a", ":9000", "-c", "lip.json"}
	assert.Equal(t, "lip.json", JsonConfigFlags())

	os.Args = []string{"lip", "-config=other.json"}
	assert.Equal(t, "other.json", JsonConfigFlags())

	os.Args = []string{"lip", "-a", ":9000"}
	assert.Equal(t, "", JsonConfigFlags())
}
