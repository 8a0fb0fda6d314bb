package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs_SeparateValue(t *testing.T) {
	args := []string{"-d", "postgres://x", "-z", "ignored", "-t", "5"}
	got := FilterArgs(args, []string{"-d", "-t"})
	assert.Equal(t, []string{"-d", "postgres://x", "-t", "5"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	args := []string{"--config=conf.json", "-d=dsn", "--other=x"}
	got := FilterArgs(args, []string{"--config", "-d"})
	assert.Equal(t, []string{"--config=conf.json", "-d=dsn"}, got)
}

func TestFilterArgs_FlagWithoutValue(t *testing.T) {
	args := []string{"-v", "-d", "dsn"}
	got := FilterArgs(args, []string{"-v"})
	assert.Equal(t, []string{"-v"}, got)
}

func TestFilterArgs_EmptyInput(t *testing.T) {
	got := FilterArgs(nil, []string{"-d"})
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestJsonConfigFlags_ShortFlag(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()

	os.Args = []string{"app", "-c", "conf.json", "-d", "dsn"}
	assert.Equal(t, "conf.json", JsonConfigFlags())
}

func TestJsonConfigFlags_LongFlag(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()

	os.Args = []string{"app", "-config=other.json"}
	assert.Equal(t, "other.json", JsonConfigFlags())
}

func TestJsonConfigFlags_Absent(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()

	os.Args = []string{"app", "-d", "dsn"}
	assert.Equal(t, "", JsonConfigFlags())
}
