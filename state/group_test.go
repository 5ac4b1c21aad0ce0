package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupNaming(t *testing.T) {
	req := require.New(t)
	g := NewGroup("signup", "name", "age")

	req.Equal("signup", g.Name())
	req.Equal("signup:name", g.State("name"))
	req.Equal([]string{"signup:name", "signup:age"}, g.All())

	req.True(g.Contains("signup:age"))
	req.False(g.Contains("signup:email"))
	req.False(g.Contains("other:name"))
}
