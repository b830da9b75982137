package message

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserText(t *testing.T) {
	m := NewUserText("hi")
	assert.Equal(t, RoleUser, m.Role)
	require.Len(t, m.Parts, 1)
	assert.Equal(t, PartText, m.Parts[0].Type)
	_, err := uuid.Parse(m.ID)
	assert.NoError(t, err)
}

func TestMessageText(t *testing.T) {
	m := Message{Parts: []Part{
		{Type: PartText, Text: "a"},
		{Type: PartReasoning, Text: "thinking"},
		{Type: PartText},
		{Type: PartText, Text: "b"},
	}}
	assert.Equal(t, "a b", m.Text())
}
