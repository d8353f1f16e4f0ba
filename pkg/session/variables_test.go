package session_test

import (
	"testing"

	"github.com/aretw0/scriptbridge/pkg/adapters/memory"
	"github.com/aretw0/scriptbridge/pkg/domain"
	"github.com/aretw0/scriptbridge/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariables_BindParent(t *testing.T) {
	tests := []struct {
		eventID  string
		document string
		script   string
	}{
		{"doc1+scriptA;extra", "doc1", "scriptA"},
		{"doc1+scriptA+more", "doc1", "scriptA"},
		{"doc1", "", ""},
		{"", "", ""},
		{";doc1+scriptA", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.eventID, func(t *testing.T) {
			v := session.NewVariables()
			v.BindParent(tt.eventID)

			doc, ok := v.Attr(session.KeyParentDocumentID)
			require.True(t, ok)
			assert.Equal(t, tt.document, doc)

			script, ok := v.Attr(session.KeyParentScriptID)
			require.True(t, ok)
			assert.Equal(t, tt.script, script)
		})
	}
}

func TestVariables_BindSuperClasses(t *testing.T) {
	onto := memory.NewOntology(map[string][]string{
		"Type1": {"Base"},
		"Type2": {"Base", "Other"},
		"Other": {"Root"},
	})

	v := session.NewVariables()
	v.BindSuperClasses([]string{"Type1"}, onto)
	got, _ := v.Attr(session.KeySuperClasses)
	assert.Equal(t, `["Base"]`, got)

	v.BindSuperClasses([]string{"Type1", "Type2"}, onto)
	got, _ = v.Attr(session.KeySuperClasses)
	assert.ElementsMatch(t, []string{"Base", "Other", "Root"}, session.ParseList(got))

	v.BindSuperClasses([]string{"Unknown"}, onto)
	got, _ = v.Attr(session.KeySuperClasses)
	assert.Equal(t, "[]", got)
	assert.Empty(t, session.ParseList(got))
}

func TestVariables_Entities(t *testing.T) {
	v := session.NewVariables()
	doc := domain.NewEntity("d:one")
	v.SetEntity(session.KeyDocument, doc)

	got, ok := v.Entity(session.KeyDocument)
	require.True(t, ok)
	assert.Same(t, doc, got)

	_, ok = v.Entity("$missing")
	assert.False(t, ok)

	assert.True(t, session.IsBound("$document"))
	assert.False(t, session.IsBound("d:one"))
}
