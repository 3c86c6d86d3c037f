package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField(t *testing.T) {
	f := Set("")
	v, ok := f.Get()
	assert.True(t, ok, "a present zero value is still present")
	assert.Equal(t, "", v)

	assert.False(t, Absent[int]().IsPresent())
	assert.Equal(t, 7, Absent[int]().OrElse(7))
	assert.Equal(t, 3, Set(3).OrElse(7))

	var zero Field[string]
	assert.False(t, zero.IsPresent())
}

func TestFromPtr(t *testing.T) {
	assert.False(t, FromPtr[string](nil).IsPresent())

	s := "x"
	f := FromPtr(&s)
	v, ok := f.Get()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

type widgetPatch struct {
	ID    Field[int64]
	Name  Field[string]
	Count Field[int]
	Note  Field[string]
}

func (p widgetPatch) Attributes() []Attribute {
	return []Attribute{
		Attr("id", p.ID),
		Attr("name", p.Name),
		Attr("count", p.Count),
		Attr("note", p.Note),
	}
}

func TestBuildAssignments(t *testing.T) {
	tests := []struct {
		name  string
		patch widgetPatch
		want  Assignments
	}{
		{
			name:  "all absent",
			patch: widgetPatch{},
			want:  Assignments{},
		},
		{
			name:  "only present attributes",
			patch: widgetPatch{Name: Set("gear")},
			want:  Assignments{"name": "gear"},
		},
		{
			name:  "present zero values are kept",
			patch: widgetPatch{Count: Set(0), Note: Set("")},
			want:  Assignments{"count": 0, "note": ""},
		},
		{
			name:  "identifier is never assigned",
			patch: widgetPatch{ID: Set(int64(9)), Name: Set("gear")},
			want:  Assignments{"name": "gear"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildAssignments("id", tt.patch))
		})
	}
}
