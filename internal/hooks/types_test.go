package hooks

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriggerString(t *testing.T) {
	tests := []struct {
		trigger Trigger
		want    string
	}{
		{OnCreatePreSecurity, "on_create_pre_security"},
		{OnCreatePostCommit, "on_create_post_commit"},
		{OnReadPreCommit, "on_read_pre_commit"},
		{OnUpdatePreSecurity, "on_update_pre_security"},
		{OnDeletePostCommit, "on_delete_post_commit"},
		{Trigger(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.trigger.String())
		})
	}
}

func TestTriggerIsPostCommit(t *testing.T) {
	for trigger := OnCreatePreSecurity; trigger <= OnDeletePostCommit; trigger++ {
		want := trigger == OnCreatePostCommit || trigger == OnReadPostCommit ||
			trigger == OnUpdatePostCommit || trigger == OnDeletePostCommit
		assert.Equal(t, want, trigger.IsPostCommit(), trigger.String())
	}
}

func TestContextWithField(t *testing.T) {
	typ := reflect.TypeFor[order]()
	ctx := NewContext(context.Background(), OnUpdatePreCommit, typ)
	assert.Empty(t, ctx.Field())

	fieldCtx := ctx.WithField("status")
	assert.Equal(t, "status", fieldCtx.Field())
	assert.Equal(t, OnUpdatePreCommit, fieldCtx.Trigger())
	assert.Equal(t, typ, fieldCtx.EntityType())
	assert.Empty(t, ctx.Field(), "the parent context is unchanged")
}
