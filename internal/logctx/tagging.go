package logctx

import (
	"context"
	"segtransport/internal/global"
)

// Append new tag to tag list (copy-on-write)
func AppendCtxTag(ctx context.Context, newTag string) (newCtx context.Context) {
	tags := append(GetTagList(ctx), newTag)
	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Removes last index of tag list (copy-on-write)
func RemoveLastCtxTag(ctx context.Context) (newCtx context.Context) {
	tags := GetTagList(ctx)
	if len(tags) > 0 {
		tags = tags[:len(tags)-1]
	}
	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Overwrites entire tag list with given list
func OverwriteCtxTag(ctx context.Context, newList []string) (newCtx context.Context) {
	tags := append([]string(nil), newList...)
	newCtx = context.WithValue(ctx, global.LogTagsKey, tags)
	return
}

// Returns a private copy of the context tag list (empty when unset)
func GetTagList(ctx context.Context) (tags []string) {
	stored, _ := ctx.Value(global.LogTagsKey).([]string)
	tags = make([]string, len(stored), len(stored)+1)
	copy(tags, stored)
	return
}
