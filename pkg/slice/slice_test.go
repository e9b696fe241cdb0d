// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/teachplan/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Nil(t, slice.Map[string, int](nil, func(s string) int { return len(s) }))
	assert.Equal(t, []int{1, 3}, slice.Map([]string{"a", "abc"}, func(s string) int { return len(s) }))
}

func TestFilter(t *testing.T) {
	got := slice.Filter([]string{"task:view", "system:role:assign"}, func(s string) bool {
		return !strings.HasPrefix(s, "system:")
	})
	assert.Equal(t, []string{"task:view"}, got)
}

func TestUniqueBy(t *testing.T) {
	type item struct{ id, label string }
	input := []item{{"1", "a"}, {"2", "b"}, {"1", "c"}}

	got := slice.UniqueBy(input, func(i item) string { return i.id })
	assert.Equal(t, []item{{"1", "a"}, {"2", "b"}}, got)
	assert.Empty(t, slice.UniqueBy([]item{}, func(i item) string { return i.id }))
}
