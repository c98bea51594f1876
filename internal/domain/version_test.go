package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 3}, v)
	assert.Equal(t, "1.2.3", v.String())

	v, err = ParseVersion("0.0.0")
	require.NoError(t, err)
	assert.Equal(t, Version{}, v)

	v, err = ParseVersion("10.20.30")
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, v.Array())
}

func TestParseVersionRejectsMalformed(t *testing.T) {
	for _, input := range []string{
		"",
		"1.2",
		"1.2.3.4",
		"1.2.x",
		"a.b.c",
		"1..3",
		"-1.2.3",
		"1.-2.3",
		"1.2.3-beta",
	} {
		_, err := ParseVersion(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestVersionCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.1", -1},
		{"1.0.1", "1.0.0", 1},
		{"1.9.0", "1.10.0", -1}, // 数值比较，不是字符串比较
		{"2.0.0", "1.99.99", 1},
		{"0.0.9", "0.1.0", -1},
	}
	for _, c := range cases {
		a, err := ParseVersion(c.a)
		require.NoError(t, err)
		b, err := ParseVersion(c.b)
		require.NoError(t, err)
		assert.Equal(t, c.want, a.Compare(b), "%s vs %s", c.a, c.b)
	}
}

func TestCompareVersions(t *testing.T) {
	got, err := CompareVersions("1.2.3", "1.2.4")
	require.NoError(t, err)
	assert.Equal(t, -1, got)

	_, err = CompareVersions("1.2", "1.2.4")
	assert.Error(t, err)
	_, err = CompareVersions("1.2.3", "oops")
	assert.Error(t, err)
}

func TestVersionFromArray(t *testing.T) {
	assert.Equal(t, Version{Major: 1, Minor: 2, Patch: 3}, VersionFromArray([]int64{1, 2, 3}))
	// 缺失段按 0 处理
	assert.Equal(t, Version{Major: 4}, VersionFromArray([]int64{4}))
	assert.Equal(t, Version{}, VersionFromArray(nil))
}
