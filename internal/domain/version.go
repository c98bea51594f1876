package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Version 固件版本三元组，对应 "X.Y.Z" 字符串
// 存储层以 integer[] 形式保存（pq.Array），便于区间过滤
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion 解析 "X.Y.Z" 格式的版本号
// 失败条件：空串、段数 != 3、非数字或负数段
func ParseVersion(s string) (Version, error) {
	if strings.TrimSpace(s) == "" {
		return Version{}, fmt.Errorf("invalid version: version must be a non-empty string")
	}
	parts := strings.Split(s, ".")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version: %s contains non-numeric or negative components", s)
		}
		nums = append(nums, n)
	}
	if len(nums) != 3 {
		return Version{}, fmt.Errorf("invalid version: %s must be in X.Y.Z format", s)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Compare 字典序比较：-1 / 0 / 1
func (v Version) Compare(o Version) int {
	a := [3]int{v.Major, v.Minor, v.Patch}
	b := [3]int{o.Major, o.Minor, o.Patch}
	for i := 0; i < 3; i++ {
		if a[i] > b[i] {
			return 1
		}
		if a[i] < b[i] {
			return -1
		}
	}
	return 0
}

// CompareVersions 比较两个版本字符串（先解析再比较）
func CompareVersions(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Array integer[] 形式（数据库列 version_parsed）
func (v Version) Array() []int64 {
	return []int64{int64(v.Major), int64(v.Minor), int64(v.Patch)}
}

// VersionFromArray 从 integer[] 还原；缺失段按 0 处理
func VersionFromArray(a []int64) Version {
	var v Version
	if len(a) > 0 {
		v.Major = int(a[0])
	}
	if len(a) > 1 {
		v.Minor = int(a[1])
	}
	if len(a) > 2 {
		v.Patch = int(a[2])
	}
	return v
}
