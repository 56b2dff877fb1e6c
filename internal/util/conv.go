package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParamUint 读取路径参数中的正整数 ID，非法时返回 false
func ParamUint(c *gin.Context, name string) (uint, bool) {
	id := MustParseUint(c.Param(name))
	return id, id != 0
}

// QueryUint 可选查询参数；缺省或非法时返回 nil
func QueryUint(c *gin.Context, name string) *uint {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	id, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return nil
	}
	u := uint(id)
	return &u
}
