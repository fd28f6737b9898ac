package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 32 位无连字符 uuid，配合 varchar(32) 主键
func NewID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// NewToken 对外下发的随机令牌（重置链接等）
func NewToken() string { return NewID() + NewID() }
