package mysql

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// isDuplicateError 判断是否为MySQL唯一索引冲突错误
// MySQL错误码:
// - 1062: Duplicate entry 'xxx' for key 'yyy'
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	// 需要gorm.Config.TranslateError=true
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern 构造大小写不敏感的LIKE子串匹配模式,转义通配符
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// orderByPriceDesc 价格降序,未定价排最后,价格相同按上架顺序
const orderByPriceDesc = "price IS NULL, price DESC, id ASC"

// orderByPriceAsc 价格升序,未定价排最后
const orderByPriceAsc = "price IS NULL, price ASC, id ASC"
