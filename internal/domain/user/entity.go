package user

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "CUSTOMER" // 顾客:购物车、结算、推荐
	RoleAdmin    Role = "ADMIN"    // 管理员:维护图书目录
)

// Valid 是否为合法角色
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// User 用户实体(聚合根)
// DDD设计说明:
// 1. User是用户聚合的根实体,包含用户的核心属性
// 2. 密码已加密存储(bcrypt),不暴露明文
// 3. 每个用户拥有一个购物车和一份购买记录,它们与用户同生命周期,
//    注册时一起创建,注销时由应用层显式删除(不依赖ORM级联)
type User struct {
	ID        uint
	Email     string
	Password  string // bcrypt哈希值
	Nickname  string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUser 创建新用户(工厂方法),默认角色为顾客
// hashedPassword必须是bcrypt加密后的密码
func NewUser(email, hashedPassword, nickname string) *User {
	now := time.Now()
	return &User{
		Email:     email,
		Password:  hashedPassword,
		Nickname:  nickname,
		Role:      RoleCustomer,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsCustomer 是否顾客
func (u *User) IsCustomer() bool {
	return u.Role == RoleCustomer
}

// UpdateNickname 更新昵称(领域行为)
func (u *User) UpdateNickname(nickname string) {
	u.Nickname = nickname
	u.UpdatedAt = time.Now()
}
