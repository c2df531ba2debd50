// Package docs Swagger文档注册
// 由 `swag init -g cmd/api/main.go` 重新生成,接口注释见internal/interface/http/handler
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/checkout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "购物车中的图书全部转入购买记录并扣减库存,任何一本库存不足则什么都不改变",
                "produces": ["application/json"],
                "tags": ["结算"],
                "summary": "结算购物车",
                "responses": {
                    "200": {"description": "status=ok或empty", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        },
        "/api/v1/recommendations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["推荐"],
                "summary": "推荐图书",
                "parameters": [{"type": "integer", "description": "推荐数量", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/response.Response"}}
                }
            }
        }
    },
    "definitions": {
        "response.Response": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "data": {},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo 可在main中覆盖Host、BasePath等
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Bookshelf API",
	Description:      "在线书店:购物车、结算、购买记录与个性化推荐",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
